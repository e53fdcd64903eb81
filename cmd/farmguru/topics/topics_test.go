package topicscmder

import (
	"bytes"
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Topics Command", func() {
	var stdout *bytes.Buffer

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := NewTopicsCmd()
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SilenceUsage = true
		return cmd.ExecuteContext(context.Background())
	}

	It("lists topics in menu order with their sections", func() {
		Expect(execute()).To(Succeed())

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		Expect(lines[0]).To(HavePrefix("home"))
		Expect(lines[1]).To(HavePrefix("organic-certification"))
		Expect(lines[2]).To(HavePrefix("  osp"))
		Expect(stdout.String()).To(ContainSubstring("  prepared-foods"))
		Expect(lines[len(lines)-1]).To(HavePrefix("permits"))
	})

	It("prints raw markdown for a section", func() {
		Expect(execute("sell-produce", "prepared-foods", "--raw")).To(Succeed())

		Expect(stdout.String()).To(ContainSubstring("[Tennessee Food Freedom Act]("))
	})

	It("renders the first section by default", func() {
		Expect(execute("organic-certification", "--width", "60")).To(Succeed())

		Expect(stdout.String()).To(ContainSubstring("Organic Certification Guide"))
		Expect(stdout.String()).To(ContainSubstring("Step 1"))
	})

	It("reports topics without content", func() {
		Expect(execute("taxes")).To(Succeed())

		Expect(stdout.String()).To(Equal("Taxes: coming soon.\n"))
	})

	It("rejects unknown topics and sections", func() {
		Expect(execute("irrigation")).To(MatchError(ContainSubstring("unknown topic")))
		Expect(execute("sell-produce", "livestock")).To(MatchError(ContainSubstring("no section")))
	})
})
