package content_test

import (
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/farmguru/pkg/content"
)

var _ = Describe("Navigator", func() {
	var nav *content.Navigator

	BeforeEach(func() {
		var err error
		nav, err = content.NewNavigator()
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists the menu topics in order", func() {
		var keys []string
		for _, t := range nav.Topics() {
			keys = append(keys, t.Key)
		}

		Expect(keys).To(Equal([]string{
			content.TopicHome,
			content.TopicOrganicCertification,
			content.TopicSellProduce,
			content.TopicTaxes,
			content.TopicPermits,
		}))
	})

	It("has five organic certification steps", func() {
		topic, ok := nav.Lookup(content.TopicOrganicCertification)
		Expect(ok).To(BeTrue())

		Expect(topic.Title).To(Equal("Organic Certification"))
		Expect(topic.Prompt).To(Equal("Select a step to learn more:"))
		Expect(topic.Sections).To(HaveLen(5))
		Expect(topic.Sections[0].Title).To(Equal("Adopt organic practices and create an Organic System Plan (OSP)"))
		Expect(topic.Sections[0].Body).To(ContainSubstring("free of prohibited substances for 3 years"))
		Expect(topic.Intro).To(ContainSubstring("$5000"))
	})

	It("offers produce and prepared foods for selling", func() {
		section, ok := nav.Section(content.TopicSellProduce, "prepared-foods")
		Expect(ok).To(BeTrue())
		Expect(section.Body).To(ContainSubstring("Tennessee Food Freedom Act"))

		section, ok = nav.Section(content.TopicSellProduce, "produce")
		Expect(ok).To(BeTrue())
		Expect(section.Body).To(ContainSubstring("Coming Soon"))
	})

	It("keeps taxes and permits in the menu without content", func() {
		for _, key := range []string{content.TopicTaxes, content.TopicPermits} {
			topic, ok := nav.Lookup(key)
			Expect(ok).To(BeTrue())
			Expect(topic.Empty()).To(BeTrue())
			Expect(topic.Markdown("")).To(BeEmpty())
		}
	})

	It("returns nothing for unknown keys", func() {
		_, ok := nav.Lookup("livestock")
		Expect(ok).To(BeFalse())

		_, ok = nav.Section(content.TopicOrganicCertification, "step-9")
		Expect(ok).To(BeFalse())

		_, ok = nav.Section("livestock", "osp")
		Expect(ok).To(BeFalse())
	})

	Describe("Topic.Markdown", func() {
		It("combines the intro with the selected section", func() {
			topic, _ := nav.Lookup(content.TopicOrganicCertification)

			md := topic.Markdown("inspection")
			Expect(md).To(ContainSubstring("Organic Certification Guide"))
			Expect(md).To(ContainSubstring("Step 3: On-site inspection"))
			Expect(md).NotTo(ContainSubstring("Step 1"))
		})

		It("defaults to the first section", func() {
			topic, _ := nav.Lookup(content.TopicOrganicCertification)

			Expect(topic.Markdown("")).To(ContainSubstring("Step 1"))
			Expect(topic.Markdown("nope")).To(ContainSubstring("Step 1"))
		})
	})

	Describe("Load", func() {
		It("rejects duplicate topics", func() {
			fsys := fstest.MapFS{
				"topics.toml": {Data: []byte("[[topic]]\nkey = \"a\"\n[[topic]]\nkey = \"a\"\n")},
			}

			_, err := content.Load(fsys)
			Expect(err).To(MatchError(ContainSubstring("duplicate topic")))
		})

		It("rejects missing markdown files", func() {
			fsys := fstest.MapFS{
				"topics.toml": {Data: []byte("[[topic]]\nkey = \"a\"\nintro = \"a.md\"\n")},
			}

			_, err := content.Load(fsys)
			Expect(err).To(MatchError(ContainSubstring("a.md")))
		})

		It("rejects unknown catalog keys", func() {
			fsys := fstest.MapFS{
				"topics.toml": {Data: []byte("[[topic]]\nkey = \"a\"\ncolour = \"green\"\n")},
			}

			_, err := content.Load(fsys)
			Expect(err).To(MatchError(ContainSubstring("unknown keys")))
		})

		It("loads sections from a custom catalog", func() {
			fsys := fstest.MapFS{
				"topics.toml": {Data: []byte(`
[[topic]]
key = "a"
title = "A"

  [[topic.section]]
  key = "one"
  title = "One"
  body = "one.md"
`)},
				"one.md": {Data: []byte("  body one  \n\n")},
			}

			n, err := content.Load(fsys)
			Expect(err).NotTo(HaveOccurred())

			section, ok := n.Section("a", "one")
			Expect(ok).To(BeTrue())
			Expect(section.Body).To(Equal("body one\n"))
		})
	})
})
