package setup_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/cmd/farmguru/setup"
	"github.com/papercomputeco/farmguru/pkg/config"
	"github.com/papercomputeco/farmguru/pkg/llm/ollama"
	"github.com/papercomputeco/farmguru/pkg/llm/openai"
)

var _ = Describe("Setup", func() {
	BeforeEach(func() {
		for _, name := range []string{"FARMGURU_API_KEY", "OPENAI_KEY2", "OPENAI_API_KEY", "FARMGURU_ORG", "OPENAI_ORG2"} {
			GinkgoT().Setenv(name, "")
		}
	})

	Describe("LoadConfig", func() {
		It("loads the flagged file and applies --debug", func() {
			path := filepath.Join(GinkgoT().TempDir(), "config.toml")
			Expect(os.WriteFile(path, []byte(`model = "gpt-4o"`), 0o600)).To(Succeed())

			cfg, resolved, err := setup.LoadConfig(setup.Flags{ConfigPath: path, Debug: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(Equal(path))
			Expect(cfg.Model).To(Equal("gpt-4o"))
			Expect(cfg.Debug).To(BeTrue())
		})
	})

	Describe("NewCompleter", func() {
		It("requires an API key for OpenAI", func() {
			_, err := setup.NewCompleter(config.Default(), zap.NewNop())
			Expect(err).To(MatchError(setup.ErrMissingAPIKey))
		})

		It("builds the configured provider", func() {
			cfg := config.Default()
			cfg.APIKey = "sk-test"

			c, err := setup.NewCompleter(cfg, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(BeAssignableToTypeOf(&openai.Client{}))

			cfg.Provider = config.ProviderOllama
			c, err = setup.NewCompleter(cfg, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(BeAssignableToTypeOf(&ollama.Client{}))
		})

		It("passes the chat settings to the manager", func() {
			cfg := config.Default()
			cfg.Provider = config.ProviderOllama
			cfg.Model = "llama3"

			m, err := setup.NewManager(cfg, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Config().Model).To(Equal("llama3"))
			Expect(m.Config().Provider).To(Equal(config.ProviderOllama))
		})
	})
})
