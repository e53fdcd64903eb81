package config_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/config"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		for _, name := range []string{"FARMGURU_API_KEY", "OPENAI_KEY2", "OPENAI_API_KEY", "FARMGURU_ORG", "OPENAI_ORG2", config.EnvConfigPath} {
			GinkgoT().Setenv(name, "")
		}
	})

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		It("uses the defaults when the file does not exist", func() {
			cfg, err := config.Load(filepath.Join(dir, "missing.toml"))
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Provider).To(Equal(config.ProviderOpenAI))
			Expect(cfg.Model).To(Equal("gpt-4-0613"))
			Expect(cfg.Temperature).To(Equal(0.75))
			Expect(cfg.MaxTokens).To(Equal(225))
			Expect(cfg.Persona).To(Equal(chat.DefaultPersona))
			Expect(cfg.Server.Listen).To(Equal(":8080"))
		})

		It("overlays the file on the defaults", func() {
			path := write("config.toml", `
provider = "ollama"
model = "llama3"
temperature = 0.2

[server]
listen = "127.0.0.1:9000"
`)
			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Provider).To(Equal(config.ProviderOllama))
			Expect(cfg.Model).To(Equal("llama3"))
			Expect(cfg.Temperature).To(Equal(0.2))
			Expect(cfg.MaxTokens).To(Equal(225))
			Expect(cfg.Server.Listen).To(Equal("127.0.0.1:9000"))
			Expect(cfg.Server.Burst).To(Equal(5))
		})

		It("takes credentials from the environment in order", func() {
			path := write("config.toml", `api_key = "from-file"`)

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.APIKey).To(Equal("from-file"))

			GinkgoT().Setenv("OPENAI_API_KEY", "generic")
			GinkgoT().Setenv("OPENAI_KEY2", "legacy")
			GinkgoT().Setenv("OPENAI_ORG2", "org-legacy")

			cfg, err = config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.APIKey).To(Equal("legacy"))
			Expect(cfg.Organization).To(Equal("org-legacy"))

			GinkgoT().Setenv("FARMGURU_API_KEY", "preferred")
			cfg, err = config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.APIKey).To(Equal("preferred"))
		})

		DescribeTable("rejects invalid files",
			func(body string) {
				_, err := config.Load(write("bad.toml", body))
				Expect(err).To(HaveOccurred())
			},
			Entry("syntax error", `model = `),
			Entry("unknown key", `modle = "gpt-4"`),
			Entry("unknown provider", `provider = "cohere"`),
			Entry("temperature out of range", `temperature = 3.5`),
			Entry("non-positive max tokens", `max_tokens = 0`),
			Entry("burst below one", "[server]\nrate_limit = 2.0\nburst = 0"),
		)
	})

	Describe("ResolvePath", func() {
		It("prefers the flag, then the environment, then the home directory", func() {
			GinkgoT().Setenv("HOME", dir)

			p, err := config.ResolvePath("")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(filepath.Join(dir, ".farmguru", "config.toml")))

			GinkgoT().Setenv(config.EnvConfigPath, "/etc/farmguru.toml")
			p, err = config.ResolvePath("")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal("/etc/farmguru.toml"))

			p, err = config.ResolvePath("./local.toml")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal("./local.toml"))
		})
	})

	Describe("ChatConfig", func() {
		It("carries the generation parameters", func() {
			cfg := config.Default()
			cc := cfg.ChatConfig()

			Expect(cc.Model).To(Equal("gpt-4-0613"))
			Expect(*cc.Options.Temperature).To(Equal(0.75))
			Expect(*cc.Options.MaxTokens).To(Equal(225))
		})
	})

	Describe("Watch", func() {
		It("reports valid changes and skips invalid ones", func() {
			path := write("config.toml", `model = "first"`)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			changes := make(chan *config.Config, 4)
			done := make(chan error, 1)
			go func() {
				done <- config.Watch(ctx, path, zap.NewNop(), func(c *config.Config) { changes <- c })
			}()

			// Give the watcher time to register
			time.Sleep(100 * time.Millisecond)

			write("config.toml", `model = `)
			Consistently(changes, 400*time.Millisecond).ShouldNot(Receive())

			write("config.toml", `model = "second"`)
			var got *config.Config
			Eventually(changes, 2*time.Second).Should(Receive(&got))
			Expect(got.Model).To(Equal("second"))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
