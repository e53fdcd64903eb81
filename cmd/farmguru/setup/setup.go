// Package setup builds what every farmguru command needs from its flags:
// configuration, a logger and a chat manager for the configured provider.
package setup

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/config"
	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/llm/ollama"
	"github.com/papercomputeco/farmguru/pkg/llm/openai"
)

// Version is set at build time.
var Version = "dev"

// ErrMissingAPIKey is returned when the OpenAI provider has no credentials.
var ErrMissingAPIKey = errors.New("no API key: set FARMGURU_API_KEY (or OPENAI_KEY2 / OPENAI_API_KEY) or api_key in the config file")

// Flags are the flags shared by every command.
type Flags struct {
	ConfigPath string
	Debug      bool
}

// AddFlags registers the shared flags on cmd.
func AddFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: $FARMGURU_CONFIG or ~/.farmguru/config.toml)")
	cmd.Flags().BoolVar(&f.Debug, "debug", false, "Enable debug logging")
}

// LoadConfig resolves and loads the config file named by the flags. The
// resolved path is returned for watching.
func LoadConfig(f Flags) (*config.Config, string, error) {
	path, err := config.ResolvePath(f.ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("could not resolve config path: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if f.Debug {
		cfg.Debug = true
	}
	return cfg, path, nil
}

// NewCompleter returns the completion provider selected by cfg.
func NewCompleter(cfg *config.Config, logger *zap.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.New(ollama.Config{URL: cfg.BaseURL}, logger), nil

	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return openai.New(openai.Config{
			APIKey:       cfg.APIKey,
			Organization: cfg.Organization,
			BaseURL:      cfg.BaseURL,
		}, logger), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewManager returns a chat manager for cfg.
func NewManager(cfg *config.Config, logger *zap.Logger) (*chat.Manager, error) {
	completer, err := NewCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return chat.NewManager(completer, cfg.ChatConfig(), logger), nil
}
