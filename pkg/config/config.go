// Package config loads farmguru settings from an optional TOML file, a .env
// file and the environment, in increasing order of precedence for
// credentials.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/render"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "FARMGURU_CONFIG"
)

// Credentials are taken from the first variable that is set.
var (
	apiKeyEnv = []string{"FARMGURU_API_KEY", "OPENAI_KEY2", "OPENAI_API_KEY"}
	orgEnv    = []string{"FARMGURU_ORG", "OPENAI_ORG2"}
)

// ServerConfig configures `farmguru serve`.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Listen string `toml:"listen"`

	// RateLimit is the number of chat messages per second allowed per
	// client. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit"`

	// Burst is the number of messages a client may send at once.
	Burst int `toml:"burst"`
}

// Config represents the user configuration.
type Config struct {
	Provider     string  `toml:"provider"`
	Model        string  `toml:"model"`
	BaseURL      string  `toml:"base_url"`
	APIKey       string  `toml:"api_key"`
	Organization string  `toml:"organization"`
	Persona      string  `toml:"persona"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int     `toml:"max_tokens"`

	// Style is the markdown style, see render.Options
	Style string `toml:"style"`

	Debug   bool   `toml:"debug"`
	LogFile string `toml:"log_file"`

	Server ServerConfig `toml:"server"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		Model:       chat.DefaultModel,
		Persona:     chat.DefaultPersona,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
		Style:       render.StyleAuto,
		Server: ServerConfig{
			Listen:    ":8080",
			RateLimit: 1,
			Burst:     5,
		},
	}
}

// Dir returns the farmguru configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".farmguru"), nil
}

// ResolvePath picks the config file: the flag value, then $FARMGURU_CONFIG,
// then ~/.farmguru/config.toml. The file does not have to exist.
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds the configuration from defaults, the TOML file at path (if it
// exists), a .env file in the working directory and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if key := firstEnv(apiKeyEnv); key != "" {
		cfg.APIKey = key
	}
	if org := firstEnv(orgEnv); org != "" {
		cfg.Organization = org
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Use defaults if config doesn't exist
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be at least 1, got %d", c.Server.Burst)
	}
	return nil
}

// ChatConfig returns the settings sessions are initialized with.
func (c *Config) ChatConfig() chat.Config {
	return chat.Config{
		Provider: c.Provider,
		Model:    c.Model,
		Persona:  c.Persona,
		Options: llm.Options{
			Temperature: llm.Float(c.Temperature),
			MaxTokens:   llm.Int(c.MaxTokens),
		},
	}
}

// RenderOptions returns the markdown options for the given width.
func (c *Config) RenderOptions(width int) render.Options {
	opts := render.DefaultOptions().WithWidth(width)
	if c.Style != "" {
		opts = opts.WithStyle(c.Style)
	}
	return opts
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
