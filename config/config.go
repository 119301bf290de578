// Package config loads Lyceum settings from an optional .env file, an
// optional YAML file and the environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/lyceum/core"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Config is the complete runtime configuration.
type Config struct {
	Provider    string  `yaml:"provider" validate:"oneof=anthropic openai gemini mock"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int64   `yaml:"max_tokens" validate:"gte=0"`
	// Stream requests incremental output from providers that support it
	// (openai). Replies are still delivered whole.
	Stream bool `yaml:"stream"`

	Keys   APIKeys      `yaml:"-"`
	Server ServerConfig `yaml:"server"`
	Forum  ForumConfig  `yaml:"forum"`
	Log    LogConfig    `yaml:"log"`
}

// APIKeys are read from the environment only.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Gemini    string
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
	// BodyLimit bounds request bodies, uploads included.
	BodyLimit int `yaml:"body_limit" validate:"gt=0"`
}

// ForumConfig configures forum behaviour.
type ForumConfig struct {
	DefaultMode       string        `yaml:"default_mode" validate:"required"`
	DisableModes      bool          `yaml:"disable_modes"`
	PollInterval      time.Duration `yaml:"poll_interval" validate:"gte=0"`
	GenerationTimeout time.Duration `yaml:"generation_timeout" validate:"gte=0"`
	TTL               time.Duration `yaml:"ttl"`
	TruncateAt        int           `yaml:"truncate_at" validate:"gt=0"`
	PersonaFile       string        `yaml:"persona_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json text zap"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Server: ServerConfig{
			Port:      "8080",
			BodyLimit: 8 << 20,
		},
		Forum: ForumConfig{
			DefaultMode:       string(core.DefaultMode),
			PollInterval:      15 * time.Second,
			GenerationTimeout: 2 * time.Minute,
			TTL:               12 * time.Hour,
			TruncateAt:        120,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds a Config. A missing .env file is ignored; path may be empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading config file: %v", core.ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing config file: %v", core.ErrConfiguration, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads a specific env file; a missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Provider = getEnv("LYCEUM_PROVIDER", c.Provider)
	c.Model = getEnv("LYCEUM_MODEL", c.Model)
	c.Server.Port = getEnv("LYCEUM_PORT", c.Server.Port)
	c.Forum.DefaultMode = getEnv("LYCEUM_DEFAULT_MODE", c.Forum.DefaultMode)
	c.Forum.PersonaFile = getEnv("LYCEUM_PERSONA_FILE", c.Forum.PersonaFile)
	c.Log.Level = getEnv("LYCEUM_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LYCEUM_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LYCEUM_LOG_FILE", c.Log.File)

	c.Keys = APIKeys{
		Anthropic: getEnv("ANTHROPIC_API_KEY", c.Keys.Anthropic),
		OpenAI:    getEnv("OPENAI_API_KEY", c.Keys.OpenAI),
		Gemini:    getEnv("GEMINI_API_KEY", c.Keys.Gemini),
	}

	var err error
	if c.Stream, err = getEnvAsBool("LYCEUM_STREAM", c.Stream); err != nil {
		return err
	}
	if c.Forum.PollInterval, err = getEnvAsDuration("LYCEUM_POLL_COOLDOWN", c.Forum.PollInterval); err != nil {
		return err
	}
	if c.Forum.TTL, err = getEnvAsDuration("LYCEUM_FORUM_TTL", c.Forum.TTL); err != nil {
		return err
	}
	if c.Forum.GenerationTimeout, err = getEnvAsDuration("LYCEUM_GENERATION_TIMEOUT", c.Forum.GenerationTimeout); err != nil {
		return err
	}

	return nil
}

// Validate checks the configuration. Missing credentials are not an error
// here; they surface when a generation is attempted.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	if _, err := core.ParseMode(c.Forum.DefaultMode); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return nil
}

// Mode returns the configured default discourse mode.
func (c *Config) Mode() core.Mode {
	m, err := core.ParseMode(c.Forum.DefaultMode)
	if err != nil {
		return core.DefaultMode
	}
	return m
}

// APIKey returns the credential of the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Keys.Anthropic
	case ProviderOpenAI:
		return c.Keys.OpenAI
	case ProviderGemini:
		return c.Keys.Gemini
	default:
		return ""
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("15s") and bare seconds ("15").
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", core.ErrConfiguration, key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", core.ErrConfiguration, key, err)
	}
	return b, nil
}
