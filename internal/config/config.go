package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when Load is called without a path and the file exists.
const DefaultFile = "genweb.yaml"

const (
	ContextFull    = "full"
	ContextExcerpt = "excerpt"
)

type Config struct {
	Addr          string `yaml:"addr"`
	PublicDir     string `yaml:"public_dir"`
	PromptFile    string `yaml:"prompt_file"`
	LogLevel      string `yaml:"log_level"`
	LogBufferSize int    `yaml:"log_buffer_size"`

	// Generation backend
	Provider        string `yaml:"provider"` // anthropic, openai
	Model           string `yaml:"model"`
	Endpoint        string `yaml:"endpoint"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	MaxTokens       int    `yaml:"max_tokens"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"` // per backend attempt
	HTTPProxy       string `yaml:"http_proxy"`
	HTTPSProxy      string `yaml:"https_proxy"`
	NoProxy         string `yaml:"no_proxy"`

	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	ContextSize   int           `yaml:"context_size"`
	ContextMode   string        `yaml:"context_mode"` // full, excerpt
	ExcerptChars  int           `yaml:"excerpt_chars"`
}

type RateLimitConfig struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           "0.0.0.0:8000",
		PublicDir:      "public",
		PromptFile:     "prompt.txt",
		LogLevel:       "INFO",
		LogBufferSize:  1000,
		Provider:       "anthropic",
		MaxTokens:      4096,
		TimeoutSeconds: 120,
		Cache: CacheConfig{
			TTL:           time.Hour,
			SweepInterval: 5 * time.Minute,
			ContextSize:   10,
			ContextMode:   ContextFull,
			ExcerptChars:  500,
		},
		RateLimit: RateLimitConfig{
			Window:      time.Minute,
			MaxRequests: 60,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment. An explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" && fileExists(DefaultFile) {
		path = DefaultFile
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyProviderSettings()

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := env("GENWEB_ADDR"); v != "" {
		cfg.Addr = v
	} else if v := env("PORT"); v != "" {
		cfg.Addr = "0.0.0.0:" + v
	}
	if v := env("GENWEB_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := env("GENWEB_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := env("GENWEB_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := env("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := env("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := env("GENWEB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("GENWEB_PUBLIC_DIR"); v != "" {
		cfg.PublicDir = v
	}
	if v := env("GENWEB_PROMPT_FILE"); v != "" {
		cfg.PromptFile = v
	}
	if v := env("GENWEB_CONTEXT_MODE"); v != "" {
		cfg.Cache.ContextMode = strings.ToLower(v)
	}
	if v := env("GENWEB_TIMEOUT_SECONDS"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GENWEB_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TimeoutSeconds = t
	}
	return nil
}

// ApplyProviderSettings fills in the model and endpoint for the selected
// provider when they were not set explicitly.
func (cfg *Config) ApplyProviderSettings() {
	switch cfg.Provider {
	case "openai":
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		if cfg.Endpoint == "" {
			cfg.Endpoint = "https://api.openai.com/v1"
		}
	default: // anthropic
		if cfg.Model == "" {
			cfg.Model = "claude-3-5-sonnet-20241022"
		}
		if cfg.Endpoint == "" {
			cfg.Endpoint = "https://api.anthropic.com/v1"
		}
	}
}

// APIKey returns the key of the selected provider.
func (cfg Config) APIKey() string {
	if cfg.Provider == "openai" {
		return cfg.OpenAIAPIKey
	}
	return cfg.AnthropicAPIKey
}

// AttemptTimeout is the upper bound for a single backend call.
func (cfg Config) AttemptTimeout() time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// Validate reports every invalid setting at once.
func (cfg Config) Validate() error {
	var errs []error

	switch cfg.Provider {
	case "anthropic", "openai":
	default:
		errs = append(errs, fmt.Errorf("unsupported provider %q", cfg.Provider))
	}
	if cfg.APIKey() == "" {
		errs = append(errs, fmt.Errorf("missing API key for provider %q", cfg.Provider))
	}
	if cfg.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, errors.New("max_tokens must be positive"))
	}
	if cfg.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("timeout_seconds must be positive"))
	}
	if cfg.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if cfg.Cache.SweepInterval <= 0 {
		errs = append(errs, errors.New("cache.sweep_interval must be positive"))
	}
	if cfg.Cache.ContextSize <= 0 {
		errs = append(errs, errors.New("cache.context_size must be positive"))
	}
	switch cfg.Cache.ContextMode {
	case ContextFull:
	case ContextExcerpt:
		if cfg.Cache.ExcerptChars <= 0 {
			errs = append(errs, errors.New("cache.excerpt_chars must be positive in excerpt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.context_mode %q", cfg.Cache.ContextMode))
	}
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate_limit.max_requests must be positive"))
	}
	if cfg.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry.max_attempts must be positive"))
	}
	if cfg.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry.base_delay must not be negative"))
	}

	return errors.Join(errs...)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
