package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/helio-assistant/helio"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Responder  ResponderConfig  `mapstructure:"responder"`
	History    HistoryConfig    `mapstructure:"history"`
	Export     ExportConfig     `mapstructure:"export"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "console" or "json"
}

// ClassifierConfig selects the domain vocabulary.
type ClassifierConfig struct {
	VocabularyPath string `mapstructure:"vocabulary_path"` // empty uses the embedded default
	Watch          bool   `mapstructure:"watch"`           // reload the vocabulary file on change
}

// ResponderConfig stores generative model settings.
type ResponderConfig struct {
	Provider     string        `mapstructure:"provider"` // "gemini" or "static"
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Temperature  float32       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	StaticReply  string        `mapstructure:"static_reply"` // answer used by the static provider

	// Cache settings
	CacheEnabled    bool `mapstructure:"cache_enabled"`
	CacheCapacity   int  `mapstructure:"cache_capacity"`
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`

	// Rate limiting
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"`

	// Output policy
	MaxOutputSize int  `mapstructure:"max_output_size"` // bytes, 0 disables the check
	RedactSecrets bool `mapstructure:"redact_secrets"`

	EnableTracing bool `mapstructure:"enable_tracing"`
}

// HistoryConfig controls the per-session search index.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ExportConfig stores export defaults.
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("classifier.vocabulary_path", "")
	v.SetDefault("classifier.watch", false)

	v.SetDefault("responder.provider", "gemini")
	v.SetDefault("responder.model", internal.DefaultModel)
	v.SetDefault("responder.api_key", "")
	v.SetDefault("responder.system_prompt", "")
	v.SetDefault("responder.timeout", "60s")
	v.SetDefault("responder.temperature", 0.7)
	v.SetDefault("responder.max_tokens", 2048)
	v.SetDefault("responder.static_reply", "")
	v.SetDefault("responder.cache_enabled", false)
	v.SetDefault("responder.cache_capacity", 128)
	v.SetDefault("responder.cache_ttl_seconds", 3600)
	v.SetDefault("responder.rate_limit_enabled", true)
	v.SetDefault("responder.rate_limit_capacity", 10)
	v.SetDefault("responder.rate_limit_refill_rate", "6s")
	v.SetDefault("responder.max_output_size", 64000)
	v.SetDefault("responder.redact_secrets", true)
	v.SetDefault("responder.enable_tracing", true)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", internal.DefaultHistoryDSN)

	v.SetDefault("export.path", internal.DefaultExportFile)

	// HELIO_RESPONDER_API_KEY overrides responder.api_key, and so on.
	v.SetEnvPrefix(strings.ToUpper(internal.DefaultAppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Responder.Provider {
	case "gemini", "static":
	default:
		return fmt.Errorf("unknown responder provider %q", c.Responder.Provider)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Responder.CacheEnabled && c.Responder.CacheCapacity <= 0 {
		return fmt.Errorf("responder.cache_capacity must be positive when the cache is enabled")
	}
	if c.Responder.RateLimitEnabled {
		if c.Responder.RateLimitCapacity <= 0 {
			return fmt.Errorf("responder.rate_limit_capacity must be positive when rate limiting is enabled")
		}
		if c.Responder.RateLimitRefillRate <= 0 {
			return fmt.Errorf("responder.rate_limit_refill_rate must be positive when rate limiting is enabled")
		}
	}
	return nil
}
