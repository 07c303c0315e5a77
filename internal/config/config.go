// Package config resolves application settings from viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/spf13/viper"
)

// Config is the fully resolved application configuration.
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Server   ServerConfig
	Schedule ScheduleConfig
	Logging  LoggingConfig
	Currency string
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LLMConfig configures the optional text generator. An empty APIKey selects
// template-only explanations.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	RateLimit   int
	MaxRetries  int
	Temperature float64
}

// Enabled reports whether a text generator credential is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// ServerConfig configures the HTTP trigger surface.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ScheduleConfig configures periodic pipeline runs. An empty Pipeline disables them.
type ScheduleConfig struct {
	Pipeline string
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/sentinel/sentinel.db")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("currency.symbol", "₹")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("schedule.pipeline", "@every 1h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Schedule: ScheduleConfig{
			Pipeline: strings.TrimSpace(v.GetString("schedule.pipeline")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Currency: v.GetString("currency.symbol"),
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: llm.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Currency == "" {
		return fmt.Errorf("%w: currency.symbol", common.ErrMissingConfig)
	}
	return nil
}

// ExpandPath resolves a leading ~ to the home directory and expands $VAR references.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + p[1:]
		}
	}
	return os.ExpandEnv(p)
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
