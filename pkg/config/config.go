package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModeCLI      = "cli"
	ModeTelegram = "telegram"

	BackendHTTP   = "http"
	BackendOpenAI = "openai"
)

type Config struct {
	Mode       string           `mapstructure:"mode"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ClassifierConfig struct {
	Backend            string        `mapstructure:"backend"`
	Endpoint           string        `mapstructure:"endpoint"`
	Timeout            time.Duration `mapstructure:"timeout"`
	UnwrapEnvelope     bool          `mapstructure:"unwrap_envelope"`
	UnrecognizedPolicy string        `mapstructure:"unrecognized_policy"`
	DiscardStale       bool          `mapstructure:"discard_stale"`
	Labels             []string      `mapstructure:"labels"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoadConfig reads path (skipped when empty), applies defaults and
// TEXTCLASSIFY_* environment overrides, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("mode", ModeCLI)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("classifier.backend", BackendHTTP)
	v.SetDefault("classifier.endpoint", "http://localhost:8000/api/text-classification")
	v.SetDefault("classifier.timeout", 30*time.Second)
	v.SetDefault("classifier.unwrap_envelope", false)
	v.SetDefault("classifier.unrecognized_policy", "accept")
	v.SetDefault("classifier.discard_stale", true)
	v.SetDefault("classifier.labels", []string{"anger", "disgust", "fear", "joy", "neutral", "sadness", "surprise"})
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 150)
	// go-openai omits a zero temperature, so 0 means the provider default
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("telegram.token", "")
	v.SetDefault("metrics.addr", "")

	// Enable environment variable support
	v.SetEnvPrefix("TEXTCLASSIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names are accepted for secrets as well
	if err := v.BindEnv("telegram.token", "TEXTCLASSIFY_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("openai.api_key", "TEXTCLASSIFY_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeCLI:
	case ModeTelegram:
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram mode requires telegram.token")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	switch c.Classifier.Backend {
	case BackendHTTP:
		if c.Classifier.Endpoint == "" {
			return fmt.Errorf("http backend requires classifier.endpoint")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai backend requires openai.api_key")
		}
	default:
		return fmt.Errorf("unknown classifier backend %q", c.Classifier.Backend)
	}

	switch c.Classifier.UnrecognizedPolicy {
	case "accept", "reject":
	default:
		return fmt.Errorf("unknown unrecognized_policy %q", c.Classifier.UnrecognizedPolicy)
	}

	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive")
	}
	return nil
}
