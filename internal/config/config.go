// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Images    ImagesConfig    `yaml:"images" mapstructure:"images"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings for the build analyzer.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FetchConfig configures the headless browser and the reachability prober.
type FetchConfig struct {
	Headless         bool   `yaml:"headless" mapstructure:"headless"`
	NavTimeoutSecs   int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleMillis     int    `yaml:"settle_ms" mapstructure:"settle_ms"`
	UserDataDir      string `yaml:"user_data_dir" mapstructure:"user_data_dir"`
	ProbeTimeoutSecs int    `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
	ProbeRPS         int    `yaml:"probe_rps" mapstructure:"probe_rps"`
}

// ResearchConfig configures the source fallback orchestrator.
type ResearchConfig struct {
	TimeoutSecs  int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinTextChars int `yaml:"min_text_chars" mapstructure:"min_text_chars"`
}

// ImagesConfig configures the image candidate pipeline. The three score
// thresholds form the acceptance policy: accept_score requires a 200 status,
// confident_score accepts regardless of status, relaxed_score is the
// status-200 fallback floor.
type ImagesConfig struct {
	MaxResults     int     `yaml:"max_results" mapstructure:"max_results"`
	ScrollPasses   int     `yaml:"scroll_passes" mapstructure:"scroll_passes"`
	AcceptScore    float64 `yaml:"accept_score" mapstructure:"accept_score"`
	ConfidentScore float64 `yaml:"confident_score" mapstructure:"confident_score"`
	RelaxedScore   float64 `yaml:"relaxed_score" mapstructure:"relaxed_score"`
}

// StoreConfig configures the on-disk build record store.
type StoreConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the chat server.
type ServerConfig struct {
	Port       int    `yaml:"port" mapstructure:"port"`
	ReportsDir string `yaml:"reports_dir" mapstructure:"reports_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BUILDSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.nav_timeout_secs", 90)
	v.SetDefault("fetch.settle_ms", 5000)
	v.SetDefault("fetch.probe_timeout_secs", 8)
	v.SetDefault("fetch.probe_rps", 4)
	v.SetDefault("research.timeout_secs", 300)
	v.SetDefault("research.min_text_chars", 500)
	v.SetDefault("images.max_results", 6)
	v.SetDefault("images.scroll_passes", 10)
	v.SetDefault("images.accept_score", 0.5)
	v.SetDefault("images.confident_score", 0.8)
	v.SetDefault("images.relaxed_score", 0.45)
	v.SetDefault("store.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.reports_dir", "reports")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
