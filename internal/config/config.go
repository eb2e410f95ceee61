package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds analysis model settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAIConfig holds embedding service settings for the ranking path.
type OpenAIConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	EmbedModel string `yaml:"embed_model" mapstructure:"embed_model"`
}

// AnalysisConfig tunes segmentation, batching, pacing, and retries.
type AnalysisConfig struct {
	ChunkSize       int `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	MinSegmentChars int `yaml:"min_segment_chars" mapstructure:"min_segment_chars"`
	BatchSize       int `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRetries      int `yaml:"max_retries" mapstructure:"max_retries"`
	DelayMinMS      int `yaml:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMS      int `yaml:"delay_max_ms" mapstructure:"delay_max_ms"`
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	TopK            int `yaml:"top_k" mapstructure:"top_k"`
}

// DelayMin returns the lower inter-call delay bound.
func (c AnalysisConfig) DelayMin() time.Duration {
	return time.Duration(c.DelayMinMS) * time.Millisecond
}

// DelayMax returns the upper inter-call delay bound.
func (c AnalysisConfig) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxMS) * time.Millisecond
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("STRIDESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can fill them in.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("openai.embed_model", "text-embedding-3-small")
	v.SetDefault("analysis.chunk_size", 4000)
	v.SetDefault("analysis.chunk_overlap", 200)
	v.SetDefault("analysis.min_segment_chars", 10)
	v.SetDefault("analysis.batch_size", 10)
	v.SetDefault("analysis.max_retries", 5)
	v.SetDefault("analysis.delay_min_ms", 1000)
	v.SetDefault("analysis.delay_max_ms", 2000)
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("analysis.top_k", 3)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "stridescan.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that required settings are present for a command that
// needs the remote analysis service.
func (c *Config) Validate() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required (STRIDESCAN_ANTHROPIC_KEY)")
	}
	return nil
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
