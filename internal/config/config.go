// Package config loads service configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the top-level configuration.
type Config struct {
	Knowledge  KnowledgeConfig  `yaml:"knowledge" mapstructure:"knowledge"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Prompt     PromptConfig     `yaml:"prompt" mapstructure:"prompt"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// KnowledgeConfig selects the knowledge base backend.
type KnowledgeConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // cosmos, postgres, sqlite, memory

	// Cosmos DB
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Key       string `yaml:"key" mapstructure:"key"`
	Database  string `yaml:"database" mapstructure:"database"`
	Container string `yaml:"container" mapstructure:"container"`
	// PartitionKey names the document field the container is partitioned
	// on. Empty means lookups run as cross-partition queries.
	PartitionKey string `yaml:"partition_key" mapstructure:"partition_key"`

	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	// Path is the SQLite file or the memory fixture file.
	Path string `yaml:"path" mapstructure:"path"`

	LookupTimeoutSecs int `yaml:"lookup_timeout_secs" mapstructure:"lookup_timeout_secs"`
}

// GenerationConfig selects and tunes the text generation provider.
type GenerationConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"` // azure, anthropic, stub
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint"`
	Key          string  `yaml:"key" mapstructure:"key"`
	AzureKey     string  `yaml:"azure_key" mapstructure:"azure_key"`
	AnthropicKey string  `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	Deployment   string  `yaml:"deployment" mapstructure:"deployment"`
	APIVersion   string  `yaml:"api_version" mapstructure:"api_version"`
	Model        string  `yaml:"model" mapstructure:"model"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`

	RatePerSec          float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst               int     `yaml:"burst" mapstructure:"burst"`
	Attempts            int     `yaml:"attempts" mapstructure:"attempts"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// APIKey returns the credential for the selected provider. An explicit key
// wins; otherwise only the selected provider's own key is used.
func (g GenerationConfig) APIKey() string {
	if g.Key != "" {
		return g.Key
	}
	switch g.Provider {
	case "azure":
		return g.AzureKey
	case "anthropic":
		return g.AnthropicKey
	}
	return ""
}

// RulesConfig locates the weighting rule table.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// Sheet selects the worksheet of an .xlsx table. Empty means the first.
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
	// Delimiter is the field separator of a .csv table.
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
}

// PromptConfig optionally overrides the built-in prompt templates.
type PromptConfig struct {
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// ScoringConfig selects the weighting policy.
type ScoringConfig struct {
	Policy string `yaml:"policy" mapstructure:"policy"` // count, strict
}

// PipelineConfig bounds per-request work.
type PipelineConfig struct {
	MaxConcurrency  int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	ItemTimeoutSecs int `yaml:"item_timeout_secs" mapstructure:"item_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps keys to the environment variable names the previous
// deployment used. The ADVISOR_ name is checked first.
var legacyEnv = map[string][]string{
	"knowledge.endpoint":       {"COSMOS_ENDPOINT"},
	"knowledge.key":            {"COSMOS_KEY"},
	"knowledge.database":       {"COSMOS_DATABASE"},
	"knowledge.container":      {"COSMOS_CONTAINER"},
	"knowledge.database_url":   {"DATABASE_URL"},
	"generation.endpoint":      {"AZURE_OPENAI_ENDPOINT"},
	"generation.azure_key":     {"AZURE_OPENAI_API_KEY"},
	"generation.anthropic_key": {"ANTHROPIC_API_KEY"},
	"generation.deployment":    {"AZURE_OPENAI_DEPLOYMENT"},
	"generation.api_version":   {"AZURE_OPENAI_API_VERSION"},
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range legacyEnv {
		names := append([]string{"ADVISOR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	v.SetDefault("knowledge.driver", "cosmos")
	v.SetDefault("knowledge.endpoint", "")
	v.SetDefault("knowledge.key", "")
	v.SetDefault("knowledge.database", "PromptEngineeringDB")
	v.SetDefault("knowledge.container", "answers")
	v.SetDefault("knowledge.partition_key", "")
	v.SetDefault("knowledge.database_url", "")
	v.SetDefault("knowledge.max_conns", 10)
	v.SetDefault("knowledge.path", "")
	v.SetDefault("knowledge.lookup_timeout_secs", 5)
	v.SetDefault("generation.provider", "azure")
	v.SetDefault("generation.endpoint", "")
	v.SetDefault("generation.key", "")
	v.SetDefault("generation.azure_key", "")
	v.SetDefault("generation.anthropic_key", "")
	v.SetDefault("generation.deployment", "")
	v.SetDefault("generation.api_version", "2024-02-15-preview")
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_tokens", 512)
	v.SetDefault("generation.rate_per_sec", 5)
	v.SetDefault("generation.burst", 5)
	v.SetDefault("generation.attempts", 3)
	v.SetDefault("generation.breaker_threshold", 5)
	v.SetDefault("generation.breaker_cooldown_secs", 30)
	v.SetDefault("rules.path", "question_weights.csv")
	v.SetDefault("rules.sheet", "")
	v.SetDefault("rules.delimiter", ",")
	v.SetDefault("prompt.templates_path", "")
	v.SetDefault("scoring.policy", "count")
	v.SetDefault("pipeline.max_concurrency", 8)
	v.SetDefault("pipeline.item_timeout_secs", 60)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout_secs", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Scoring.Policy = normalizePolicy(cfg.Scoring.Policy)

	return &cfg, nil
}

// Validate checks that the settings a command needs are present. mode is one
// of "serve", "advise", "score" or "knowledge".
func (c *Config) Validate(mode string) error {
	var missing []string

	needKnowledge := mode == "serve" || mode == "advise" || mode == "knowledge"
	needGeneration := mode == "serve" || mode == "advise"
	needRules := mode != "knowledge"

	if needRules && c.Rules.Path == "" {
		missing = append(missing, "rules.path")
	}
	if c.Rules.Delimiter != "" && utf8.RuneCountInString(c.Rules.Delimiter) != 1 {
		return eris.Errorf("config: rules.delimiter must be a single character, got %q", c.Rules.Delimiter)
	}

	if needKnowledge {
		switch c.Knowledge.Driver {
		case "cosmos":
			if c.Knowledge.Endpoint == "" {
				missing = append(missing, "knowledge.endpoint")
			}
			if c.Knowledge.Key == "" {
				missing = append(missing, "knowledge.key")
			}
			if c.Knowledge.Database == "" || c.Knowledge.Container == "" {
				missing = append(missing, "knowledge.database/knowledge.container")
			}
		case "postgres":
			if c.Knowledge.DatabaseURL == "" {
				missing = append(missing, "knowledge.database_url")
			}
		case "sqlite":
			if c.Knowledge.Path == "" {
				missing = append(missing, "knowledge.path")
			}
		case "memory":
		default:
			return eris.Errorf("config: unknown knowledge.driver %q", c.Knowledge.Driver)
		}
	}

	if needGeneration {
		switch c.Generation.Provider {
		case "azure":
			if c.Generation.Endpoint == "" {
				missing = append(missing, "generation.endpoint")
			}
			if c.Generation.APIKey() == "" {
				missing = append(missing, "generation.key")
			}
			if c.Generation.Deployment == "" {
				missing = append(missing, "generation.deployment")
			}
		case "anthropic":
			if c.Generation.APIKey() == "" {
				missing = append(missing, "generation.key")
			}
		case "stub":
		default:
			return eris.Errorf("config: unknown generation.provider %q", c.Generation.Provider)
		}
	}

	switch normalizePolicy(c.Scoring.Policy) {
	case "", "count", "strict":
	default:
		return eris.Errorf("config: unknown scoring.policy %q", c.Scoring.Policy)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

func normalizePolicy(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
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
