// Package config holds all watchdog configuration, loaded from an optional
// YAML file with WATCHDOG_* environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all watchdog settings.
type Config struct {
	LLM      LLMConfig
	Embed    EmbedConfig
	Store    StoreConfig
	Analysis AnalysisConfig
	Server   ServerConfig
	LogLevel string
}

// LLMConfig selects the inference capability.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// EmbedConfig selects the embedding capability.
type EmbedConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dim      int
}

// StoreConfig locates persisted state.
type StoreConfig struct {
	Dir string
}

// VectorPath returns the vector store snapshot path.
func (s StoreConfig) VectorPath() string {
	return filepath.Join(s.Dir, "vectors.db")
}

// FindingsPath returns the finding log snapshot path.
func (s StoreConfig) FindingsPath() string {
	return filepath.Join(s.Dir, "findings.db")
}

// AnalysisConfig tunes the extraction pipeline.
type AnalysisConfig struct {
	RetrievalLimit int // top-K records for query analysis
	MaxBatchChars  int // char budget per inference batch
	MaxRecords     int // cap on records per ingest; 0 = unlimited
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string
}

// Load reads configuration through viper: defaults, then the config file if
// one was found, then WATCHDOG_* environment variables.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Embed: EmbedConfig{
			Provider: v.GetString("embed.provider"),
			Model:    v.GetString("embed.model"),
			APIKey:   v.GetString("embed.api_key"),
			BaseURL:  v.GetString("embed.base_url"),
			Dim:      v.GetInt("embed.dim"),
		},
		Store: StoreConfig{
			Dir: v.GetString("store.dir"),
		},
		Analysis: AnalysisConfig{
			RetrievalLimit: v.GetInt("analysis.retrieval_limit"),
			MaxBatchChars:  v.GetInt("analysis.max_batch_chars"),
			MaxRecords:     v.GetInt("analysis.max_records"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		LogLevel: v.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a viper instance wired for watchdog: optional config file
// plus WATCHDOG_* env overrides (WATCHDOG_LLM_API_KEY, etc.).
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".watchdog")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("WATCHDOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.ReadInConfig()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-3-haiku-20240307")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("embed.provider", "local")
	v.SetDefault("embed.model", "")
	v.SetDefault("embed.dim", 256)

	v.SetDefault("store.dir", "data")

	v.SetDefault("analysis.retrieval_limit", 5)
	v.SetDefault("analysis.max_batch_chars", 6000)
	v.SetDefault("analysis.max_records", 0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log_level", "info")
}

func (c Config) validate() error {
	if c.Analysis.RetrievalLimit <= 0 {
		return fmt.Errorf("config: analysis.retrieval_limit must be positive")
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("config: store.dir must be set")
	}
	return nil
}
