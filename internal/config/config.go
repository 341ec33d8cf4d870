// Package config loads circuitsage's configuration surface (spec.md §6)
// from a TOML file, environment variables, and an optional .env file,
// following the viper mapstructure-tag pattern.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full configuration surface of spec.md §6.
type Config struct {
	Inference   InferenceConfig   `mapstructure:"inference"`
	Store       StoreConfig       `mapstructure:"store"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	Supplier    SupplierConfig    `mapstructure:"supplier"`
}

// InferenceConfig points at the local inference server and bounds a
// single call's fallback chain and history.
type InferenceConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	DefaultModel   string   `mapstructure:"default_model"`
	FallbackModels []string `mapstructure:"fallback_models"`
	TimeoutSeconds int      `mapstructure:"timeout_s"`
	MaxHistory     int      `mapstructure:"max_history"`
}

// StoreConfig points at the embedded component database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig bounds the embedding cache.
type CacheConfig struct {
	EmbeddingMaxBytes int64 `mapstructure:"embedding_max_bytes"`
}

// SimulationConfig locates the native SPICE shared library.
type SimulationConfig struct {
	LibraryPath    string `mapstructure:"library_path"`
	TimeoutSeconds int    `mapstructure:"timeout_s"`
}

// RecommenderConfig tunes the C5 ranking pipeline.
type RecommenderConfig struct {
	NLex    int                `mapstructure:"n_lex"`
	Weights map[string]float64 `mapstructure:"weights"`
}

// SupplierConfig points the C4 client at the Supplier Aggregator and
// bounds its internal rate limiting and response cache.
type SupplierConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_s"`
	TimeoutSeconds    int     `mapstructure:"timeout_s"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("inference.host", "127.0.0.1")
	v.SetDefault("inference.port", 11434)
	v.SetDefault("inference.default_model", "llama3.2")
	v.SetDefault("inference.fallback_models", []string{})
	v.SetDefault("inference.timeout_s", 30)
	v.SetDefault("inference.max_history", 20)

	v.SetDefault("store.path", "circuitsage.db")

	v.SetDefault("cache.embedding_max_bytes", int64(64<<20))

	v.SetDefault("simulation.library_path", "")
	v.SetDefault("simulation.timeout_s", 60)

	v.SetDefault("recommender.n_lex", 64)
	v.SetDefault("recommender.weights", map[string]float64{"lexical": 0.5, "vector": 0.5})

	v.SetDefault("supplier.base_url", "")
	v.SetDefault("supplier.requests_per_second", 5.0)
	v.SetDefault("supplier.burst", 10)
	v.SetDefault("supplier.cache_ttl_s", 300)
	v.SetDefault("supplier.timeout_s", 10)
}

// Load reads configuration from configPath (a TOML file) if set, else
// searches the current directory and $HOME/.circuitsage for
// "config.toml"; overlays environment variables (CIRCUITSAGE_ prefixed,
// with "." replaced by "_"); and merges a ".env" file from envDir first,
// if present, so exported shell variables still win over it.
func Load(configPath, envDir string) (*Config, error) {
	envPath := ""
	if envDir != "" {
		envPath = envDir + "/.env"
	}
	if envPath != "" {
		_ = godotenv.Load(envPath) // missing .env is not an error; env/defaults still apply
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.circuitsage")
	}

	v.SetEnvPrefix("circuitsage")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode into struct: %w", err)
	}
	return &cfg, nil
}
