// Package config loads semsearch settings from a YAML file, the environment and .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dshills/semsearch/internal/embedder"
	"github.com/dshills/semsearch/internal/indexer"
	"github.com/dshills/semsearch/internal/logging"
	"github.com/dshills/semsearch/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. SEMSEARCH_STORE_DSN
const EnvPrefix = "SEMSEARCH"

// DefaultDSN is the SQLite index used when no connection string is configured
const DefaultDSN = "~/.semsearch/index.db"

// Config holds all application configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Search    SearchConfig    `mapstructure:"search"`
	Log       LogConfig       `mapstructure:"log"`
}

type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	Dimension int    `mapstructure:"dimension"`
	CacheSize int    `mapstructure:"cache_size"`
}

type IndexConfig struct {
	Workers         int    `mapstructure:"workers"`
	OnProviderError string `mapstructure:"on_provider_error"`
}

type SearchConfig struct {
	Limit    int           `mapstructure:"limit"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EmbedderConfig converts the embedding section for embedder.New
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:  c.Embedding.Provider,
		APIKey:    c.Embedding.APIKey,
		Model:     c.Embedding.Model,
		BaseURL:   c.Embedding.BaseURL,
		Dimension: c.Embedding.Dimension,
		CacheSize: c.Embedding.CacheSize,
	}
}

// Validate checks enums and ranges. Failures wrap types.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Embedding.Provider) {
	case embedder.ProviderOpenAI, embedder.ProviderJina, embedder.ProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q must be openai, jina or local", c.Embedding.Provider))
	}
	if c.Embedding.Dimension < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension %d is negative", c.Embedding.Dimension))
	}
	if c.Embedding.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("embedding.cache_size %d is negative", c.Embedding.CacheSize))
	}
	if c.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("index.workers %d is negative", c.Index.Workers))
	}
	if _, err := indexer.ParseProviderErrorPolicy(c.Index.OnProviderError); err != nil {
		errs = append(errs, fmt.Errorf("index.on_provider_error %q must be skip or abort", c.Index.OnProviderError))
	}
	if c.Search.Limit < 1 {
		errs = append(errs, fmt.Errorf("search.limit %d must be at least 1", c.Search.Limit))
	}
	if c.Search.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("search.cache_ttl %s is negative", c.Search.CacheTTL))
	}
	if err := logging.Validate(c.Log.Level, c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: invalid configuration: %w", types.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.provider", embedder.ProviderOpenAI)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.cache_size", embedder.DefaultCacheSize)
	v.SetDefault("index.workers", runtime.NumCPU())
	v.SetDefault("index.on_provider_error", string(indexer.SkipOnProviderError))
	v.SetDefault("search.limit", 5)
	v.SetDefault("search.cache_ttl", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)
}

// Load reads configuration. path names a YAML file; when empty the first of
// ./semsearch.yaml and ~/.config/semsearch/config.yaml that exists is used,
// otherwise defaults and environment only. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: reading .env: %w", types.ErrConfiguration, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// store.dsn has no default so DATABASE_URL can fill in for it
	if err := v.BindEnv("store.dsn", EnvPrefix+"_STORE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading config: %w", types.ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling config: %w", types.ErrConfiguration, err)
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = DefaultDSN
	}
	cfg.Embedding.Provider = strings.ToLower(cfg.Embedding.Provider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFile reports the file Load would read when given no path, or ""
func ConfigFile() string {
	return findConfigFile()
}

func findConfigFile() string {
	candidates := []string{"semsearch.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "semsearch", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
