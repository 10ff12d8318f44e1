package embedder

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dshills/semsearch/pkg/types"
)

// Config holds embedder configuration
type Config struct {
	Provider   string
	APIKey     string // Falls back to the provider's environment variable
	Model      string
	BaseURL    string
	Dimension  int // 0 keeps the provider default
	CacheSize  int // 0 disables the embedding cache
	HTTPClient *http.Client
}

// New creates an embedder from explicit configuration. Missing credentials
// and unknown providers are configuration errors.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	var opts []Option
	if cfg.Model != "" {
		opts = append(opts, WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Dimension > 0 {
		opts = append(opts, WithDimension(cfg.Dimension))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(apiKeyOrEnv(cfg.APIKey, EnvOpenAIAPIKey), cache, opts...)
	case ProviderJina:
		return NewJinaProvider(apiKeyOrEnv(cfg.APIKey, EnvJinaAPIKey), cache, opts...)
	case ProviderLocal:
		return NewLocalProvider(cache, opts...)
	default:
		return nil, fmt.Errorf("%w: %w: unknown provider %s", types.ErrConfiguration, ErrUnsupportedModel, cfg.Provider)
	}
}

// DefaultDimension returns the vector length a provider produces without overrides
func DefaultDimension(provider string) int {
	switch strings.ToLower(provider) {
	case ProviderJina:
		return JinaDimension
	case ProviderLocal:
		return LocalDimension
	default:
		return OpenAIDimension
	}
}

func apiKeyOrEnv(key, env string) string {
	if key != "" {
		return key
	}
	return os.Getenv(env)
}
