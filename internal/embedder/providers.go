package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hashing"

	// Default endpoints
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Credentials
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// Limits
	MaxBatchSize     = 100
	DefaultCacheSize = 10000

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

type providerOptions struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	retry      RetryConfig
}

// Option customizes a provider
type Option func(*providerOptions)

// WithBaseURL overrides the API base URL (e.g. an OpenAI-compatible gateway)
func WithBaseURL(baseURL string) Option {
	return func(o *providerOptions) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithModel overrides the default model
func WithModel(model string) Option {
	return func(o *providerOptions) { o.model = model }
}

// WithDimension requests a specific output dimension
func WithDimension(dim int) Option {
	return func(o *providerOptions) { o.dimension = dim }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(o *providerOptions) { o.httpClient = client }
}

// WithRetryConfig replaces the retry policy
func WithRetryConfig(rc RetryConfig) Option {
	return func(o *providerOptions) { o.retry = rc }
}

func buildOptions(baseURL, model string, dim int, opts []Option) providerOptions {
	o := providerOptions{
		baseURL:   baseURL,
		model:     model,
		dimension: dim,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// APIProvider implements Embedder against an OpenAI-style /embeddings endpoint.
// OpenAI goes through the openai-go client; Jina AI shares the wire shape and
// is called over plain HTTP.
type APIProvider struct {
	name             string
	apiKey           string
	defaultDimension int
	opts             providerOptions
	cache            *Cache
	sdk              *openai.Client // nil for Jina
}

// NewOpenAIProvider creates an OpenAI embedder. A missing key is a configuration error.
func NewOpenAIProvider(apiKey string, cache *Cache, opts ...Option) (*APIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	o := buildOptions(DefaultOpenAIBaseURL, DefaultOpenAIModel, OpenAIDimension, opts)
	// retries are handled by retryWithBackoff
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(o.baseURL),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	)
	return &APIProvider{
		name:             ProviderOpenAI,
		apiKey:           apiKey,
		defaultDimension: OpenAIDimension,
		opts:             o,
		cache:            cache,
		sdk:              &client,
	}, nil
}

// NewJinaProvider creates a Jina AI embedder. A missing key is a configuration error.
func NewJinaProvider(apiKey string, cache *Cache, opts ...Option) (*APIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	return &APIProvider{
		name:             ProviderJina,
		apiKey:           apiKey,
		defaultDimension: JinaDimension,
		opts:             buildOptions(DefaultJinaBaseURL, DefaultJinaModel, JinaDimension, opts),
		cache:            cache,
	}, nil
}

func (p *APIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

// GenerateBatch answers cached texts locally and sends the rest in one request
func (p *APIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.opts.model
	}

	embeddings := make([]*Embedding, len(req.Texts))
	var missing []string
	var missingAt []int
	for i, text := range req.Texts {
		if vec, ok := p.cache.Get(model, text); ok {
			embeddings[i] = &Embedding{Vector: vec, Provider: p.name, Model: model}
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) > 0 {
		call := p.callAPI
		if p.sdk != nil {
			call = p.callSDK
		}
		fetched, attempts, err := retryWithBackoff(ctx, p.opts.retry, func() ([]*Embedding, error) {
			return call(ctx, missing, model)
		})
		if err != nil {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrProviderFailed, attempts, err)
		}
		for j, i := range missingAt {
			embeddings[i] = fetched[j]
			p.cache.Add(model, missing[j], fetched[j].Vector)
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Model:      model,
	}, nil
}

func (p *APIProvider) callSDK(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: model,
	}
	if p.opts.dimension != p.defaultDimension {
		params.Dimensions = openai.Int(int64(p.opts.dimension))
	}

	resp, err := p.sdk.Embeddings.New(ctx, params)
	if err != nil {
		var sdkErr *openai.Error
		if errors.As(err, &sdkErr) {
			return nil, &APIError{StatusCode: sdkErr.StatusCode, Body: sdkErr.Message}
		}
		return nil, fmt.Errorf("api call: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("malformed response: %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	embeddings := make([]*Embedding, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(texts) || embeddings[data.Index] != nil {
			return nil, fmt.Errorf("malformed response: bad embedding index %d", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = &Embedding{
			Vector:   vec,
			Provider: p.name,
			Model:    resp.Model,
		}
	}
	return embeddings, nil
}

func (p *APIProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": model,
	}
	if p.opts.dimension != p.defaultDimension {
		reqBody["dimensions"] = p.opts.dimension
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("malformed response: %d embeddings for %d inputs", len(apiResp.Data), len(texts))
	}

	embeddings := make([]*Embedding, len(texts))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(texts) || embeddings[data.Index] != nil {
			return nil, fmt.Errorf("malformed response: bad embedding index %d", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:   data.Embedding,
			Provider: p.name,
			Model:    apiResp.Model,
		}
	}

	return embeddings, nil
}

func (p *APIProvider) Dimension() int {
	return p.opts.dimension
}

func (p *APIProvider) Provider() string {
	return p.name
}

func (p *APIProvider) Model() string {
	return p.opts.model
}

func (p *APIProvider) Close() error {
	p.opts.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider embeds text offline by feature hashing its tokens.
// Texts that share words get similar vectors; identical texts get identical ones.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates an offline embedder
func NewLocalProvider(cache *Cache, opts ...Option) (*LocalProvider, error) {
	o := buildOptions("", DefaultLocalModel, LocalDimension, opts)
	if o.dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidInput)
	}
	return &LocalProvider{
		model:     o.model,
		dimension: o.dimension,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, ok := l.cache.Get(l.model, req.Text)
	if !ok {
		vec = hashingVector(req.Text, l.dimension)
		l.cache.Add(l.model, req.Text, vec)
	}

	return &Embedding{
		Vector:   vec,
		Provider: ProviderLocal,
		Model:    l.model,
	}, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// hashingVector maps each whitespace token to a signed bucket and returns the
// unit-length bucket histogram.
func hashingVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	for _, token := range strings.Fields(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(dim))
		if sum&(1<<63) != 0 {
			vector[bucket]--
		} else {
			vector[bucket]++
		}
	}
	return NormalizeVector(vector)
}

// NormalizeVector normalizes a vector to unit length
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
