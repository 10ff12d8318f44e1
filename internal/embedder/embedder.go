package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/semsearch/internal/normalizer"
	"github.com/dshills/semsearch/pkg/types"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrEmptyText        = errors.New("text cannot be empty")
	ErrBatchTooLarge    = errors.New("batch size exceeds limit")

	// ErrProviderFailed is a provider error: the call was attempted and failed
	ErrProviderFailed = fmt.Errorf("%w: embedding provider failed", types.ErrProvider)
	// ErrNoProviderEnabled is a configuration error: no call can be attempted
	ErrNoProviderEnabled = fmt.Errorf("%w: no embedding provider configured", types.ErrConfiguration)
)

// Embedding is one provider result
type Embedding struct {
	Vector   []float32
	Provider string
	Model    string
}

// EmbeddingRequest asks for the embedding of one non-empty text
type EmbeddingRequest struct {
	Text  string
	Model string // empty uses the provider's model
}

// BatchEmbeddingRequest asks for up to MaxBatchSize embeddings in one call
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse holds one embedding per requested text, in request order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Model      string
}

// Embedder is an embedding provider. Providers see only sanitized,
// non-empty text; the Client guarantees that.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)
	Dimension() int
	Provider() string
	Model() string
	Close() error
}

// ValidateRequest rejects empty text
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty, oversized or partly empty batches
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(req.Texts) > MaxBatchSize {
		return fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// Client turns arbitrary text into a vector of the provider's dimension.
// Text is sanitized first; text that sanitizes to nothing yields a zero
// vector without calling the provider. Every vector it returns has exactly
// Dimension() elements.
type Client struct {
	provider  Embedder
	dimension int
	logger    *zap.Logger

	providerCalls atomic.Int64
	shortCircuits atomic.Int64
}

// NewClient wraps a provider
func NewClient(provider Embedder, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider:  provider,
		dimension: provider.Dimension(),
		logger:    logger.Named("embedder"),
	}
}

// Embed sanitizes text and returns its embedding.
// Provider failures wrap types.ErrProvider; context errors are returned as is.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	sanitized := normalizer.SanitizeForEmbedding(text)
	if sanitized == "" {
		c.shortCircuits.Add(1)
		return make([]float32, c.dimension), nil
	}

	c.providerCalls.Add(1)
	emb, err := c.provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: sanitized})
	if err != nil {
		return nil, classify(err)
	}
	return c.checked(emb)
}

// EmbedBatch embeds texts with one provider call per MaxBatchSize texts.
// Result i belongs to texts[i]. Texts that sanitize to nothing get zero
// vectors and are not sent. A failed call fails the whole batch.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	sanitized := make([]string, len(texts))
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		sanitized[i] = normalizer.SanitizeForEmbedding(text)
		if sanitized[i] == "" {
			c.shortCircuits.Add(1)
			vectors[i] = make([]float32, c.dimension)
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += MaxBatchSize {
		chunk := pending[start:min(start+MaxBatchSize, len(pending))]
		batch := make([]string, len(chunk))
		for j, i := range chunk {
			batch[j] = sanitized[i]
		}

		c.providerCalls.Add(int64(len(batch)))
		resp, err := c.provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: batch})
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: %d embeddings for %d texts", ErrProviderFailed, len(resp.Embeddings), len(batch))
		}
		for j, i := range chunk {
			vec, err := c.checked(resp.Embeddings[j])
			if err != nil {
				return nil, err
			}
			vectors[i] = vec
		}
	}
	return vectors, nil
}

// classify keeps categorized and context errors and marks the rest as provider errors
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, types.ErrProvider), errors.Is(err, types.ErrConfiguration):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
}

func (c *Client) checked(emb *Embedding) ([]float32, error) {
	if emb == nil {
		return nil, fmt.Errorf("%w: missing embedding", ErrProviderFailed)
	}
	if len(emb.Vector) != c.dimension {
		c.logger.Warn("provider returned wrong dimension",
			zap.String("provider", c.provider.Provider()),
			zap.Int("expected", c.dimension),
			zap.Int("got", len(emb.Vector)))
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrProviderFailed, c.dimension, len(emb.Vector))
	}
	return emb.Vector, nil
}

// Dimension returns the vector length every result has
func (c *Client) Dimension() int {
	return c.dimension
}

// Provider returns the wrapped provider
func (c *Client) Provider() Embedder {
	return c.provider
}

// ProviderCalls returns how many texts were sent to the provider
func (c *Client) ProviderCalls() int64 {
	return c.providerCalls.Load()
}

// ShortCircuits returns how many texts were answered with a zero vector
func (c *Client) ShortCircuits() int64 {
	return c.shortCircuits.Load()
}

// Close closes the wrapped provider
func (c *Client) Close() error {
	return c.provider.Close()
}
