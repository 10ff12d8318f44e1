package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dshills/semsearch/internal/normalizer"
	"github.com/dshills/semsearch/internal/storage"
	"github.com/dshills/semsearch/pkg/types"
)

const (
	// DefaultLimit is the result count front ends ask for when the user gives none
	DefaultLimit = 5
	// MaxLimit bounds the limit front ends accept from remote callers
	MaxLimit = 100

	cacheSize = 1000
)

// Embedder turns query text into a vector of the store's dimension
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query    string
	Limit    int           // passed to the store unchanged; <= 0 yields no results
	UseCache bool          // Whether to use query cache
	CacheTTL time.Duration // entries older than this are ignored; 0 disables the cache
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs queries through normalize -> embed -> vector search
type Searcher struct {
	store    storage.VectorStore
	embedder Embedder
	logger   *zap.Logger
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.VectorStore, emb Embedder, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    store,
		embedder: emb,
		logger:   logger.Named("searcher"),
		cache:    cache,
	}
}

// Search returns up to req.Limit elements ranked by descending similarity to
// the query. A query that sanitizes to nothing embeds as the zero vector and
// matches every element with similarity 0.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if s.embedder == nil || s.store == nil {
		return nil, fmt.Errorf("%w: searcher not initialized", types.ErrConfiguration)
	}

	useCache := req.UseCache && req.CacheTTL > 0
	if useCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	vector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	hits, err := s.store.Search(ctx, vector, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = types.SearchResult{
			Element:        hit.Element,
			Rank:           i + 1,
			Similarity:     hit.Similarity,
			SearchableText: hit.SearchableText,
		}
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if useCache && len(results) > 0 {
		s.storeInCache(req, response)
	}

	s.logger.Debug("search completed",
		zap.String("query", req.Query),
		zap.Int("limit", req.Limit),
		zap.Int("results", len(results)),
		zap.Duration("duration", response.Duration))
	return response, nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req SearchRequest) (*SearchResponse, bool) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, false
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, true
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}
	// SearchResult holds only value fields
	copy(dst.Results, src.Results)

	return dst
}

// computeQueryHash keys the cache on the sanitized query, so queries that
// embed identically share an entry
func computeQueryHash(req SearchRequest) [32]byte {
	key := normalizer.SanitizeForEmbedding(req.Query) + "|" + strconv.Itoa(req.Limit)
	return sha256.Sum256([]byte(key))
}

// InvalidateCache drops every cached response. Called after the index changes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}
