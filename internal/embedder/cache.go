package embedder

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps provider vectors in an LRU keyed by model and text.
// A nil *Cache is a valid cache that never hits.
type Cache struct {
	vectors *lru.Cache[[32]byte, []float32]
}

// NewCache creates a cache holding up to size vectors
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	vectors, err := lru.New[[32]byte, []float32](size)
	if err != nil {
		vectors, _ = lru.New[[32]byte, []float32](DefaultCacheSize)
	}
	return &Cache{vectors: vectors}
}

func cacheKey(model, text string) [32]byte {
	return sha256.Sum256([]byte(model + "\x00" + text))
}

// Get returns a copy of the cached vector
func (c *Cache) Get(model, text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	vec, ok := c.vectors.Get(cacheKey(model, text))
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vec...), true
}

// Add stores a copy of vec for text
func (c *Cache) Add(model, text string, vec []float32) {
	if c == nil {
		return
	}
	c.vectors.Add(cacheKey(model, text), append([]float32(nil), vec...))
}
