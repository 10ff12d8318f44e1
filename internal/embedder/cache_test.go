package embedder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Run("get returns copy", func(t *testing.T) {
		cache := NewCache(10)
		vec := []float32{1, 2, 3}
		cache.Add("m", "def foo", vec)
		vec[1] = 42

		got, ok := cache.Get("m", "def foo")
		require.True(t, ok)
		assert.Equal(t, []float32{1, 2, 3}, got)

		got[0] = 99
		again, ok := cache.Get("m", "def foo")
		require.True(t, ok)
		assert.Equal(t, float32(1), again[0])
	})

	t.Run("keyed by model", func(t *testing.T) {
		cache := NewCache(10)
		cache.Add("small", "text", []float32{1})
		_, ok := cache.Get("large", "text")
		assert.False(t, ok)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		cache := NewCache(2)
		for i := 0; i < 3; i++ {
			cache.Add("m", fmt.Sprintf("k%d", i), []float32{float32(i)})
		}
		_, ok := cache.Get("m", "k0")
		assert.False(t, ok)
		_, ok = cache.Get("m", "k2")
		assert.True(t, ok)
	})

	t.Run("nil cache never hits", func(t *testing.T) {
		var cache *Cache
		cache.Add("m", "a", []float32{1})
		_, ok := cache.Get("m", "a")
		assert.False(t, ok)
	})
}
