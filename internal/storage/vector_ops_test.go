package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, float32(math.Pi)}
	blob := serializeVector(vec)
	assert.Len(t, blob, 16)
	assert.Equal(t, vec, deserializeVector(blob))
	assert.Empty(t, deserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero a", []float32{0, 0}, []float32{1, 0}, 0},
		{"zero both", []float32{0, 0}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
			assert.InDelta(t, 1-tt.want, cosineDistance(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSimilarityFromDistance(t *testing.T) {
	assert.Equal(t, 1.0, similarityFromDistance(0))
	assert.Equal(t, 0.0, similarityFromDistance(math.NaN()))
	assert.Equal(t, -1.0, similarityFromDistance(2.0000001))
}

func TestTopK(t *testing.T) {
	candidates := []candidate{
		{id: 4, distance: 0.5},
		{id: 2, distance: 0.1},
		{id: 3, distance: 0.5},
		{id: 1, distance: 0.9},
	}

	got := topK(candidates, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 4}, []int64{got[0].id, got[1].id, got[2].id})

	assert.Len(t, topK([]candidate{{id: 1}}, 5), 1)
}

func TestVectorNorm(t *testing.T) {
	assert.InDelta(t, 5.0, vectorNorm([]float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, vectorNorm([]float32{0, 0, 0}))
}
