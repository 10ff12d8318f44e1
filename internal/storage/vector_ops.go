package storage

import (
	"encoding/binary"
	"math"
	"sort"
)

// candidate represents a record id with its distance to the query
type candidate struct {
	id       int64
	distance float64
}

// topK sorts candidates by ascending distance, ties by ascending id, and keeps k
func topK(candidates []candidate, k int) []candidate {
	sortCandidates(candidates)
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// sortCandidates orders by distance then id
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].id < candidates[j].id
	})
}

// serializeVector converts a float32 slice to a little-endian byte blob,
// the layout sqlite-vec reads
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// vectorNorm returns the Euclidean length of v
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Zero-norm or mismatched vectors have similarity 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// cosineDistance is 1 - cosineSimilarity
func cosineDistance(a, b []float32) float64 {
	return 1 - cosineSimilarity(a, b)
}

// similarityFromDistance converts a backend distance to a similarity in [-1, 1].
// NaN (a zero-norm operand in pgvector) maps to 0.
func similarityFromDistance(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	return math.Max(-1, math.Min(1, 1-distance))
}
