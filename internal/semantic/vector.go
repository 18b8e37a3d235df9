package semantic

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b, a value
// in [-1, 1]. The vectors must have equal length. If either vector has zero
// magnitude the result is 0: degenerate vectors never match anything, they
// do not error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector lengths differ (%d vs %d)", ErrInvalidInput, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
