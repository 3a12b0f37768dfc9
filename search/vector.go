package search

import "math"

// NormalizeVector returns v scaled to unit length. The chunk index scores by
// dot product, so stored chunks and queries both go through here. A zero
// vector comes back as zeros of the same length.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sumSquares == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sumSquares)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
