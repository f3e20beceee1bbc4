// Package embeddings provides vector math for embedding vectors.
package embeddings

import "math"

// cosineEpsilon keeps the denominator non-zero when either vector is all zeros.
const cosineEpsilon = 1e-12

// Norm returns the Euclidean length of v, accumulated in float64.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}

// NormalizeL2 scales v in place to unit length. A zero vector is left unchanged.
func NormalizeL2(v []float32) {
	n := Norm(v)
	if n == 0 {
		return
	}

	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
}

// Cosine returns dot(a, b) / (|a| * |b| + 1e-12), accumulated in float64.
// The result lies in [-1, 1]; an all-zero vector yields 0.
// Vectors of different length yield 0: callers must check dimensionality first.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return dot / (Norm(a)*Norm(b) + cosineEpsilon)
}
