package utils

import "math"

// Norm returns the Euclidean length of x, accumulated in float64.
func Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// NormalizeL2 scales x in place to unit length and returns the original norm.
// A zero vector is left as is.
func NormalizeL2(x []float32) float64 {
	n := Norm(x)
	if n == 0 {
		return 0
	}
	inv := 1 / n
	for i, v := range x {
		x[i] = float32(float64(v) * inv)
	}
	return n
}

// Normalized returns a unit-length copy of x; x itself is not modified.
func Normalized(x []float32) []float32 {
	out := make([]float32, len(x))
	copy(out, x)
	NormalizeL2(out)
	return out
}
