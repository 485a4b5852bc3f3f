// Package vector provides the inner-product similarity index over corpus sentence embeddings.
// Vectors are addressed by insertion position: the i-th vector added is corpus entry i.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorIndex stores unit-length vectors and answers top-k inner product queries.
type VectorIndex interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Save(path string) error
	// Load replaces the contents with the index stored at path. A missing file is
	// reported as an error wrapping fs.ErrNotExist.
	Load(path string) error
	Size() int
	Dimensions() int
	Close() error
}

// Hit is a single search result: the position of the stored vector and its inner product with the query.
type Hit struct {
	Position int
	Score    float64
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}
