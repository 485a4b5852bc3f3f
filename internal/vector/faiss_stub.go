//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

const faissCompiled = false

var errNoFAISS = errors.New("FAISS not available: build with -tags=faiss and install the FAISS library")

// FAISSIndex is a stub used when FAISS support is not compiled in.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	return nil, errNoFAISS
}

func (f *FAISSIndex) Add(context.Context, [][]float32) error { return errNoFAISS }

func (f *FAISSIndex) Search(context.Context, []float32, int) ([]Hit, error) {
	return nil, errNoFAISS
}

func (f *FAISSIndex) Save(string) error { return errNoFAISS }

func (f *FAISSIndex) Load(string) error { return errNoFAISS }

func (f *FAISSIndex) Size() int { return 0 }

func (f *FAISSIndex) Dimensions() int { return 0 }

func (f *FAISSIndex) Close() error { return nil }
