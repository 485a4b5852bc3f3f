package embedding

import (
	"context"
	"strings"
	"unicode"

	"github.com/hyperjump/gyojeong/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and for running without a model.
// It hashes character unigrams and bigrams (whitespace ignored) into a fixed-dimension
// vector, so sentences that differ only in spacing embed identically and sentences
// sharing most syllables score close to each other.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic unit-length embedding for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)

	runes := []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text))

	add := func(feature string, weight float32) {
		h := TokenHash(feature)
		sign := float32(1)
		if h&1 == 1 {
			sign = -1
		}
		emb[int(h>>1)%e.dimensions] += sign * weight
	}
	for i, r := range runes {
		add(string(r), 1)
		if i+1 < len(runes) {
			add(string(runes[i:i+2]), 2)
		}
	}
	if len(runes) == 0 {
		emb[0] = 1
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
