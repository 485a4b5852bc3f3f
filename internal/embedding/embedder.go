// Package embedding turns sentences into L2-normalized vectors for similarity search.
package embedding

import (
	"context"

	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text. Implementations return unit-length
// vectors so inner product equals cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ONNXOptions locates the sentence model and sizes its tensors.
type ONNXOptions struct {
	ModelPath string
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string
	Dimensions  int
	MaxTokens   int
}

func (o ONNXOptions) withDefaults() ONNXOptions {
	if o.Dimensions <= 0 {
		o.Dimensions = 384
	}
	if o.MaxTokens <= 2 {
		o.MaxTokens = 128
	}
	return o
}

// Resolve returns the cached ONNX embedder, or the hashed MockEmbedder when the model
// cannot be loaded. The boolean reports whether the ONNX model is in use. Index
// building and serving must go through the same resolution so their vectors agree.
func Resolve(opts ONNXOptions, cacheSize int, logger *zap.Logger) (Embedder, bool) {
	opts = opts.withDefaults()
	onnx, err := NewONNXEmbedder(opts)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using hashed fallback embedder",
			zap.String("model_path", opts.ModelPath), zap.Error(err))
		return NewMockEmbedder(opts.Dimensions), false
	}
	logger.Info("ONNX embedder loaded",
		zap.String("model_path", opts.ModelPath),
		zap.Int("dimensions", opts.Dimensions),
		zap.Int("cache_size", cacheSize))
	return WithCache(onnx, cacheSize), true
}

// embedEach runs embed over texts in order, stopping at the first error or cancellation.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
