// Package rag retrieves similar corpus examples for a query sentence and renders them
// into the example block of the correction prompt.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/corpus"
	"github.com/hyperjump/gyojeong/internal/embedding"
	"github.com/hyperjump/gyojeong/internal/models"
	"github.com/hyperjump/gyojeong/internal/vector"
	"github.com/hyperjump/gyojeong/pkg/utils"
)

// ErrIndexUnavailable means the index artifacts are missing or unusable. Run build-index.
var ErrIndexUnavailable = errors.New("rag index unavailable")

// Retriever searches the example corpus. The index is loaded on first use and kept for the
// lifetime of the Retriever; it is safe for concurrent use.
type Retriever struct {
	embedder  embedding.Embedder
	indexType string
	artifacts corpus.Artifacts
	logger    *zap.Logger

	mu    sync.RWMutex
	index vector.VectorIndex
	texts []models.CorpusExample
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for load events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever over the artifacts built by corpus.Builder. embedder must
// be the model the index was built with.
func NewRetriever(embedder embedding.Embedder, indexType string, artifacts corpus.Artifacts, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		indexType: indexType,
		artifacts: artifacts,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureLoaded loads the index artifacts if they are not loaded yet. Failures are not
// cached: a later call retries, so building the index makes a running server ready.
func (r *Retriever) EnsureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.index != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil {
		return nil
	}
	idx, texts, err := r.load()
	if err != nil {
		return err
	}
	r.index, r.texts = idx, texts
	return nil
}

// Reload replaces the loaded index with the current artifacts. On error the previous index
// stays in use.
func (r *Retriever) Reload(ctx context.Context) error {
	idx, texts, err := r.load()
	if err != nil {
		return err
	}
	r.mu.Lock()
	old := r.index
	r.index, r.texts = idx, texts
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (r *Retriever) load() (vector.VectorIndex, []models.CorpusExample, error) {
	if !r.artifacts.Exists() {
		return nil, nil, fmt.Errorf("%w: %s or %s not found", ErrIndexUnavailable, r.artifacts.IndexPath, r.artifacts.TextsPath)
	}
	idx, err := vector.NewVectorIndex(r.indexType, r.embedder.Dimensions())
	if err != nil {
		return nil, nil, fmt.Errorf("create index: %w", err)
	}
	if err := idx.Load(r.artifacts.IndexPath); err != nil {
		_ = idx.Close()
		return nil, nil, fmt.Errorf("%w: load %s: %v", ErrIndexUnavailable, r.artifacts.IndexPath, err)
	}
	texts, err := corpus.ReadTexts(r.artifacts.TextsPath)
	if err != nil {
		_ = idx.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if idx.Size() != len(texts) {
		_ = idx.Close()
		return nil, nil, fmt.Errorf("%w: index has %d vectors but texts has %d entries; rebuild both together",
			ErrIndexUnavailable, idx.Size(), len(texts))
	}
	r.logger.Info("rag index loaded", zap.Int("size", idx.Size()), zap.String("path", r.artifacts.IndexPath))
	return idx, texts, nil
}

// Search returns up to k corpus examples most similar to query, by descending score.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]models.RetrievedExample, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := r.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	// Embedders may return cached slices.
	q := utils.Normalized(emb)

	r.mu.RLock()
	idx, texts := r.index, r.texts
	r.mu.RUnlock()

	hits, err := idx.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	results := make([]models.RetrievedExample, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(texts) {
			continue
		}
		ex := texts[h.Position]
		results = append(results, models.RetrievedExample{Original: ex.Original, Corrected: ex.Corrected, Score: h.Score})
	}
	return results, nil
}

// BuildExampleBlock renders the k nearest examples for the correction prompt. It returns ""
// when there are no examples; retrieval errors are returned to the caller.
func (r *Retriever) BuildExampleBlock(ctx context.Context, query string, k int) (string, error) {
	examples, err := r.Search(ctx, query, k)
	if err != nil {
		return "", err
	}
	return FormatExamples(examples), nil
}

// FormatExamples renders examples as numbered 원문/교정 pairs under a header, or "" for none.
func FormatExamples(examples []models.RetrievedExample) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("다음은 한국어 문장 교정 예시들입니다:\n\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "예시 %d:\n원문: %s\n교정: %s\n\n", i+1, ex.Original, ex.Corrected)
	}
	return b.String()
}

// Ready reports whether retrieval can serve queries: nil when the index is loaded or its
// artifacts exist, ErrIndexUnavailable otherwise.
func (r *Retriever) Ready() error {
	r.mu.RLock()
	loaded := r.index != nil
	r.mu.RUnlock()
	if loaded || r.artifacts.Exists() {
		return nil
	}
	return ErrIndexUnavailable
}

// Size returns the number of loaded corpus examples, or 0 before loading.
func (r *Retriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.texts)
}

// Close releases the loaded index.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		return nil
	}
	err := r.index.Close()
	r.index, r.texts = nil, nil
	return err
}
