package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/embedding"
	"github.com/hyperjump/gyojeong/internal/models"
	"github.com/hyperjump/gyojeong/internal/vector"
	"github.com/hyperjump/gyojeong/pkg/utils"
)

const defaultBatchSize = 64

// ErrEmptyCorpus is returned when the corpus yields no usable pairs.
var ErrEmptyCorpus = errors.New("corpus has no usable (original_text, refined_text) rows")

// Builder embeds corpus originals and writes the retrieval artifacts.
type Builder struct {
	embedder  embedding.Embedder
	indexType string
	batchSize int
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithBatchSize sets how many sentences are embedded per EmbedBatch call.
func WithBatchSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// NewBuilder creates a builder. indexType is passed to vector.NewVectorIndex.
func NewBuilder(embedder embedding.Embedder, indexType string, opts ...BuilderOption) *Builder {
	b := &Builder{
		embedder:  embedder,
		indexType: indexType,
		batchSize: defaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	Count      int
	Dimensions int
	Artifacts  Artifacts
}

// BuildFile loads the corpus at corpusPath and builds artifacts into dst.
func (b *Builder) BuildFile(ctx context.Context, corpusPath string, dst Artifacts) (*BuildResult, error) {
	examples, err := Load(corpusPath)
	if err != nil {
		return nil, err
	}
	b.logger.Info("corpus loaded", zap.String("path", corpusPath), zap.Int("pairs", len(examples)))
	return b.Build(ctx, examples, dst)
}

// Build embeds each original sentence, L2-normalizes it, adds it at its corpus position and
// writes both artifacts. Files are staged next to their destinations and renamed into place
// only after both were written, so a failed build leaves the previous artifacts intact.
func (b *Builder) Build(ctx context.Context, examples []models.CorpusExample, dst Artifacts) (*BuildResult, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyCorpus
	}
	dims := b.embedder.Dimensions()
	idx, err := vector.NewVectorIndex(b.indexType, dims)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer idx.Close()

	for start := 0; start < len(examples); start += b.batchSize {
		end := start + b.batchSize
		if end > len(examples) {
			end = len(examples)
		}
		texts := make([]string, 0, end-start)
		for _, ex := range examples[start:end] {
			texts = append(texts, ex.Original)
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed corpus rows %d-%d: %w", start, end-1, err)
		}
		for i, v := range vecs {
			vecs[i] = utils.Normalized(v)
		}
		if err := idx.Add(ctx, vecs); err != nil {
			return nil, fmt.Errorf("index corpus rows %d-%d: %w", start, end-1, err)
		}
		b.logger.Debug("corpus batch embedded", zap.Int("done", end), zap.Int("total", len(examples)))
	}

	for _, p := range []string{dst.IndexPath, dst.TextsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	stagedIndex, stagedTexts := dst.IndexPath+".tmp", dst.TextsPath+".tmp"
	defer os.Remove(stagedIndex)
	defer os.Remove(stagedTexts)

	if err := idx.Save(stagedIndex); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	if err := writeTexts(stagedTexts, examples); err != nil {
		return nil, err
	}
	if err := os.Rename(stagedIndex, dst.IndexPath); err != nil {
		return nil, fmt.Errorf("install index: %w", err)
	}
	if err := os.Rename(stagedTexts, dst.TextsPath); err != nil {
		return nil, fmt.Errorf("install texts: %w", err)
	}

	b.logger.Info("index built",
		zap.Int("size", idx.Size()),
		zap.Int("dimensions", dims),
		zap.String("index", dst.IndexPath),
		zap.String("texts", dst.TextsPath),
	)
	return &BuildResult{Count: idx.Size(), Dimensions: dims, Artifacts: dst}, nil
}
