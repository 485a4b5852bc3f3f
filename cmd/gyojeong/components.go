package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/chat"
	"github.com/hyperjump/gyojeong/internal/config"
	"github.com/hyperjump/gyojeong/internal/corpus"
	"github.com/hyperjump/gyojeong/internal/embedding"
	"github.com/hyperjump/gyojeong/internal/filter"
	"github.com/hyperjump/gyojeong/internal/generation"
	"github.com/hyperjump/gyojeong/internal/history"
	"github.com/hyperjump/gyojeong/internal/llm"
	"github.com/hyperjump/gyojeong/internal/rag"
	"github.com/hyperjump/gyojeong/internal/vector"
)

// Components holds initialized dependencies. Fields a command does not need stay nil.
type Components struct {
	Embedder  embedding.Embedder
	Artifacts corpus.Artifacts
	Retriever *rag.Retriever
	Store     history.Store
	Chat      *chat.Service
}

// Close releases resources.
func (c *Components) Close() error {
	var errs []error
	if c.Retriever != nil {
		errs = append(errs, c.Retriever.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	return errors.Join(errs...)
}

func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	emb, _ := embedding.Resolve(embedding.ONNXOptions{
		ModelPath:   cfg.Embedding.ModelPath,
		LibraryPath: cfg.Embedding.RuntimeLibrary,
		Dimensions:  cfg.Embedding.Dimensions,
		MaxTokens:   cfg.Embedding.MaxTokens,
	}, cfg.Embedding.CacheSize, logger)
	return emb
}

// indexType resolves the configured index type, falling back to memory when FAISS is not
// compiled in.
func indexType(cfg *config.Config, logger *zap.Logger) string {
	t, err := vector.ParseIndexType(cfg.RAG.IndexType)
	if err != nil {
		logger.Warn("invalid index type, using memory index", zap.Error(err))
		return string(vector.IndexTypeMemory)
	}
	if !t.Available() {
		logger.Warn("FAISS not available in this build, falling back to memory index")
		return string(vector.IndexTypeMemory)
	}
	return string(t)
}

// initializeRetrieval sets up the embedder and retriever.
func initializeRetrieval(cfg *config.Config, logger *zap.Logger) *Components {
	emb := newEmbedder(cfg, logger)
	artifacts := corpus.ArtifactsIn(cfg.RAG.IndexDir)
	return &Components{
		Embedder:  emb,
		Artifacts: artifacts,
		Retriever: rag.NewRetriever(emb, indexType(cfg, logger), artifacts, rag.WithLogger(logger)),
	}
}

// initializeComponents sets up the full chat pipeline.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := initializeRetrieval(cfg, logger)

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}
	c.Store = store

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	genOpts := []generation.Option{
		generation.WithLogger(logger),
		generation.WithTopK(cfg.RAG.TopK),
		generation.WithStreamFilterWindow(cfg.Generation.StreamFilterWindow),
	}
	gs := generation.NewService(gen, c.Retriever, filter.New(cfg.Filter.ExtraTerms...), genOpts...)
	c.Chat = chat.NewService(gs, store, chat.WithLogger(logger), chat.WithMaxHistory(cfg.History.MaxEntries))

	logger.Info("components initialized",
		zap.String("history_backend", cfg.History.Backend),
		zap.String("index_type", cfg.RAG.IndexType),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()),
		zap.String("model", cfg.LLM.Model),
	)
	return c, nil
}

func newGenerator(cfg *config.Config, logger *zap.Logger) (llm.Generator, error) {
	var timeout time.Duration
	if cfg.LLM.Timeout != "" {
		d, err := time.ParseDuration(cfg.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout %q: %w", cfg.LLM.Timeout, err)
		}
		timeout = d
	}
	client, err := llm.NewOpenAIClient(llm.Options{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return client, nil
}
