// Package generation turns user sentences into corrections and conversational replies by
// prompting the LLM with retrieved examples and recent history.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/filter"
	"github.com/hyperjump/gyojeong/internal/llm"
	"github.com/hyperjump/gyojeong/internal/models"
)

// ErrGeneration wraps every LLM failure. Calls are not retried.
var ErrGeneration = errors.New("generation failed")

// DefaultTopK is the number of retrieved examples placed in a correction prompt.
const DefaultTopK = 3

// ExampleSource renders retrieved correction examples for a query.
type ExampleSource interface {
	BuildExampleBlock(ctx context.Context, query string, k int) (string, error)
}

// Correction is the outcome of Correct. Rejected is set when the input failed the content
// filter; Text is then the apology and no model call was made.
type Correction struct {
	Text     string
	Rejected bool
}

// Service generates corrections and replies.
type Service struct {
	gen          llm.Generator
	examples     ExampleSource
	filter       *filter.Filter
	topK         int
	streamWindow bool
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTopK sets how many examples are retrieved per correction.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithStreamFilterWindow makes StreamReply filter across chunk boundaries instead of
// filtering each chunk on its own.
func WithStreamFilterWindow(on bool) Option {
	return func(s *Service) { s.streamWindow = on }
}

// NewService creates a Service. A nil filter uses the default denylist.
func NewService(gen llm.Generator, examples ExampleSource, f *filter.Filter, opts ...Option) *Service {
	s := &Service{
		gen:      gen,
		examples: examples,
		filter:   f,
		topK:     DefaultTopK,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.filter == nil {
		s.filter = filter.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Filter returns the content filter in use.
func (s *Service) Filter() *filter.Filter {
	return s.filter
}

// Correct rewrites text into natural Korean in the requested style.
func (s *Service) Correct(ctx context.Context, text string, style models.Style) (Correction, error) {
	if !s.filter.IsSafe(text) {
		s.logger.Info("input rejected by content filter")
		return Correction{Text: filter.ApologyMessage, Rejected: true}, nil
	}

	examples, err := s.examples.BuildExampleBlock(ctx, text, s.topK)
	if err != nil {
		return Correction{}, fmt.Errorf("retrieve examples: %w", err)
	}

	start := time.Now()
	out, err := s.gen.Complete(ctx, CorrectionPrompt(text, examples, style))
	if err != nil {
		return Correction{}, fmt.Errorf("%w: correction: %w", ErrGeneration, err)
	}
	s.logger.Debug("correction generated",
		zap.Bool("with_examples", examples != ""),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Correction{Text: s.clean(out)}, nil
}

// Reply generates the conversational answer to the corrected sentence.
func (s *Service) Reply(ctx context.Context, corrected string, style models.Style, history []models.ContextTurn) (string, error) {
	out, err := s.gen.Complete(ctx, ReplyPrompt(corrected, style, history))
	if err != nil {
		return "", fmt.Errorf("%w: reply: %w", ErrGeneration, err)
	}
	return s.clean(out), nil
}

// StreamReply is Reply in streaming mode. The caller must Close the returned stream.
func (s *Service) StreamReply(ctx context.Context, corrected string, style models.Style, history []models.ContextTurn) (*ReplyStream, error) {
	upstream, err := s.gen.Stream(ctx, ReplyPrompt(corrected, style, history))
	if err != nil {
		return nil, fmt.Errorf("%w: reply stream: %w", ErrGeneration, err)
	}
	rs := &ReplyStream{upstream: upstream, filter: s.filter}
	if s.streamWindow {
		rs.window = s.filter.NewStreamFilter()
	}
	return rs, nil
}

func (s *Service) clean(out string) string {
	out = strings.TrimSpace(out)
	if !s.filter.IsSafe(out) {
		out = s.filter.FilterText(out)
	}
	return out
}
