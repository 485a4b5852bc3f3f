package llm

import (
	"context"
	"io"
	"sync"
)

// StubGenerator is a Generator that returns canned output, for tests and offline runs.
type StubGenerator struct {
	// Respond returns the completion for a prompt. When nil, Reply is returned.
	Respond func(prompt string) string
	Reply   string
	// Chunks are yielded by Stream in order. When empty, Stream yields Reply as one chunk.
	Chunks []string
	Err    error

	mu      sync.Mutex
	prompts []string
}

// Complete records prompt and returns the canned completion.
func (g *StubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.record(prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if g.Respond != nil {
		return g.Respond(prompt), nil
	}
	return g.Reply, nil
}

// Stream records prompt and yields the canned chunks.
func (g *StubGenerator) Stream(ctx context.Context, prompt string) (ChunkStream, error) {
	g.record(prompt)
	if g.Err != nil {
		return nil, g.Err
	}
	chunks := g.Chunks
	if len(chunks) == 0 {
		chunks = []string{g.Reply}
	}
	return &sliceStream{ctx: ctx, chunks: append([]string(nil), chunks...)}, nil
}

func (g *StubGenerator) record(prompt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
}

// Calls returns how many times the generator was invoked.
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompts returns the prompts received so far.
func (g *StubGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

type sliceStream struct {
	ctx    context.Context
	chunks []string
	closed bool
}

func (s *sliceStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.closed || len(s.chunks) == 0 {
		return "", io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
