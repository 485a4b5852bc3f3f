// Package llm is the chat-completion client used for corrections and replies.
package llm

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when the client is created without an API key.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

// Generator sends a single prompt to the model.
type Generator interface {
	// Complete returns the full completion text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Stream returns the completion incrementally.
	Stream(ctx context.Context, prompt string) (ChunkStream, error)
}

// ChunkStream yields completion text deltas. Recv returns io.EOF after the last chunk.
type ChunkStream interface {
	Recv() (string, error)
	Close() error
}
