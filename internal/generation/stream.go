package generation

import (
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/gyojeong/internal/filter"
	"github.com/hyperjump/gyojeong/internal/llm"
)

// ReplyStream yields filtered reply chunks. Recv returns io.EOF after the last chunk; the
// stream cannot be restarted.
type ReplyStream struct {
	upstream llm.ChunkStream
	filter   *filter.Filter
	window   *filter.StreamFilter
	done     bool
}

// Recv returns the next non-empty filtered chunk.
func (r *ReplyStream) Recv() (string, error) {
	for !r.done {
		chunk, err := r.upstream.Recv()
		if errors.Is(err, io.EOF) {
			r.done = true
			if r.window != nil {
				if tail := r.window.Flush(); tail != "" {
					return tail, nil
				}
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: reply stream: %w", ErrGeneration, err)
		}
		if chunk == "" {
			continue
		}
		if r.window == nil {
			return r.filter.FilterText(chunk), nil
		}
		if out := r.window.Push(chunk); out != "" {
			return out, nil
		}
	}
	return "", io.EOF
}

// Close releases the upstream model stream.
func (r *ReplyStream) Close() error {
	return r.upstream.Close()
}
