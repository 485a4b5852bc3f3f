//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/gyojeong/pkg/utils"
)

// ONNXEmbedder runs a sentence-transformers model exported to ONNX (by default
// paraphrase-multilingual-MiniLM-L12-v2) and mean-pools its last hidden state.
// Requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *ort.AdvancedSession
	io        *onnxBuffers
	tokenizer Tokenizer
	dims      int
	seqLen    int
}

// onnxBuffers are the tensors bound to the session; Run reads and writes them in place.
type onnxBuffers struct {
	ids    *ort.Tensor[int64]
	mask   *ort.Tensor[int64]
	hidden *ort.Tensor[float32]
}

func newONNXBuffers(seqLen, dims int) (*onnxBuffers, error) {
	b := &onnxBuffers{}
	var err error
	shape := ort.NewShape(1, int64(seqLen))
	if b.ids, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if b.mask, err = ort.NewEmptyTensor[int64](shape); err != nil {
		b.destroy()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if b.hidden, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(dims))); err != nil {
		b.destroy()
		return nil, fmt.Errorf("last_hidden_state tensor: %w", err)
	}
	return b, nil
}

func (b *onnxBuffers) destroy() {
	if b.ids != nil {
		_ = b.ids.Destroy()
	}
	if b.mask != nil {
		_ = b.mask.Destroy()
	}
	if b.hidden != nil {
		_ = b.hidden.Destroy()
	}
	b.ids, b.mask, b.hidden = nil, nil, nil
}

// NewONNXEmbedder loads the model described by opts, initializing the onnxruntime
// environment on first use.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	opts = opts.withDefaults()
	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	io, err := newONNXBuffers(opts.MaxTokens, opts.Dimensions)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{io.ids, io.mask},
		[]ort.ArbitraryTensor{io.hidden},
		nil,
	)
	if err != nil {
		io.destroy()
		return nil, fmt.Errorf("failed to load ONNX model %s: %w", opts.ModelPath, err)
	}

	return &ONNXEmbedder{
		session:   session,
		io:        io,
		tokenizer: &SyllableTokenizer{},
		dims:      opts.Dimensions,
		seqLen:    opts.MaxTokens,
	}, nil
}

// Embed runs one forward pass; the session is not safe for concurrent Run calls.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, mask := e.tokenizer.Tokenize(text, e.seqLen)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("onnx embedder closed")
	}
	copy(e.io.ids.GetData(), ids)
	copy(e.io.mask.GetData(), mask)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	v := meanPool(e.io.hidden.GetData(), mask, e.dims)
	utils.NormalizeL2(v)
	return v, nil
}

func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

func (e *ONNXEmbedder) Dimensions() int { return e.dims }

// Close releases the session and its tensors. Safe to call twice.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.io.destroy()
	return err
}
