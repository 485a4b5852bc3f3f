package embedding

import (
	"container/list"
	"context"
	"sync"
)

// CacheStats reports lookups served by a CachedEmbedder.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// CachedEmbedder memoizes the embeddings of a wrapped Embedder, keeping the most
// recently used sentences. Returned slices are copies and may be modified by callers.
type CachedEmbedder struct {
	Embedder

	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front is most recent
	hits     uint64
	misses   uint64
}

type cachedVector struct {
	text string
	vec  []float32
}

// WithCache wraps e in an LRU cache holding up to capacity sentences (minimum 1).
func WithCache(e Embedder, capacity int) *CachedEmbedder {
	if capacity < 1 {
		capacity = 1
	}
	return &CachedEmbedder{
		Embedder: e,
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Embed returns the cached vector for text or computes and stores it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(text); ok {
		return vec, nil
	}
	vec, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(text, vec)
	return clone(vec), nil
}

// EmbedBatch embeds texts one by one so each sentence goes through the cache.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, c.Embed)
}

// Stats returns the hit and miss counters.
func (c *CachedEmbedder) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.order.Len()}
}

func (c *CachedEmbedder) lookup(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[text]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return clone(el.Value.(*cachedVector).vec), true
}

func (c *CachedEmbedder) store(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[text]; ok {
		el.Value.(*cachedVector).vec = clone(vec)
		c.order.MoveToFront(el)
		return
	}
	c.items[text] = c.order.PushFront(&cachedVector{text: text, vec: clone(vec)})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*cachedVector).text)
	}
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
