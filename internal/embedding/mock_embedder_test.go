package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "학교에 가고싶어요")
	b, _ := e.Embed(ctx, "학교에 가고싶어요")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should produce same embedding")
		}
	}
	if math.Abs(dot(a, a)-1) > 1e-5 {
		t.Errorf("embedding not unit length: %f", dot(a, a))
	}
}

func TestMockEmbedder_Similarity(t *testing.T) {
	e := NewMockEmbedder(384)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "학교에 가고싶어요")
	spaced, _ := e.Embed(ctx, "학교에 가고 싶어요")
	other, _ := e.Embed(ctx, "오늘 날씨가 좋네요")

	if s := dot(q, spaced); s < 0.99 {
		t.Errorf("spacing variant similarity = %f, want ~1", s)
	}
	if dot(q, other) >= dot(q, spaced) {
		t.Error("unrelated sentence should score below near-duplicate")
	}
}

func TestMockEmbedder_EmptyAndCancelled(t *testing.T) {
	e := NewMockEmbedder(8)
	v, err := e.Embed(context.Background(), "   ")
	if err != nil || v[0] != 1 {
		t.Errorf("empty text: %v, %v", v, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.EmbedBatch(ctx, []string{"a"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestMockEmbedder_Dimensions(t *testing.T) {
	if NewMockEmbedder(0).Dimensions() != 384 {
		t.Error("default dimensions should be 384")
	}
}
