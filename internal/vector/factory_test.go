package vector

import (
	"context"
	"testing"
)

func TestParseIndexType(t *testing.T) {
	tests := []struct {
		in      string
		want    IndexType
		wantErr bool
	}{
		{"", IndexTypeMemory, false},
		{"memory", IndexTypeMemory, false},
		{" FAISS ", IndexTypeFAISS, false},
		{"annoy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseIndexType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseIndexType(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestIndexType_Available(t *testing.T) {
	if !IndexTypeMemory.Available() {
		t.Error("memory index must always be available")
	}
	if IndexTypeFAISS.Available() != IsFAISSAvailable() {
		t.Error("faiss availability disagrees with IsFAISSAvailable")
	}
}

func TestNewVectorIndex_memory(t *testing.T) {
	if _, err := NewVectorIndex("memory", 0); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewVectorIndex("annoy", 3); err == nil {
		t.Error("expected error for unknown type")
	}
	idx, err := NewVectorIndex("", 3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, ok := idx.(*MemoryIndex); !ok {
		t.Fatalf("got %T, want *MemoryIndex", idx)
	}
	if err := idx.Add(context.Background(), [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 || idx.Dimensions() != 3 {
		t.Errorf("Size=%d Dimensions=%d", idx.Size(), idx.Dimensions())
	}
}

func TestNewVectorIndex_faiss(t *testing.T) {
	idx, err := NewVectorIndex("faiss", 3)
	if !IsFAISSAvailable() {
		if err == nil {
			t.Fatal("expected error without FAISS support")
		}
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Add(context.Background(), [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size=%d, want 1", idx.Size())
	}
}
