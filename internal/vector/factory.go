package vector

import (
	"fmt"
	"strings"
)

// IndexType names a VectorIndex implementation.
type IndexType string

const (
	// IndexTypeMemory is exact brute-force search held in process memory.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS is a FAISS IndexFlatIP; needs -tags=faiss and libfaiss_c.
	IndexTypeFAISS IndexType = "faiss"
)

// ParseIndexType normalizes s; the empty string selects the memory index.
func ParseIndexType(s string) (IndexType, error) {
	switch t := IndexType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return IndexTypeMemory, nil
	case IndexTypeMemory, IndexTypeFAISS:
		return t, nil
	default:
		return "", fmt.Errorf("unknown index type %q (supported: memory, faiss)", s)
	}
}

// Available reports whether indexes of type t can be created by this binary.
func (t IndexType) Available() bool {
	return t != IndexTypeFAISS || faissCompiled
}

// NewVectorIndex creates an empty index of the given type.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	t, err := ParseIndexType(indexType)
	if err != nil {
		return nil, err
	}
	if t == IndexTypeFAISS {
		return NewFAISSIndex(dimensions)
	}
	return NewMemoryIndex(dimensions)
}

// IsFAISSAvailable reports whether FAISS support is compiled in.
func IsFAISSAvailable() bool { return faissCompiled }
