// Package models defines core data structures for corpus examples, chat turns, and history.
package models

// CorpusExample is one (original, corrected) sentence pair of the example corpus.
// Its identity is its position in the similarity index.
type CorpusExample struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// RetrievedExample is a corpus example returned by a similarity search.
type RetrievedExample struct {
	Original  string  `json:"original"`
	Corrected string  `json:"corrected"`
	Score     float64 `json:"score"` // inner product of normalized vectors, in [-1, 1]
}
