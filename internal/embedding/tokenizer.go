package embedding

import (
	"hash/fnv"
	"strings"
)

// Special token IDs of the XLM-R vocabulary used by the multilingual MiniLM models.
const (
	clsTokenID = 0 // <s>
	padTokenID = 1 // <pad>
	sepTokenID = 2 // </s>
	vocabSize  = 250002
	firstPiece = 3
)

// Tokenizer produces model inputs (input_ids, attention_mask) padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// SyllableTokenizer splits words into syllable pieces and maps each piece to a hashed ID in the
// model vocabulary range. Word-initial pieces carry the "▁" marker the way sentencepiece does,
// which keeps Korean spacing errors from changing every token of a sentence.
type SyllableTokenizer struct{}

// Tokenize produces padded token IDs up to maxTokens, framed by <s> and </s>.
func (t *SyllableTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens <= 2 {
		maxTokens = 128
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = padTokenID
	}

	inputIDs[0] = clsTokenID
	attentionMask[0] = 1
	pos := 1
	for _, piece := range Pieces(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = firstPiece + int64(TokenHash(piece)%(vocabSize-firstPiece))
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sepTokenID
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

// Pieces splits text on whitespace and each word into single-rune pieces, the first prefixed with "▁".
func Pieces(text string) []string {
	var pieces []string
	for _, word := range strings.Fields(text) {
		for i, r := range []rune(word) {
			if i == 0 {
				pieces = append(pieces, "▁"+string(r))
				continue
			}
			pieces = append(pieces, string(r))
		}
	}
	return pieces
}

// TokenHash returns a deterministic 32-bit FNV-1a hash of s.
func TokenHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
