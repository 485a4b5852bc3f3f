package filter

// StreamFilter filters a chunked stream while holding back the last MaxTermLen()-1 runes of
// each chunk, so a term split across two chunks is still redacted. Output is delayed by at
// most that many runes; Flush releases the remainder at end of stream.
//
// A StreamFilter is not safe for concurrent use.
type StreamFilter struct {
	f      *Filter
	window int
	carry  []rune
}

// NewStreamFilter returns a windowed filter for one stream.
func (f *Filter) NewStreamFilter() *StreamFilter {
	w := f.maxTermLen - 1
	if w < 0 {
		w = 0
	}
	return &StreamFilter{f: f, window: w}
}

// Push filters chunk together with the held-back tail and returns the text that is safe to emit.
// The result may be empty.
func (s *StreamFilter) Push(chunk string) string {
	// Redaction keeps the rune count, so positions in the filtered text line up with the input.
	filtered := []rune(s.f.FilterText(string(s.carry) + chunk))
	if len(filtered) <= s.window {
		s.carry = filtered
		return ""
	}
	cut := len(filtered) - s.window
	s.carry = append([]rune(nil), filtered[cut:]...)
	return string(filtered[:cut])
}

// Flush returns the held-back tail and resets the filter.
func (s *StreamFilter) Flush() string {
	out := s.f.FilterText(string(s.carry))
	s.carry = nil
	return out
}
