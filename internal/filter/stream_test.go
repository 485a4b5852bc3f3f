package filter

import (
	"strings"
	"testing"
)

func TestStreamFilter_SplitTerm(t *testing.T) {
	f := New()
	chunks := []string{"정말 씨", "발 같은 날", "이네요"}

	// Independent per-chunk filtering misses the split term.
	var naive strings.Builder
	for _, c := range chunks {
		naive.WriteString(f.FilterText(c))
	}
	if f.IsSafe(naive.String()) {
		t.Fatal("expected per-chunk filtering to miss the split term")
	}

	sf := f.NewStreamFilter()
	var out strings.Builder
	for _, c := range chunks {
		out.WriteString(sf.Push(c))
	}
	out.WriteString(sf.Flush())

	want := "정말 ** 같은 날이네요"
	if out.String() != want {
		t.Errorf("windowed output = %q, want %q", out.String(), want)
	}
}

func TestStreamFilter_PreservesSafeText(t *testing.T) {
	f := New()
	sf := f.NewStreamFilter()
	text := "오늘은 날씨가 정말 좋네요. 산책하러 갈까요?"
	var out strings.Builder
	for _, r := range text {
		out.WriteString(sf.Push(string(r)))
	}
	out.WriteString(sf.Flush())
	if out.String() != text {
		t.Errorf("got %q, want %q", out.String(), text)
	}
}

func TestStreamFilter_HoldsBackShortChunks(t *testing.T) {
	f := New()
	sf := f.NewStreamFilter()
	if got := sf.Push("안녕"); got != "" {
		t.Errorf("chunk shorter than the window should be held back, got %q", got)
	}
	if got := sf.Flush(); got != "안녕" {
		t.Errorf("Flush() = %q", got)
	}
	if got := sf.Flush(); got != "" {
		t.Errorf("second Flush() = %q, want empty", got)
	}
}
