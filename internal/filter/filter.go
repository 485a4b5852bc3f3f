// Package filter implements the denylist content filter applied to user input and model output.
//
// Matching is a case-insensitive substring test with no word-boundary check, so a denylisted
// term inside a longer legitimate word is still redacted.
package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultTerms is the built-in denylist of Korean and English profanity.
var DefaultTerms = []string{
	"씨발", "병신", "개새끼", "미친놈", "미친년", "좆", "좁", "지랄", "닥쳐", "꺼져",
	"fuck", "shit", "damn", "bitch", "asshole",
}

// ApologyMessage is returned instead of a correction when the input is unsafe.
const ApologyMessage = "죄송합니다. 부적절한 내용이 포함되어 있어 교정할 수 없습니다."

type term struct {
	text string
	re   *regexp.Regexp
}

// Filter holds a fixed, ordered denylist. It is immutable and safe for concurrent use.
type Filter struct {
	terms      []term
	maxTermLen int
}

// New returns a filter over DefaultTerms followed by extra. Blank and duplicate terms are ignored.
func New(extra ...string) *Filter {
	f := &Filter{}
	seen := make(map[string]bool)
	for _, t := range append(append([]string{}, DefaultTerms...), extra...) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		f.terms = append(f.terms, term{text: t, re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(t))})
		if n := utf8.RuneCountInString(t); n > f.maxTermLen {
			f.maxTermLen = n
		}
	}
	return f
}

// IsSafe reports whether text contains no denylisted term.
func (f *Filter) IsSafe(text string) bool {
	for _, t := range f.terms {
		if t.re.MatchString(text) {
			return false
		}
	}
	return true
}

// FilterText replaces every occurrence of every term with '*' repeated to the rune length of
// the matched span. Terms are applied once each, in list order.
func (f *Filter) FilterText(text string) string {
	for _, t := range f.terms {
		text = t.re.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat("*", utf8.RuneCountInString(m))
		})
	}
	return text
}

// Terms returns a copy of the denylist in matching order.
func (f *Filter) Terms() []string {
	out := make([]string, len(f.terms))
	for i, t := range f.terms {
		out[i] = t.text
	}
	return out
}

// MaxTermLen returns the rune length of the longest term.
func (f *Filter) MaxTermLen() int {
	return f.maxTermLen
}
