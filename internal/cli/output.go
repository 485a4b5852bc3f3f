// Package cli provides output formatting for the gyojeong command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/gyojeong/internal/corpus"
	"github.com/hyperjump/gyojeong/internal/models"
	"github.com/hyperjump/gyojeong/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat parses s; empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteExamples writes retrieval results for query.
func WriteExamples(w io.Writer, query string, examples []models.RetrievedExample, format OutputFormat) error {
	if format == OutputJSON {
		if examples == nil {
			examples = []models.RetrievedExample{}
		}
		return writeJSON(w, map[string]interface{}{"query": query, "results": examples})
	}
	fmt.Fprintf(w, "테스트 쿼리: %s\n", query)
	if len(examples) == 0 {
		fmt.Fprintln(w, "검색 결과 없음")
		return nil
	}
	fmt.Fprintln(w, "검색 결과:")
	for i, ex := range examples {
		fmt.Fprintf(w, "%d. 유사도: %.3f\n", i+1, ex.Score)
		fmt.Fprintf(w, "   원문: %s\n", ex.Original)
		fmt.Fprintf(w, "   교정: %s\n\n", ex.Corrected)
	}
	return nil
}

// WriteBuildResult writes the summary of an index build.
func WriteBuildResult(w io.Writer, res *corpus.BuildResult, indexDir string) {
	fmt.Fprintln(w, "=== RAG 인덱스 빌드 완료 ===")
	fmt.Fprintf(w, "인덱스 크기: %d개\n", res.Count)
	fmt.Fprintf(w, "임베딩 차원: %d\n", res.Dimensions)
	fmt.Fprintf(w, "저장 위치: %s\n", indexDir)
}

// WriteTurn writes the result of one chat turn.
func WriteTurn(w io.Writer, resp *models.TurnResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "교정: %s\n", resp.RefinedText)
	fmt.Fprintf(w, "응답: %s\n", resp.ReplyText)
	fmt.Fprintf(w, "세션: %s\n", resp.SessionID)
	return nil
}

// WriteHistory writes the entries of a session, oldest first.
func WriteHistory(w io.Writer, sessionID string, entries []*models.HistoryEntry, format OutputFormat) error {
	if format == OutputJSON {
		if entries == nil {
			entries = []*models.HistoryEntry{}
		}
		return writeJSON(w, map[string]interface{}{"session_id": sessionID, "history": entries})
	}
	fmt.Fprintf(w, "세션 %s: %d개\n", sessionID, len(entries))
	for _, e := range entries {
		fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
		fmt.Fprintf(w, "[%s] #%d\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.ID)
		fmt.Fprintf(w, "원문: %s\n", e.OriginalText)
		fmt.Fprintf(w, "교정: %s\n", e.RefinedText)
		fmt.Fprintf(w, "응답: %s\n", utils.Truncate(e.ReplyText, 200))
	}
	return nil
}
