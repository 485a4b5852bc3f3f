// Package corpus loads the (original, corrected) example corpus and builds the on-disk
// retrieval artifacts from it.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/gyojeong/internal/models"
)

// Column names of the corpus header row.
const (
	ColumnOriginal = "original_text"
	ColumnRefined  = "refined_text"
)

// ErrMissingColumns is returned when the header lacks original_text or refined_text.
var ErrMissingColumns = errors.New("corpus header must contain original_text and refined_text")

// Load reads corpus pairs from a .csv or .xlsx file. The first row (first sheet for XLSX)
// is the header. Rows with an empty original or corrected sentence are skipped.
func Load(path string) ([]models.CorpusExample, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open corpus: %w", err)
		}
		defer f.Close()
		return LoadCSV(f)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q (supported: .csv, .xlsx)", filepath.Ext(path))
	}
}

// LoadCSV reads corpus pairs from CSV data with a header row.
func LoadCSV(r io.Reader) ([]models.CorpusExample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows)
}

func loadXLSX(path string) ([]models.CorpusExample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]models.CorpusExample, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}
	origCol, refCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case ColumnOriginal:
			origCol = i
		case ColumnRefined:
			refCol = i
		}
	}
	if origCol < 0 || refCol < 0 {
		return nil, ErrMissingColumns
	}

	examples := make([]models.CorpusExample, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if origCol >= len(row) || refCol >= len(row) {
			continue
		}
		orig, ref := Normalize(row[origCol]), Normalize(row[refCol])
		if orig == "" || ref == "" {
			continue
		}
		examples = append(examples, models.CorpusExample{Original: orig, Corrected: ref})
	}
	return examples, nil
}

// Normalize trims text and collapses runs of whitespace to a single space.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
