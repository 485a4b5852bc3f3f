package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/gyojeong/internal/models"
)

// Artifact file names inside the index directory.
const (
	IndexFile = "faiss.index"
	TextsFile = "texts.json"
)

// Artifacts locates the two co-located files of a built index. Entry i of the texts file
// is the corpus pair of vector position i; the files are always written together.
type Artifacts struct {
	IndexPath string
	TextsPath string
}

// ArtifactsIn returns the artifact paths inside dir.
func ArtifactsIn(dir string) Artifacts {
	return Artifacts{
		IndexPath: filepath.Join(dir, IndexFile),
		TextsPath: filepath.Join(dir, TextsFile),
	}
}

// Exists reports whether both artifact files are present.
func (a Artifacts) Exists() bool {
	for _, p := range []string{a.IndexPath, a.TextsPath} {
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// ReadTexts reads the ordered corpus pairs.
func ReadTexts(path string) ([]models.CorpusExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texts: %w", err)
	}
	var examples []models.CorpusExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parse texts: %w", err)
	}
	return examples, nil
}

// writeTexts writes the ordered corpus pairs to path.
func writeTexts(path string, examples []models.CorpusExample) error {
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal texts: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write texts: %w", err)
	}
	return nil
}
