package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given .env files (default ".env") into the process
// environment. Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables recognized by the server.
// getenv is usually os.Getenv; tests pass a map lookup.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if v := strings.TrimSpace(getenv("GYOJEONG_DEBUG")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GYOJEONG_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	str("SERVER_HOST", &cfg.Server.Host)
	if err := num("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	str("EMBED_MODEL", &cfg.Embedding.Model)
	str("EMBED_MODEL_PATH", &cfg.Embedding.ModelPath)
	str("ONNXRUNTIME_LIB", &cfg.Embedding.RuntimeLibrary)
	str("RAG_INDEX_DIR", &cfg.RAG.IndexDir)
	str("RAG_INDEX_TYPE", &cfg.RAG.IndexType)
	str("RAG_CORPUS_PATH", &cfg.RAG.CorpusPath)
	str("HISTORY_BACKEND", &cfg.History.Backend)
	str("DATABASE_PATH", &cfg.History.DatabasePath)
	str("DATABASE_URL", &cfg.History.PostgresDSN)
	if err := num("MAX_CHAT_HISTORY", &cfg.History.MaxEntries); err != nil {
		return err
	}
	str("OPENAI_API_KEY", &cfg.LLM.APIKey)
	str("OPENAI_BASE_URL", &cfg.LLM.BaseURL)
	str("OPENAI_MODEL", &cfg.LLM.Model)
	str("LOG_FILE", &cfg.Log.File)
	return nil
}

