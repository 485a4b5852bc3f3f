package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
history:
  database_path: "chat.db"
  max_entries: 20
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.History.MaxEntries != 20 {
		t.Errorf("max_entries = %d, want 20", cfg.History.MaxEntries)
	}
	if cfg.History.DatabasePath != filepath.Join(dir, "chat.db") {
		t.Errorf("database_path = %s", cfg.History.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
rag:
  index_dir: "./data/faiss_index"
  corpus_path: "./data/fortraining.csv"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantIndex := filepath.Join(dir, "data", "faiss_index")
	if cfg.RAG.IndexDir != wantIndex {
		t.Errorf("index_dir = %s, want %s", cfg.RAG.IndexDir, wantIndex)
	}
	if cfg.RAG.CorpusPath != filepath.Join(dir, "data", "fortraining.csv") {
		t.Errorf("corpus_path = %s", cfg.RAG.CorpusPath)
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.History.MaxEntries != 10 {
		t.Errorf("default max_entries: got %d", cfg.History.MaxEntries)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("default top_k: got %d", cfg.RAG.TopK)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("default backend: got %s", cfg.History.Backend)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("default model: got %s", cfg.LLM.Model)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
}

func TestApplyDefaults_pinsFixedValues(t *testing.T) {
	cfg := &Config{
		History: HistoryConfig{ContextTurns: 50},
		LLM:     LLMConfig{Temperature: 1.5},
	}
	ApplyDefaults(cfg)
	if cfg.History.ContextTurns != DefaultContextTurns {
		t.Errorf("context_turns = %d, want %d", cfg.History.ContextTurns, DefaultContextTurns)
	}
	if cfg.LLM.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", cfg.LLM.Temperature, DefaultTemperature)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SERVER_PORT":      "9100",
		"OPENAI_API_KEY":   "sk-test",
		"OPENAI_MODEL":     "gpt-4o",
		"MAX_CHAT_HISTORY": "7",
		"RAG_INDEX_DIR":    "/srv/index",
		"GYOJEONG_DEBUG":   "true",
	}
	cfg := &Config{}
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.History.MaxEntries != 7 {
		t.Errorf("max_entries = %d", cfg.History.MaxEntries)
	}
	if cfg.RAG.IndexDir != "/srv/index" {
		t.Errorf("index_dir = %s", cfg.RAG.IndexDir)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
}

func TestApplyEnv_invalidNumber(t *testing.T) {
	cfg := &Config{}
	err := ApplyEnv(cfg, func(k string) string {
		if k == "SERVER_PORT" {
			return "eighty"
		}
		return ""
	})
	if err == nil {
		t.Error("expected error for non-numeric SERVER_PORT")
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("LoadDotEnv() = %v", err)
		}
	})
	t.Run("existing file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		if err := os.WriteFile(path, []byte("GYOJEONG_DOTENV_TEST=loaded\n"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Unsetenv("GYOJEONG_DOTENV_TEST") })
		if err := LoadDotEnv(path); err != nil {
			t.Fatal(err)
		}
		if os.Getenv("GYOJEONG_DOTENV_TEST") != "loaded" {
			t.Error("variable not loaded")
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		History: HistoryConfig{DatabasePath: "/tmp/chat.db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
