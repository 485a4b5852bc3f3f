// Package config provides configuration loading and structs for the gyojeong server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	RAG        RAGConfig        `yaml:"rag"`
	History    HistoryConfig    `yaml:"history"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Filter     FilterConfig     `yaml:"filter"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EmbeddingConfig holds embedder settings. Model is the identifier recorded with the index;
// ModelPath is the ONNX export of that model.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	// RuntimeLibrary is the onnxruntime shared library; empty uses the platform default.
	RuntimeLibrary string `yaml:"runtime_library"`
}

// RAGConfig holds similarity index settings.
type RAGConfig struct {
	IndexDir   string `yaml:"index_dir"`
	IndexType  string `yaml:"index_type"` // memory or faiss
	CorpusPath string `yaml:"corpus_path"`
	TopK       int    `yaml:"top_k"`
}

// HistoryConfig holds chat history persistence settings.
type HistoryConfig struct {
	Backend      string `yaml:"backend"` // sqlite, postgres or memory
	DatabasePath string `yaml:"database_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`
	MaxEntries   int    `yaml:"max_entries"`
	// ContextTurns is the number of recent turns injected into reply prompts. Fixed at 5.
	ContextTurns int `yaml:"context_turns"`
	// MemoryTTL expires idle sessions of the memory backend (e.g. "1h"); empty keeps them forever.
	MemoryTTL string `yaml:"memory_ttl"`
}

// LLMConfig holds the chat completion client settings.
type LLMConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float32 `yaml:"temperature"` // fixed at 0.7
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GenerationConfig holds prompt and output settings.
type GenerationConfig struct {
	// StreamFilterWindow enables cross-chunk filtering of streamed replies.
	StreamFilterWindow bool `yaml:"stream_filter_window"`
}

// FilterConfig holds the content filter settings.
type FilterConfig struct {
	ExtraTerms []string `yaml:"extra_terms"`
}

// LogConfig holds logging output settings.
type LogConfig struct {
	File string `yaml:"file"`
}

// Load reads and parses the config file at path, applies environment overrides, expands paths,
// and applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	expandPaths(&cfg, filepath.Dir(path))

	return &cfg, nil
}

// FromEnv builds a config from defaults and environment variables only, with relative paths
// resolved against the working directory. Used when no config file exists.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	expandPaths(&cfg, cwd)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func expandPaths(cfg *Config, configDir string) {
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.RAG.IndexDir = expandPath(cfg.RAG.IndexDir, configDir)
	cfg.RAG.CorpusPath = expandPath(cfg.RAG.CorpusPath, configDir)
	if cfg.History.DatabasePath != ":memory:" {
		cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File, configDir)
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" paths are relative to the home directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
