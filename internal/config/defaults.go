package config

const (
	// DefaultContextTurns is the number of history turns injected as reply context.
	DefaultContextTurns = 5
	// DefaultTemperature is the sampling temperature of every LLM call.
	DefaultTemperature = 0.7
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./data/models/paraphrase-multilingual-MiniLM-L12-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.RAG.IndexDir == "" {
		cfg.RAG.IndexDir = "./data/faiss_index"
	}
	if cfg.RAG.IndexType == "" {
		cfg.RAG.IndexType = "memory"
	}
	if cfg.RAG.CorpusPath == "" {
		cfg.RAG.CorpusPath = "./data/fortraining.csv"
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "sqlite"
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = "./data/chat.db"
	}
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = 10
	}
	// Not configurable; pinned so a config file cannot change the reply context size.
	cfg.History.ContextTurns = DefaultContextTurns
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	cfg.LLM.Temperature = DefaultTemperature
}
