package history

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/gyojeong/internal/config"
)

// Open creates the Store selected by cfg.Backend: "sqlite" (default), "postgres" or "memory".
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return NewSQLiteStore(cfg.DatabasePath, cfg.MaxEntries)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("history backend postgres requires postgres_dsn or DATABASE_URL")
		}
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.MaxEntries)
	case "memory":
		var ttl time.Duration
		if cfg.MemoryTTL != "" {
			d, err := time.ParseDuration(cfg.MemoryTTL)
			if err != nil {
				return nil, fmt.Errorf("invalid memory_ttl %q: %w", cfg.MemoryTTL, err)
			}
			ttl = d
		}
		return NewMemoryStore(cfg.MaxEntries, ttl), nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s (supported: sqlite, postgres, memory)", cfg.Backend)
	}
}
