package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperjump/gyojeong/internal/models"
)

// PostgresStore implements Store on PostgreSQL through a pgx connection pool.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxEntries int
}

// NewPostgresStore connects to dsn, verifies the connection and creates the schema.
func NewPostgresStore(ctx context.Context, dsn string, maxEntries int) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS chat_history (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		original_text TEXT NOT NULL,
		refined_text TEXT NOT NULL,
		reply_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, created_at, id);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool, maxEntries: capOrDefault(maxEntries)}, nil
}

// Append inserts entry and trims its session in one transaction. A transaction-scoped
// advisory lock on the session id serializes concurrent appends to the same session.
func (s *PostgresStore) Append(ctx context.Context, entry *models.HistoryEntry) error {
	return s.inSessionTx(ctx, entry.SessionID, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO chat_history (session_id, original_text, refined_text, reply_text)
			 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
			entry.SessionID, entry.OriginalText, entry.RefinedText, entry.ReplyText,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("%w: insert: %w", ErrPersistence, err)
		}
		return trimPg(ctx, tx, entry.SessionID, s.maxEntries)
	})
}

// Trim deletes all but the max newest entries of the session.
func (s *PostgresStore) Trim(ctx context.Context, sessionID string, max int) error {
	return s.inSessionTx(ctx, sessionID, func(tx pgx.Tx) error {
		return trimPg(ctx, tx, sessionID, capOrDefault(max))
	})
}

func (s *PostgresStore) inSessionTx(ctx context.Context, sessionID string, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return fmt.Errorf("%w: lock session: %w", ErrPersistence, err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

func trimPg(ctx context.Context, tx pgx.Tx, sessionID string, max int) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM chat_history
		 WHERE session_id = $1 AND id NOT IN (
			SELECT id FROM chat_history WHERE session_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2
		 )`,
		sessionID, max,
	)
	if err != nil {
		return fmt.Errorf("%w: trim: %w", ErrPersistence, err)
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (s *PostgresStore) Recent(ctx context.Context, sessionID string, n int) ([]*models.HistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.query(ctx,
		`SELECT id, session_id, original_text, refined_text, reply_text, created_at FROM (
			SELECT * FROM chat_history WHERE session_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2
		 ) recent ORDER BY created_at ASC, id ASC`,
		sessionID, n,
	)
}

// List returns every retained entry of the session, oldest first.
func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error) {
	return s.query(ctx,
		`SELECT id, session_id, original_text, refined_text, reply_text, created_at
		 FROM chat_history WHERE session_id = $1 ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]*models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrPersistence, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.HistoryEntry, error) {
		var e models.HistoryEntry
		err := row.Scan(&e.ID, &e.SessionID, &e.OriginalText, &e.RefinedText, &e.ReplyText, &e.CreatedAt)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %w", ErrPersistence, err)
	}
	return entries, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
