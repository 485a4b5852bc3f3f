package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/gyojeong/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, maxEntries int) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps ":memory:" a single database and serializes append+trim.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, maxEntries: capOrDefault(maxEntries)}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		original_text TEXT NOT NULL,
		refined_text TEXT NOT NULL,
		reply_text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, created_at, id);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts entry and trims its session in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, entry *models.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_history (session_id, original_text, refined_text, reply_text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.SessionID, entry.OriginalText, entry.RefinedText, entry.ReplyText, createdAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %w", ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: insert id: %w", ErrPersistence, err)
	}
	if err := trimTx(ctx, tx, entry.SessionID, s.maxEntries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	entry.ID = id
	entry.CreatedAt = createdAt
	return nil
}

func trimTx(ctx context.Context, tx *sql.Tx, sessionID string, max int) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM chat_history
		 WHERE session_id = ? AND id NOT IN (
			SELECT id FROM chat_history WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		 )`,
		sessionID, sessionID, max,
	)
	if err != nil {
		return fmt.Errorf("%w: trim: %w", ErrPersistence, err)
	}
	return nil
}

// Trim deletes all but the max newest entries of the session.
func (s *SQLiteStore) Trim(ctx context.Context, sessionID string, max int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer tx.Rollback()
	if err := trimTx(ctx, tx, sessionID, capOrDefault(max)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, n int) ([]*models.HistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.query(ctx,
		`SELECT id, session_id, original_text, refined_text, reply_text, created_at FROM (
			SELECT * FROM chat_history WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		 ) ORDER BY created_at ASC, id ASC`,
		sessionID, n,
	)
}

// List returns every retained entry of the session, oldest first.
func (s *SQLiteStore) List(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error) {
	return s.query(ctx,
		`SELECT id, session_id, original_text, refined_text, reply_text, created_at
		 FROM chat_history WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...interface{}) ([]*models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.OriginalText, &e.RefinedText, &e.ReplyText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrPersistence, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrPersistence, err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
