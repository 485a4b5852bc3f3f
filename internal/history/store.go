// Package history persists chat turns per session, keeping only the most recent entries.
package history

import (
	"context"
	"errors"

	"github.com/hyperjump/gyojeong/internal/models"
)

// ErrPersistence wraps every storage failure returned by a Store.
var ErrPersistence = errors.New("history persistence failed")

// DefaultMaxEntries is the per-session cap when none is configured.
const DefaultMaxEntries = 10

// Store is the per-session history repository. Implementations are safe for concurrent use.
type Store interface {
	// Append inserts entry, assigning ID and CreatedAt, and trims the session to the store's
	// cap in the same atomic step.
	Append(ctx context.Context, entry *models.HistoryEntry) error
	// Recent returns up to n of the newest entries of the session, oldest first.
	Recent(ctx context.Context, sessionID string, n int) ([]*models.HistoryEntry, error)
	// Trim deletes all but the max newest entries of the session.
	Trim(ctx context.Context, sessionID string, max int) error
	// List returns every retained entry of the session, oldest first.
	List(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error)
	Close() error
}

func capOrDefault(max int) int {
	if max <= 0 {
		return DefaultMaxEntries
	}
	return max
}
