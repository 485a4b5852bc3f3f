package history

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hyperjump/gyojeong/internal/models"
)

// MemoryStore keeps history in process memory. Sessions idle for longer than the TTL are
// dropped; history does not survive a restart.
type MemoryStore struct {
	cache      *cache.Cache
	maxEntries int

	mu     sync.Mutex
	nextID int64
}

// NewMemoryStore creates an in-memory store. ttl <= 0 keeps sessions forever.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	exp, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		exp, cleanup = ttl, ttl/6
	}
	return &MemoryStore{cache: cache.New(exp, cleanup), maxEntries: capOrDefault(maxEntries)}
}

func (s *MemoryStore) session(sessionID string) []*models.HistoryEntry {
	if x, found := s.cache.Get(sessionID); found {
		return x.([]*models.HistoryEntry)
	}
	return nil
}

// Append inserts entry and trims its session.
func (s *MemoryStore) Append(ctx context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	entry.CreatedAt = time.Now().UTC()

	stored := *entry
	entries := append(s.session(entry.SessionID), &stored)
	s.cache.Set(entry.SessionID, keepNewest(entries, s.maxEntries), cache.DefaultExpiration)
	return nil
}

// Trim deletes all but the max newest entries of the session.
func (s *MemoryStore) Trim(ctx context.Context, sessionID string, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entries := s.session(sessionID); entries != nil {
		s.cache.Set(sessionID, keepNewest(entries, capOrDefault(max)), cache.DefaultExpiration)
	}
	return nil
}

// keepNewest returns a fresh slice holding the last max entries.
func keepNewest(entries []*models.HistoryEntry, max int) []*models.HistoryEntry {
	if len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	return append([]*models.HistoryEntry(nil), entries...)
}

// Recent returns up to n of the newest entries, oldest first.
func (s *MemoryStore) Recent(ctx context.Context, sessionID string, n int) ([]*models.HistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntries(keepNewest(s.session(sessionID), n)), nil
}

// List returns every retained entry of the session, oldest first.
func (s *MemoryStore) List(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntries(s.session(sessionID)), nil
}

func copyEntries(entries []*models.HistoryEntry) []*models.HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]*models.HistoryEntry, len(entries))
	for i, e := range entries {
		c := *e
		out[i] = &c
	}
	return out
}

// Close drops all sessions.
func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
