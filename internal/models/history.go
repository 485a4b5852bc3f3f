package models

import "time"

// HistoryEntry is one persisted turn of a session.
type HistoryEntry struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	OriginalText string    `json:"original_text" db:"original_text"`
	RefinedText  string    `json:"refined_text" db:"refined_text"`
	ReplyText    string    `json:"reply_text" db:"reply_text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ContextTurn is the projection of a HistoryEntry that is injected into reply prompts.
type ContextTurn struct {
	RefinedText string `json:"refined_text"`
	ReplyText   string `json:"reply_text"`
}

// ContextTurns projects entries to ContextTurn, preserving order.
func ContextTurns(entries []*HistoryEntry) []ContextTurn {
	turns := make([]ContextTurn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, ContextTurn{RefinedText: e.RefinedText, ReplyText: e.ReplyText})
	}
	return turns
}
