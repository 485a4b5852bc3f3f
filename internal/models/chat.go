package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Style selects the phrasing register of corrections and replies.
type Style string

const (
	// StyleFormal is polite speech (존댓말). It is the default.
	StyleFormal Style = "formal"
	// StyleCasual is friendly, informal speech.
	StyleCasual Style = "casual"
)

// ParseStyle parses s into a Style. Empty input yields StyleFormal.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleFormal:
		return StyleFormal, nil
	case StyleCasual:
		return StyleCasual, nil
	default:
		return "", fmt.Errorf("unknown style: %q (supported: formal, casual)", s)
	}
}

// StyleOrDefault returns the parsed style, or StyleFormal when s is not a known style.
func StyleOrDefault(s string) Style {
	style, err := ParseStyle(s)
	if err != nil {
		return StyleFormal
	}
	return style
}

// TurnRequest is the input of one chat turn, shared by the HTTP and WebSocket transports.
type TurnRequest struct {
	Message   string  `json:"message" validate:"notblank"`
	Style     string  `json:"style,omitempty" validate:"omitempty,oneof=formal casual"`
	SessionID *string `json:"session_id,omitempty"`
}

// Session returns the caller-supplied session id, or "" when absent.
func (r *TurnRequest) Session() string {
	if r.SessionID == nil {
		return ""
	}
	return strings.TrimSpace(*r.SessionID)
}

// Validate checks that the message is not blank and the style, when given, is known.
func (r *TurnRequest) Validate() error {
	return chatValidate.Struct(r)
}

// TurnResponse is the result of a non-streaming chat turn.
type TurnResponse struct {
	RefinedText string `json:"refined_text"`
	ReplyText   string `json:"reply_text"`
	SessionID   string `json:"session_id"`
}

// EventType is the type of a streaming event.
type EventType string

const (
	EventRefined       EventType = "refined"
	EventReplyStart    EventType = "reply_start"
	EventReplyChunk    EventType = "reply_chunk"
	EventReplyComplete EventType = "reply_complete"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// StreamEvent is one message of a streaming turn.
type StreamEvent struct {
	Type      EventType `json:"type"`
	Content   string    `json:"content"`
	SessionID string    `json:"session_id"`
}
