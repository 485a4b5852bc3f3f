// Package chat orchestrates a chat turn: correct the message, reply to it, and record the
// exchange in the session history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/generation"
	"github.com/hyperjump/gyojeong/internal/history"
	"github.com/hyperjump/gyojeong/internal/models"
)

const (
	// EmptyMessage is the error content sent for a blank message.
	EmptyMessage = "메시지가 비어있습니다."
	// DoneMessage is the content of the final event of a streaming turn.
	DoneMessage = "완료"
)

var (
	// ErrMalformedRequest is returned for a request without a usable message.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrEmit is returned by StreamTurn when an event could not be delivered.
	ErrEmit = errors.New("event delivery failed")
)

// TurnError is a failed turn together with the session it belonged to.
type TurnError struct {
	SessionID string
	Err       error
}

func (e *TurnError) Error() string { return e.Err.Error() }

func (e *TurnError) Unwrap() error { return e.Err }

// Service runs chat turns.
type Service struct {
	gen          *generation.Service
	store        history.Store
	maxHistory   int
	contextTurns int
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxHistory sets the default number of entries returned by History.
func WithMaxHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// NewService creates a Service.
func NewService(gen *generation.Service, store history.Store, opts ...Option) *Service {
	s := &Service{
		gen:          gen,
		store:        store,
		maxHistory:   history.DefaultMaxEntries,
		contextTurns: generation.MaxContextTurns,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.New().String()
}

// Turn corrects req.Message, generates a reply and persists the exchange.
func (s *Service) Turn(ctx context.Context, req models.TurnRequest) (*models.TurnResponse, error) {
	start := time.Now()
	sessionID := req.Session()
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	resp, err := s.turn(ctx, sessionID, req)
	observeTurn("sync", start, err)
	if err != nil {
		s.logger.Error("chat turn failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, &TurnError{SessionID: sessionID, Err: err}
	}
	return resp, nil
}

func (s *Service) turn(ctx context.Context, sessionID string, req models.TurnRequest) (*models.TurnResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrMalformedRequest)
	}
	style := models.StyleOrDefault(req.Style)

	turns, err := s.context(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	correction, err := s.gen.Correct(ctx, message, style)
	if err != nil {
		return nil, err
	}
	if correction.Rejected {
		return &models.TurnResponse{RefinedText: correction.Text, ReplyText: correction.Text, SessionID: sessionID}, nil
	}
	reply, err := s.gen.Reply(ctx, correction.Text, style, turns)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sessionID, message, correction.Text, reply); err != nil {
		return nil, err
	}
	return &models.TurnResponse{RefinedText: correction.Text, ReplyText: reply, SessionID: sessionID}, nil
}

// StreamTurn runs a turn and reports it through emit: refined, reply_start, one reply_chunk
// per chunk, reply_complete, then done once the turn is persisted. Turn failures are sent as
// an error event and also returned. If emit fails the turn is abandoned without persisting
// and the returned error wraps ErrEmit.
func (s *Service) StreamTurn(ctx context.Context, req models.TurnRequest, emit func(models.StreamEvent) error) error {
	start := time.Now()
	sessionID := req.Session()
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := func(typ models.EventType, content string) error {
		if err := emit(models.StreamEvent{Type: typ, Content: content, SessionID: sessionID}); err != nil {
			cancel()
			return fmt.Errorf("%w: %w", ErrEmit, err)
		}
		return nil
	}

	err := s.streamTurn(ctx, sessionID, req, send)
	observeTurn("stream", start, err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmit):
		s.logger.Info("stream turn abandoned", zap.String("session_id", sessionID), zap.Error(err))
		return err
	case errors.Is(err, ErrMalformedRequest):
		if sendErr := send(models.EventError, EmptyMessage); sendErr != nil {
			return sendErr
		}
		return &TurnError{SessionID: sessionID, Err: err}
	default:
		s.logger.Error("stream turn failed", zap.String("session_id", sessionID), zap.Error(err))
		if sendErr := send(models.EventError, ErrorMessage(err)); sendErr != nil {
			return sendErr
		}
		return &TurnError{SessionID: sessionID, Err: err}
	}
}

func (s *Service) streamTurn(ctx context.Context, sessionID string, req models.TurnRequest, send func(models.EventType, string) error) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return fmt.Errorf("%w: message is empty", ErrMalformedRequest)
	}
	style := models.StyleOrDefault(req.Style)

	turns, err := s.context(ctx, sessionID)
	if err != nil {
		return err
	}
	correction, err := s.gen.Correct(ctx, message, style)
	if err != nil {
		return err
	}
	if err := send(models.EventRefined, correction.Text); err != nil {
		return err
	}
	if err := send(models.EventReplyStart, ""); err != nil {
		return err
	}
	if correction.Rejected {
		if err := send(models.EventReplyComplete, correction.Text); err != nil {
			return err
		}
		return send(models.EventDone, DoneMessage)
	}

	stream, err := s.gen.StreamReply(ctx, correction.Text, style, turns)
	if err != nil {
		return err
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		reply.WriteString(chunk)
		if err := send(models.EventReplyChunk, chunk); err != nil {
			return err
		}
	}
	if err := send(models.EventReplyComplete, reply.String()); err != nil {
		return err
	}
	if err := s.persist(ctx, sessionID, message, correction.Text, reply.String()); err != nil {
		return err
	}
	return send(models.EventDone, DoneMessage)
}

// History returns up to limit of the session's most recent entries, oldest first. A limit
// of zero or less means the configured history size.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = s.maxHistory
	}
	return s.store.Recent(ctx, sessionID, limit)
}

func (s *Service) context(ctx context.Context, sessionID string) ([]models.ContextTurn, error) {
	entries, err := s.store.Recent(ctx, sessionID, s.contextTurns)
	if err != nil {
		return nil, err
	}
	return models.ContextTurns(entries), nil
}

func (s *Service) persist(ctx context.Context, sessionID, original, refined, reply string) error {
	return s.store.Append(ctx, &models.HistoryEntry{
		SessionID:    sessionID,
		OriginalText: original,
		RefinedText:  refined,
		ReplyText:    reply,
	})
}

// ErrorMessage renders err for clients.
func ErrorMessage(err error) string {
	return "처리 중 오류가 발생했습니다: " + err.Error()
}
