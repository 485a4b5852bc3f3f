package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/chat"
	"github.com/hyperjump/gyojeong/internal/models"
)

// InvalidJSONMessage is sent for a frame that is not a JSON turn request.
const InvalidJSONMessage = "잘못된 JSON 형식입니다."

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// handleChatWebSocket serves streaming turns. Frames are handled one at a time; a failed turn
// is reported as an error event and the connection stays open.
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	s.logger.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))

	ctx := r.Context()
	emit := func(ev models.StreamEvent) error {
		return ws.WriteJSON(ev)
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", zap.Error(err))
			}
			s.logger.Debug("websocket client disconnected")
			return
		}

		var req models.TurnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := emit(models.StreamEvent{Type: models.EventError, Content: InvalidJSONMessage}); err != nil {
				return
			}
			continue
		}

		err = s.chat.StreamTurn(ctx, req, emit)
		if errors.Is(err, chat.ErrEmit) {
			s.logger.Info("websocket turn abandoned", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
