package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/hyperjump/gyojeong/internal/config"
	"github.com/hyperjump/gyojeong/internal/history"
	"github.com/hyperjump/gyojeong/internal/models"
)

func historyStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

func chatViaHTTP(ctx context.Context, serverURL string, req models.TurnRequest) (*models.TurnResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out models.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func historyViaHTTP(ctx context.Context, serverURL, sessionID string, limit int) ([]*models.HistoryEntry, error) {
	u := strings.TrimRight(serverURL, "/") + "/api/chat/history/" + url.PathEscape(sessionID)
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		History []*models.HistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.History, nil
}

// websocketURL maps an http(s) server URL to the chat WebSocket endpoint.
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/api/ws/chat"
	return u.String(), nil
}

// streamViaWebSocket runs one turn over the server's WebSocket and prints events to w.
func streamViaWebSocket(ctx context.Context, serverURL string, req models.TurnRequest, w io.Writer) error {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	for {
		var ev models.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := writeEvent(w, ev); err != nil {
			return err
		}
		switch ev.Type {
		case models.EventDone:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case models.EventError:
			return errors.New(ev.Content)
		}
	}
}

// writeEvent prints a streaming event as it arrives.
func writeEvent(w io.Writer, ev models.StreamEvent) error {
	var err error
	switch ev.Type {
	case models.EventRefined:
		_, err = fmt.Fprintf(w, "교정: %s\n", ev.Content)
	case models.EventReplyStart:
		_, err = fmt.Fprint(w, "응답: ")
	case models.EventReplyChunk:
		_, err = fmt.Fprint(w, ev.Content)
	case models.EventReplyComplete:
		_, err = fmt.Fprintln(w)
	case models.EventDone:
		_, err = fmt.Fprintf(w, "세션: %s\n", ev.SessionID)
	case models.EventError:
		_, err = fmt.Fprintf(w, "오류: %s\n", ev.Content)
	}
	return err
}
