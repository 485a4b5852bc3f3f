package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hyperjump/gyojeong/internal/chat"
	"github.com/hyperjump/gyojeong/internal/models"
)

func dialChat(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.StreamEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev models.StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

// readTurn reads events until done or error.
func readTurn(t *testing.T, conn *websocket.Conn) []models.StreamEvent {
	t.Helper()
	var events []models.StreamEvent
	for {
		ev := readEvent(t, conn)
		events = append(events, ev)
		if ev.Type == models.EventDone || ev.Type == models.EventError {
			return events
		}
	}
}

func TestWebSocket_streamTurn(t *testing.T) {
	gen := scripted("학교에 가고 싶어요.", "")
	gen.Chunks = []string{"좋아요", "! 몇 시에 가요?"}
	srv, _ := newTestServer(t, gen)
	conn := dialChat(t, srv)

	if err := conn.WriteJSON(map[string]string{"message": "학교에 가고싶어요", "style": "casual", "session_id": "ws-1"}); err != nil {
		t.Fatal(err)
	}
	events := readTurn(t, conn)

	var types []string
	for _, ev := range events {
		types = append(types, string(ev.Type))
		if ev.SessionID != "ws-1" {
			t.Errorf("event %s has session %q", ev.Type, ev.SessionID)
		}
	}
	want := "refined,reply_start,reply_chunk,reply_chunk,reply_complete,done"
	if strings.Join(types, ",") != want {
		t.Fatalf("events = %s, want %s", strings.Join(types, ","), want)
	}
	if events[0].Content != "학교에 가고 싶어요." {
		t.Errorf("refined = %q", events[0].Content)
	}
	if events[4].Content != "좋아요! 몇 시에 가요?" {
		t.Errorf("reply_complete = %q", events[4].Content)
	}
	if events[5].Content != chat.DoneMessage {
		t.Errorf("done = %q", events[5].Content)
	}
}

func TestWebSocket_malformedJSONKeepsConnection(t *testing.T) {
	srv, _ := newTestServer(t, scripted("안녕하세요.", "반가워요."))
	conn := dialChat(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	ev := readEvent(t, conn)
	if ev.Type != models.EventError || ev.Content != InvalidJSONMessage || ev.SessionID != "" {
		t.Errorf("event = %+v", ev)
	}

	if err := conn.WriteJSON(map[string]string{"message": "안녕하세요"}); err != nil {
		t.Fatal(err)
	}
	events := readTurn(t, conn)
	if last := events[len(events)-1]; last.Type != models.EventDone {
		t.Errorf("turn after malformed frame ended with %+v", last)
	}
}

func TestWebSocket_emptyMessage(t *testing.T) {
	srv, _ := newTestServer(t, scripted("x", "y"))
	conn := dialChat(t, srv)

	if err := conn.WriteJSON(map[string]string{"message": "  "}); err != nil {
		t.Fatal(err)
	}
	ev := readEvent(t, conn)
	if ev.Type != models.EventError || ev.Content != chat.EmptyMessage || ev.SessionID == "" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWebSocket_unknownStyleFallsBackToFormal(t *testing.T) {
	gen := scripted("안녕하세요.", "네, 안녕하세요.")
	srv, _ := newTestServer(t, gen)
	conn := dialChat(t, srv)

	if err := conn.WriteJSON(map[string]string{"message": "안녕", "style": "pirate"}); err != nil {
		t.Fatal(err)
	}
	events := readTurn(t, conn)
	if events[len(events)-1].Type != models.EventDone {
		t.Fatalf("events = %+v", events)
	}
	if !strings.Contains(gen.Prompts()[0], "존댓말과 정중한 표현을 사용하여") {
		t.Error("unknown style should fall back to formal")
	}
}
