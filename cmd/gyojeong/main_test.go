package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/hyperjump/gyojeong/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after message are moved first",
			args:     []string{"학교에 가고싶어요", "-style", "casual"},
			expected: []string{"-style", "casual", "학교에 가고싶어요"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "5", "query"},
			expected: []string{"-k", "5", "query"},
		},
		{
			name:     "positional only returns unchanged",
			args:     []string{"안녕하세요"},
			expected: []string{"안녕하세요"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"학교에", "가고싶어요"}, "학교에 가고싶어요"},
		{[]string{"학교에 가고싶어요"}, "학교에 가고싶어요"},
		{[]string{"  ", " "}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := joinArgs(tt.args); got != tt.want {
			t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 8123
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug || cfg.Server.Port != 8123 {
		t.Errorf("unexpected config: debug=%v port=%d", cfg.Debug, cfg.Server.Port)
	}
}

func TestLoadConfig_environmentOnlyWhenNoFile(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists")
	}
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_PORT", "8765")

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Server.Port != 8765 || cfg.History.MaxEntries != 10 {
		t.Errorf("unexpected config: %+v", cfg.Server)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  host: \"127.0.0.1\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("resolved=%s host=%s", resolved, cfg.Server.Host)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8000": "ws://localhost:8000/api/ws/chat",
		"https://example.com/":  "wss://example.com/api/ws/chat",
		"http://host:1/prefix":  "ws://host:1/prefix/api/ws/chat",
	}
	for in, want := range tests {
		got, err := websocketURL(in)
		if err != nil || got != want {
			t.Errorf("websocketURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := websocketURL("ftp://x"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	sid := "s1"
	for _, ev := range []models.StreamEvent{
		{Type: models.EventRefined, Content: "가요.", SessionID: sid},
		{Type: models.EventReplyStart, SessionID: sid},
		{Type: models.EventReplyChunk, Content: "좋", SessionID: sid},
		{Type: models.EventReplyChunk, Content: "아요", SessionID: sid},
		{Type: models.EventReplyComplete, Content: "좋아요", SessionID: sid},
		{Type: models.EventDone, Content: "완료", SessionID: sid},
	} {
		if err := writeEvent(&buf, ev); err != nil {
			t.Fatal(err)
		}
	}
	want := "교정: 가요.\n응답: 좋아요\n세션: s1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestChatViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"refined_text":"가요.","reply_text":"네.","session_id":"s9"}`))
	}))
	defer srv.Close()

	resp, err := chatViaHTTP(context.Background(), srv.URL, models.TurnRequest{Message: "가요"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "s9" || resp.RefinedText != "가요." {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHistoryViaHTTP_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("limit query = %q", r.URL.RawQuery)
		}
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := historyViaHTTP(context.Background(), srv.URL, "s1", 3); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v", err)
	}
}

func TestStreamViaWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var req models.TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		sid := "ws-s"
		for _, ev := range []models.StreamEvent{
			{Type: models.EventRefined, Content: req.Message + ".", SessionID: sid},
			{Type: models.EventReplyStart, SessionID: sid},
			{Type: models.EventReplyChunk, Content: "네", SessionID: sid},
			{Type: models.EventReplyComplete, Content: "네", SessionID: sid},
			{Type: models.EventDone, Content: "완료", SessionID: sid},
		} {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := streamViaWebSocket(context.Background(), srv.URL, models.TurnRequest{Message: "가요"}, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "교정: 가요.\n응답: 네\n세션: ws-s\n" {
		t.Errorf("output = %q", buf.String())
	}
}
