package bitaxe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestLogStreamURL(t *testing.T) {
	client := NewClient("192.168.1.42")
	if got := client.LogStreamURL(); got != "ws://192.168.1.42/api/ws" {
		t.Errorf("LogStreamURL() = %s", got)
	}
}

func TestStreamLogs_DeliversMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	lines := []string{"I (1234) bm1366: Job ID: 18", "I (1240) stratum_task: rx: {\"id\":5}"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, line := range lines {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(line))
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var got []string
	err := client.StreamLogs(context.Background(), func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("StreamLogs() error = %v", err)
	}

	if len(got) != len(lines) {
		t.Fatalf("received %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], lines[i])
		}
	}
}

func TestStreamLogs_CancelIsNotAnError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		// Hold the connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewClient(server.URL)
	err := client.StreamLogs(ctx, func(line string) {
		cancel()
	})
	if err != nil {
		t.Errorf("StreamLogs() error = %v, want nil after cancel", err)
	}
}

func TestStreamLogs_HandshakeRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	err := client.StreamLogs(context.Background(), func(string) {})
	if !IsInvalidRequest(err) {
		t.Errorf("StreamLogs() error = %v, want invalid request", err)
	}
}
