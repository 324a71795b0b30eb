package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/alert-overlay/backend/config"
	"github.com/onnwee/alert-overlay/backend/testutil"
)

type recordingHandler struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingHandler) HandleLine(_ context.Context, raw string) string {
	r.mu.Lock()
	r.lines = append(r.lines, raw)
	r.mu.Unlock()
	if strings.HasPrefix(raw, "PING") {
		return "PONG :tmi.twitch.tv"
	}
	return ""
}

func (r *recordingHandler) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// fakeChat serves a websocket IRC endpoint; serve runs once per accepted connection.
func fakeChat(t *testing.T, serve func(n int, ws *websocket.Conn)) string {
	t.Helper()
	var conns atomic.Int32
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		serve(int(conns.Add(1)), ws)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readLines returns fewer than n lines if the connection fails.
func readLines(ws *websocket.Conn, n int) []string {
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out []string
	for len(out) < n {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return out
		}
		out = append(out, string(data))
	}
	return out
}

var testCreds = Credentials{Channel: "somechannel", Username: "somebot", Token: "abc123"}

func TestWebsocketHandshakeAndPong(t *testing.T) {
	handshake := make(chan []string, 1)
	pong := make(chan string, 1)
	url := fakeChat(t, func(n int, ws *websocket.Conn) {
		handshake <- readLines(ws, 4)
		raid := "@msg-id=raid;display-name=Foo;login=foo :tmi.twitch.tv USERNOTICE #somechannel"
		_ = ws.WriteMessage(websocket.TextMessage, []byte("PING :tmi.twitch.tv\r\n"+raid+"\r\n"))
		if got := readLines(ws, 1); len(got) == 1 {
			pong <- got[0]
		}
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, _ = ws.ReadMessage() // hold until the client goes away
	})

	h := &recordingHandler{}
	tr := NewWebsocketTransport(url, testCreds, time.Hour, h)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	want := []string{
		"CAP REQ :twitch.tv/membership twitch.tv/tags twitch.tv/commands",
		"PASS oauth:abc123",
		"NICK somebot",
		"JOIN #somechannel",
	}
	select {
	case got := <-handshake:
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("handshake = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no handshake")
	}
	select {
	case got := <-pong:
		if got != "PONG :tmi.twitch.tv" {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no pong")
	}
	testutil.WaitFor(t, time.Second, func() bool { return len(h.Lines()) == 2 })
	if !tr.Connected() {
		t.Error("Connected() = false during session")
	}
	if lines := h.Lines(); !strings.Contains(lines[1], "USERNOTICE") {
		t.Errorf("second line = %q, want the raid notice", lines[1])
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if tr.Connected() {
		t.Error("Connected() = true after shutdown")
	}
}

func TestWebsocketReconnects(t *testing.T) {
	second := make(chan struct{})
	url := fakeChat(t, func(n int, ws *websocket.Conn) {
		readLines(ws, 4)
		if n == 1 {
			return // drop the first session
		}
		close(second)
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, _ = ws.ReadMessage()
	})

	tr := NewWebsocketTransport(url, testCreds, 10*time.Millisecond, &recordingHandler{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Run(ctx) }()

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not reconnect")
	}
}

func TestNewSelectsTransport(t *testing.T) {
	base := config.Config{Twitch: config.TwitchConfig{Channel: "c", BotUsername: "c", OAuthToken: "t"}}

	cfg := base
	cfg.Chat.Transport = config.TransportIRC
	tr, err := New(&cfg, &recordingHandler{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*IRCTransport); !ok {
		t.Errorf("irc transport = %T", tr)
	}

	cfg.Chat.Transport = config.TransportWebsocket
	if tr, _ = New(&cfg, &recordingHandler{}); tr == nil {
		t.Fatal("nil websocket transport")
	} else if _, ok := tr.(*WebsocketTransport); !ok {
		t.Errorf("websocket transport = %T", tr)
	}

	cfg.Twitch.OAuthToken = ""
	if _, err := New(&cfg, &recordingHandler{}); err == nil {
		t.Error("expected error without a token")
	}
}
