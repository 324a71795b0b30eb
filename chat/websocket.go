package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/alert-overlay/backend/telemetry"
)

const wsWriteWait = 10 * time.Second

// WebsocketTransport speaks IRC over a websocket, one or more CRLF-terminated lines per frame.
type WebsocketTransport struct {
	url     string
	creds   Credentials
	delay   time.Duration
	handler LineHandler

	Dialer *websocket.Dialer

	connected atomic.Bool
	log       *slog.Logger
}

func NewWebsocketTransport(url string, creds Credentials, reconnectDelay time.Duration, h LineHandler) *WebsocketTransport {
	return &WebsocketTransport{
		url:     url,
		creds:   creds,
		delay:   reconnectDelay,
		handler: h,
		Dialer:  websocket.DefaultDialer,
		log:     slog.Default().With(slog.String("component", "chat"), slog.String("transport", "websocket")),
	}
}

func (w *WebsocketTransport) Connected() bool { return w.connected.Load() }

func (w *WebsocketTransport) setConnected(v bool) {
	w.connected.Store(v)
	telemetry.SetChatConnected(v)
}

// Run keeps a session open, reconnecting after ReconnectDelay, until ctx is cancelled.
func (w *WebsocketTransport) Run(ctx context.Context) error {
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			w.log.Info("chat stopped")
			return nil
		}
		w.log.Warn("chat connection lost", slog.Any("err", err), slog.Duration("retry_in", w.delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.delay):
		}
	}
}

func (w *WebsocketTransport) session(ctx context.Context) error {
	conn, _, err := w.Dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial chat: %w", err)
	}
	defer conn.Close()
	// unblocks ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for _, line := range []string{
		"CAP REQ :twitch.tv/membership twitch.tv/tags twitch.tv/commands",
		"PASS oauth:" + w.creds.Token,
		"NICK " + w.creds.Username,
		"JOIN #" + w.creds.Channel,
	} {
		if err := write(conn, line); err != nil {
			return fmt.Errorf("chat handshake: %w", err)
		}
	}
	w.setConnected(true)
	defer w.setConnected(false)
	w.log.Info("chat connected", slog.String("channel", w.creds.Channel))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read chat: %w", err)
		}
		for _, line := range strings.Split(string(data), "\r\n") {
			if line == "" {
				continue
			}
			reply := w.handler.HandleLine(ctx, line)
			if reply == "" {
				continue
			}
			if err := write(conn, reply); err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
		}
	}
}

func write(conn *websocket.Conn, line string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(line))
}
