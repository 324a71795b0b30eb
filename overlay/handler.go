package overlay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// broadcast software loads the overlay from local files or arbitrary hosts
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the client with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.log.Warn("overlay upgrade failed", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
		return
	}
	c := newConnection(h, ws, r.RemoteAddr)
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = ws.Close()
		return
	}
	c.start()
}
