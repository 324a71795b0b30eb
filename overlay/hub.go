// Package overlay pushes the scene to browser overlay clients over websockets.
package overlay

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/onnwee/alert-overlay/backend/render"
	"github.com/onnwee/alert-overlay/backend/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MsgSnapshot is the type of the first message a client receives.
const MsgSnapshot = "snapshot"

// Snapshot is the full scene sent on connect. Ops follow as individual messages.
type Snapshot struct {
	Op    string             `json:"op"`
	Nodes []render.NodeState `json:"nodes"`
}

// Hub maintains the set of active overlay clients and broadcasts scene ops to them.
type Hub struct {
	clients map[*Connection]struct{}
	mu      sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan render.Op

	snapMu   sync.RWMutex
	snapshot func() []render.NodeState

	maxClients int

	sent    atomic.Int64
	dropped atomic.Int64

	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub accepting at most maxClients connections (0 means unlimited).
func NewHub(maxClients int) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Connection]struct{}),
		register:   make(chan *Connection, 16),
		unregister: make(chan *Connection, 16),
		broadcast:  make(chan render.Op, 1024),
		maxClients: maxClients,
		log:        slog.Default().With(slog.String("component", "overlay")),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// SetSnapshot sets the source of the state sent to newly connected clients.
func (h *Hub) SetSnapshot(fn func() []render.NodeState) {
	h.snapMu.Lock()
	h.snapshot = fn
	h.snapMu.Unlock()
}

// Run starts the hub's main loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case op := <-h.broadcast:
			h.send(op)
		}
	}
}

// Publish queues op for all clients. It implements render.Publisher.
func (h *Hub) Publish(op render.Op) {
	select {
	case h.broadcast <- op:
	case <-h.ctx.Done():
	}
}

func (h *Hub) add(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		h.log.Warn("max overlay clients reached, rejecting", slog.String("remote", c.remote))
		go c.Close()
		return
	}

	h.snapMu.RLock()
	snap := h.snapshot
	h.snapMu.RUnlock()
	msg := Snapshot{Op: MsgSnapshot, Nodes: []render.NodeState{}}
	if snap != nil {
		msg.Nodes = snap()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode snapshot", slog.Any("err", err))
		go c.Close()
		return
	}
	c.send <- data // fresh buffer, cannot block

	h.clients[c] = struct{}{}
	telemetry.SetOverlayClients(len(h.clients))
	h.log.Info("overlay client connected", slog.String("remote", c.remote), slog.Int("clients", len(h.clients)))
}

func (h *Hub) remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	telemetry.SetOverlayClients(len(h.clients))
	h.log.Info("overlay client disconnected", slog.String("remote", c.remote), slog.Int("clients", len(h.clients)))
}

func (h *Hub) send(op render.Op) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(op)
	if err != nil {
		h.log.Error("encode op", slog.String("op", op.Op), slog.Any("err", err))
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
			h.sent.Add(1)
		default:
			// a client that cannot keep up would show a broken scene; drop it so it reconnects
			h.dropped.Add(1)
			h.log.Warn("overlay client too slow, closing", slog.String("remote", c.remote))
			go c.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
	}
	h.clients = make(map[*Connection]struct{})
	telemetry.SetOverlayClients(0)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats describes hub traffic.
type Stats struct {
	Clients int   `json:"clients"`
	Sent    int64 `json:"sent"`
	Dropped int64 `json:"dropped"`
}

func (h *Hub) Stats() Stats {
	return Stats{Clients: h.Clients(), Sent: h.sent.Load(), Dropped: h.dropped.Load()}
}

// Shutdown stops the hub and closes all clients.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
