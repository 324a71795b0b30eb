package server

import (
	"log/slog"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/overlay"
	"github.com/onnwee/alert-overlay/backend/playback"
	"github.com/onnwee/alert-overlay/backend/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ChatStatus reports whether the chat transport holds a session.
type ChatStatus interface {
	Connected() bool
}

// PlayerStatus exposes the playback loop state.
type PlayerStatus interface {
	Running() bool
	Session() playback.Session
}

// Handlers holds dependencies for all HTTP handlers. Chat and Overlay may be nil.
type Handlers struct {
	Queue   *alert.Queue
	Follows *alert.FollowSet
	Player  PlayerStatus
	Chat    ChatStatus
	Overlay *overlay.Hub

	// PlaceholderImage is used for records created by the admin test route.
	PlaceholderImage string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", slog.Any("err", err))
	}
}

// HandleHealthz is the liveness probe.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once the playback loop runs and, when configured, chat is connected.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		ok   func() bool
	}{
		{"playback", func() bool { return h.Player != nil && h.Player.Running() }},
		{"chat", func() bool { return h.Chat == nil || h.Chat.Connected() }},
	}
	for _, c := range checks {
		if !c.ok() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": c.name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Status is the /status document.
type Status struct {
	Pending       int              `json:"pending"`
	Queue         []alert.Record   `json:"queue"`
	Session       playback.Session `json:"session"`
	PlayerRunning bool             `json:"player_running"`
	ChatConnected bool             `json:"chat_connected"`
	Followers     int              `json:"followers"`
	FollowsSeeded bool             `json:"follows_seeded"`
	Overlay       overlay.Stats    `json:"overlay"`
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{Queue: []alert.Record{}}
	if h.Queue != nil {
		st.Queue = h.Queue.Snapshot()
		st.Pending = len(st.Queue)
	}
	if h.Player != nil {
		st.Session = h.Player.Session()
		st.PlayerRunning = h.Player.Running()
	}
	if h.Chat != nil {
		st.ChatConnected = h.Chat.Connected()
	}
	if h.Follows != nil {
		st.Followers = h.Follows.Len()
		st.FollowsSeeded = h.Follows.Seeded()
	}
	if h.Overlay != nil {
		st.Overlay = h.Overlay.Stats()
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleTestAlert enqueues a synthetic alert: POST /admin/test-alert?kind=raid&user=Someone.
func (h *Handlers) HandleTestAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	kind := alert.Follow
	if v := q.Get("kind"); v != "" {
		k, err := alert.ParseKind(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = k
	}
	user := strings.TrimSpace(q.Get("user"))
	if user == "" {
		user = "TestUser"
	}

	rec := alert.NewRecord(kind, user, strings.ToLower(user), h.PlaceholderImage)
	if kind == alert.Raid {
		rec.ViewerCount = 1
	}
	if err := h.Queue.Enqueue(rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	telemetry.LoggerWithCorr(r.Context()).Info("test alert queued",
		slog.String("id", rec.ID), slog.String("kind", kind.String()), slog.String("user", user))
	writeJSON(w, http.StatusAccepted, rec)
}
