package overlay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/alert-overlay/backend/render"
	"github.com/onnwee/alert-overlay/backend/testutil"
)

func startHub(t *testing.T, maxClients int) (*Hub, *render.Scene, string) {
	t.Helper()
	hub := NewHub(maxClients)
	scene := render.NewScene(hub, render.DefaultMeasurer)
	hub.SetSnapshot(scene.Snapshot)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})
	return hub, scene, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	return ws
}

func TestClientReceivesSnapshotThenOps(t *testing.T) {
	hub, scene, url := startHub(t, 0)
	top := scene.New("top")
	top.SetSize(600, 150)
	scene.Append(nil, top)

	ws := dial(t, url)

	var snap Snapshot
	if err := ws.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Op != MsgSnapshot {
		t.Fatalf("first message op = %q, want snapshot", snap.Op)
	}
	testutil.WaitFor(t, time.Second, func() bool { return hub.Clients() == 1 })

	// drain any create op for top that raced the snapshot
	top.SetText("Follow")
	for {
		var op render.Op
		if err := ws.ReadJSON(&op); err != nil {
			t.Fatalf("read op: %v", err)
		}
		if op.Op == render.OpSet && op.Field == render.FieldText {
			if op.ID != "top" || op.Value != "Follow" {
				t.Errorf("op = %+v", op)
			}
			break
		}
	}
}

func TestHubRejectsOverLimit(t *testing.T) {
	hub, _, url := startHub(t, 1)
	dial(t, url)
	testutil.WaitFor(t, time.Second, func() bool { return hub.Clients() == 1 })

	second := dial(t, url)
	if _, _, err := second.ReadMessage(); err == nil {
		t.Error("second client over the limit was served")
	}
	if hub.Clients() != 1 {
		t.Errorf("Clients = %d, want 1", hub.Clients())
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, _, url := startHub(t, 0)
	ws := dial(t, url)
	testutil.WaitFor(t, time.Second, func() bool { return hub.Clients() == 1 })
	_ = ws.Close()
	testutil.WaitFor(t, 2*time.Second, func() bool { return hub.Clients() == 0 })
}

func TestPublishAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(0)
	go hub.Run()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 2000; i++ {
			hub.Publish(render.Op{Op: render.OpRemove, ID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after shutdown")
	}
}
