// Package testutil provides fakes shared by package tests: a mock Helix server and an
// in-memory overlay scene.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/onnwee/alert-overlay/backend/twitchapi"
)

// MockTwitchServer creates a test server that mocks Twitch Helix API responses
type MockTwitchServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu        sync.Mutex
	users     map[string]mockUser
	followers []twitchapi.Follower
	userDelay time.Duration

	UserCalls     atomic.Int32
	FollowerCalls atomic.Int32
}

type mockUser struct {
	id, image string
}

// NewMockTwitchServer creates a new mock Twitch API server
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		Handlers: make(map[string]http.HandlerFunc),
		users:    make(map[string]mockUser),
	}
	m.Handlers["/helix/users"] = m.handleUsers
	m.Handlers["/helix/channels/followers"] = m.handleFollowers
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// HelixURL is the base URL to configure a HelixClient with.
func (m *MockTwitchServer) HelixURL() string { return m.URL + "/helix" }

// Client returns a HelixClient pointed at the mock with a static token.
func (m *MockTwitchServer) Client() *twitchapi.HelixClient {
	return &twitchapi.HelixClient{
		BaseURL:  m.HelixURL(),
		ClientID: "test-client-id",
		Tokens:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	}
}

// MockUserResponse registers a user for /helix/users lookups.
func (m *MockTwitchServer) MockUserResponse(userID, login, imageURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[login] = mockUser{id: userID, image: imageURL}
}

// SetUserDelay delays /helix/users responses, or until the request is cancelled.
func (m *MockTwitchServer) SetUserDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userDelay = d
}

// SetFollowers replaces the list returned by /helix/channels/followers.
func (m *MockTwitchServer) SetFollowers(logins ...string) {
	fs := make([]twitchapi.Follower, len(logins))
	for i, l := range logins {
		fs[i] = twitchapi.Follower{Name: l, DisplayName: l}
	}
	m.mu.Lock()
	m.followers = fs
	m.mu.Unlock()
}

func (m *MockTwitchServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	m.UserCalls.Add(1)
	m.mu.Lock()
	u, ok := m.users[r.URL.Query().Get("login")]
	delay := m.userDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
	data := []map[string]string{}
	if ok {
		data = append(data, map[string]string{"id": u.id, "login": r.URL.Query().Get("login"), "profile_image_url": u.image})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data}) //nolint:errcheck // test mock response
}

func (m *MockTwitchServer) handleFollowers(w http.ResponseWriter, r *http.Request) {
	m.FollowerCalls.Add(1)
	m.mu.Lock()
	data := make([]map[string]string, 0, len(m.followers))
	for _, f := range m.followers {
		data = append(data, map[string]string{"user_login": f.Name, "user_name": f.DisplayName})
	}
	m.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"total": len(data), "data": data}) //nolint:errcheck // test mock response
}

// MockOAuthTokenResponse adds a handler for OAuth token endpoint
func (m *MockTwitchServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// WaitFor polls cond until it is true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
