package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewTokenSource_UserToken(t *testing.T) {
	ts, err := NewTokenSource(context.Background(), TokenConfig{UserToken: "user-tok"}, nil)
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "user-tok" {
		t.Errorf("AccessToken = %q, want user-tok", tok.AccessToken)
	}
}

func TestNewTokenSource_ClientCredentialsCached(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_id") != "test-client" || r.Form.Get("client_secret") != "test-secret" {
			t.Errorf("client credentials not sent in params: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token-123",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	ts, err := NewTokenSource(context.Background(), TokenConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		TokenURL:     server.URL,
	}, server.Client())
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}

	tok1, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok1.AccessToken != "test-token-123" {
		t.Errorf("Token() = %s, want test-token-123", tok1.AccessToken)
	}
	tok2, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok2.AccessToken != tok1.AccessToken {
		t.Errorf("cached token = %s, want %s", tok2.AccessToken, tok1.AccessToken)
	}
	if callCount != 1 {
		t.Errorf("expected 1 token request (cached), got %d", callCount)
	}
}

func TestNewTokenSource_MissingCredentials(t *testing.T) {
	if _, err := NewTokenSource(context.Background(), TokenConfig{ClientID: "only-id"}, nil); err == nil {
		t.Error("expected error without secret or user token")
	}
}
