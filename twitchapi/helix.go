// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for broadcaster id resolution, profile image lookups and the follower list.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Helix API root.
const DefaultBaseURL = "https://api.twitch.tv/helix"

// ErrUserNotFound is returned when a login does not resolve to a user.
var ErrUserNotFound = errors.New("twitchapi: user not found")

// HelixClient provides the Helix calls needed for alert ingestion.
type HelixClient struct {
	BaseURL    string
	ClientID   string
	Tokens     oauth2.TokenSource
	Limiter    *rate.Limiter // optional
	HTTPClient *http.Client
}

// Follower is one entry of the channel follower list.
type Follower struct {
	Name        string // login
	DisplayName string
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) base() string {
	if hc.BaseURL != "" {
		return strings.TrimSuffix(hc.BaseURL, "/")
	}
	return DefaultBaseURL
}

// get issues an authenticated GET on path and decodes the JSON response into out.
func (hc *HelixClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if hc.Limiter != nil {
		if err := hc.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("helix rate limit wait: %w", err)
		}
	}
	if hc.Tokens == nil {
		return errors.New("helix: no token source configured")
	}
	tok, err := hc.Tokens.Token()
	if err != nil {
		return fmt.Errorf("helix token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.base()+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := hc.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("helix %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode helix %s: %w", path, err)
	}
	return nil
}

type usersResponse struct {
	Data []struct {
		ID              string `json:"id"`
		Login           string `json:"login"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (hc *HelixClient) user(ctx context.Context, login string) (*usersResponse, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	var body usersResponse
	if err := hc.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}
	return &body, nil
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	body, err := hc.user(ctx, login)
	if err != nil {
		return "", err
	}
	return body.Data[0].ID, nil
}

// ProfileImageURL returns the profile image of login.
func (hc *HelixClient) ProfileImageURL(ctx context.Context, login string) (string, error) {
	body, err := hc.user(ctx, login)
	if err != nil {
		return "", err
	}
	if body.Data[0].ProfileImageURL == "" {
		return "", fmt.Errorf("user %s has no profile image", login)
	}
	return body.Data[0].ProfileImageURL, nil
}

// Followers returns the most recent followers of the broadcaster, newest first.
func (hc *HelixClient) Followers(ctx context.Context, broadcasterID string) ([]Follower, error) {
	if broadcasterID == "" {
		return nil, fmt.Errorf("broadcasterID empty")
	}
	var body struct {
		Data []struct {
			UserLogin string `json:"user_login"`
			UserName  string `json:"user_name"`
		} `json:"data"`
	}
	q := url.Values{"broadcaster_id": {broadcasterID}, "first": {"100"}}
	if err := hc.get(ctx, "/channels/followers", q, &body); err != nil {
		return nil, err
	}
	out := make([]Follower, 0, len(body.Data))
	for _, f := range body.Data {
		out = append(out, Follower{Name: f.UserLogin, DisplayName: f.UserName})
	}
	return out, nil
}
