package twitchapi

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the Twitch OAuth token endpoint.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// TokenConfig selects how Helix requests are authorized.
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	// UserToken, when set, is used as-is. It is also the chat token so no refresh happens here.
	UserToken string
	TokenURL  string
}

// NewTokenSource returns a static source for a configured user token, otherwise a cached
// client-credentials (app access token) source.
func NewTokenSource(ctx context.Context, cfg TokenConfig, hc *http.Client) (oauth2.TokenSource, error) {
	if cfg.UserToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.UserToken, TokenType: "Bearer"}), nil
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("missing client id/secret for twitch app token")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	// clientcredentials.TokenSource already caches until expiry
	return cc.TokenSource(ctx), nil
}
