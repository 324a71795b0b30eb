// Package chat connects to the channel's chat and feeds every inbound line to a LineHandler.
//
// Two transports are available:
//   - irc: a go-twitch-irc client. PRIVMSG and USERNOTICE lines are handed over raw; the
//     library answers server pings itself.
//   - websocket: a plain IRC-over-websocket session. Frames are split on CRLF and any reply
//     the handler returns (PONG) is written back.
//
// Both transports reconnect until their context is cancelled and report Connected for readiness.
package chat

import (
	"context"
	"fmt"

	"github.com/onnwee/alert-overlay/backend/config"
)

// LineHandler consumes one raw chat line and returns the reply to send, if any.
type LineHandler interface {
	HandleLine(ctx context.Context, raw string) string
}

// Transport is a running chat session.
type Transport interface {
	// Run blocks until ctx is cancelled. It returns nil on shutdown.
	Run(ctx context.Context) error
	Connected() bool
}

// Credentials identify the bot and the channel to join.
type Credentials struct {
	Channel  string
	Username string
	Token    string // without the "oauth:" prefix
}

func credentialsFrom(cfg *config.Config) Credentials {
	return Credentials{
		Channel:  cfg.Twitch.Channel,
		Username: cfg.Twitch.BotUsername,
		Token:    cfg.Twitch.OAuthToken,
	}
}

// New returns the transport selected by CHAT_TRANSPORT.
func New(cfg *config.Config, h LineHandler) (Transport, error) {
	if err := cfg.ValidateChatReady(); err != nil {
		return nil, err
	}
	creds := credentialsFrom(cfg)
	switch cfg.Chat.Transport {
	case config.TransportIRC:
		return NewIRCTransport(creds, cfg.Chat.ReconnectDelay, h), nil
	case config.TransportWebsocket:
		return NewWebsocketTransport(cfg.Chat.WebsocketURL, creds, cfg.Chat.ReconnectDelay, h), nil
	default:
		return nil, fmt.Errorf("unknown chat transport %q", cfg.Chat.Transport)
	}
}
