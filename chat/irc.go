package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/alert-overlay/backend/telemetry"
)

// IRCTransport reads chat through go-twitch-irc.
type IRCTransport struct {
	creds   Credentials
	delay   time.Duration
	handler LineHandler

	// Address overrides the library's default server when set.
	Address string
	// DisableTLS dials Address in plain text.
	DisableTLS bool

	connected atomic.Bool
	log       *slog.Logger
}

func NewIRCTransport(creds Credentials, reconnectDelay time.Duration, h LineHandler) *IRCTransport {
	return &IRCTransport{
		creds:   creds,
		delay:   reconnectDelay,
		handler: h,
		log:     slog.Default().With(slog.String("component", "chat"), slog.String("transport", "irc")),
	}
}

func (c *IRCTransport) Connected() bool { return c.connected.Load() }

func (c *IRCTransport) setConnected(v bool) {
	c.connected.Store(v)
	telemetry.SetChatConnected(v)
}

func (c *IRCTransport) client(ctx context.Context) *twitch.Client {
	client := twitch.NewClient(c.creds.Username, "oauth:"+c.creds.Token)
	if c.Address != "" {
		client.IrcAddress = c.Address
	}
	client.TLS = !c.DisableTLS
	client.OnConnect(func() {
		if ctx.Err() != nil {
			_ = client.Disconnect()
			return
		}
		c.setConnected(true)
		c.log.Info("chat connected", slog.String("channel", c.creds.Channel))
	})
	// hosts arrive as jtv PRIVMSG, raids as USERNOTICE
	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		c.handler.HandleLine(ctx, msg.Raw)
	})
	client.OnUserNoticeMessage(func(msg twitch.UserNoticeMessage) {
		c.handler.HandleLine(ctx, msg.Raw)
	})
	client.Join(c.creds.Channel)
	return client
}

// Run connects and reconnects after ReconnectDelay until ctx is cancelled.
func (c *IRCTransport) Run(ctx context.Context) error {
	defer c.setConnected(false)
	for {
		client := c.client(ctx)
		stop := context.AfterFunc(ctx, func() { _ = client.Disconnect() })
		err := client.Connect()
		stop()
		c.setConnected(false)

		if ctx.Err() != nil {
			c.log.Info("chat stopped")
			return nil
		}
		if err != nil && !errors.Is(err, twitch.ErrClientDisconnected) {
			c.log.Warn("chat connection lost", slog.Any("err", err), slog.Duration("retry_in", c.delay))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.delay):
		}
	}
}
