// Package config loads environment variables and provides a typed Config used across the service.
// It applies the defaults of the reference overlay deployment so the binary can run locally with
// minimal setup. For required credentials use ValidateChatReady and ValidateHelixReady.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Chat transports understood by the chat package.
const (
	TransportIRC       = "irc"
	TransportWebsocket = "websocket"
)

type Config struct {
	Twitch    TwitchConfig
	Chat      ChatConfig
	Overlay   OverlayConfig
	Timing    TimingConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// TwitchConfig holds channel identity and credentials.
type TwitchConfig struct {
	Channel      string `env:"TWITCH_CHANNEL"`
	ChannelID    string `env:"TWITCH_CHANNEL_ID"`
	BotUsername  string `env:"TWITCH_BOT_USERNAME"`
	OAuthToken   string `env:"TWITCH_OAUTH_TOKEN"`
	ClientID     string `env:"TWITCH_CLIENT_ID"`
	ClientSecret string `env:"TWITCH_CLIENT_SECRET"`

	HelixBaseURL    string  `env:"HELIX_BASE_URL" envDefault:"https://api.twitch.tv/helix"`
	HelixRatePerSec float64 `env:"HELIX_RATE_PER_SECOND" envDefault:"10"`
	HelixBurst      int     `env:"HELIX_BURST" envDefault:"5"`
	TokenURL        string  `env:"TWITCH_TOKEN_URL" envDefault:"https://id.twitch.tv/oauth2/token"`
}

// ChatConfig selects and tunes the inbound chat transport.
type ChatConfig struct {
	Transport      string        `env:"CHAT_TRANSPORT" envDefault:"irc"`
	WebsocketURL   string        `env:"CHAT_WEBSOCKET_URL" envDefault:"wss://irc-ws.chat.twitch.tv:443"`
	ReconnectDelay time.Duration `env:"CHAT_RECONNECT_DELAY" envDefault:"5s"`
}

// OverlayConfig describes the stage geometry and the animation grid.
type OverlayConfig struct {
	SquareAmount  int           `env:"SQUARE_AMOUNT" envDefault:"19"`
	SquareSpeed   time.Duration `env:"SQUARE_SPEED" envDefault:"8ms"`
	MaxTextHeight float64       `env:"MAX_TEXT_HEIGHT" envDefault:"65"`

	BackgroundOffsetX float64 `env:"BACKGROUND_OFFSET_X" envDefault:"12"`
	BackgroundOffsetY float64 `env:"BACKGROUND_OFFSET_Y" envDefault:"14"`
	ImageOffsetX      float64 `env:"IMAGE_OFFSET_X" envDefault:"20"`
	ImageOffsetY      float64 `env:"IMAGE_OFFSET_Y" envDefault:"25"`

	BackgroundWidth  float64 `env:"BACKGROUND_WIDTH" envDefault:"600"`
	BackgroundHeight float64 `env:"BACKGROUND_HEIGHT" envDefault:"150"`
	ImageSize        float64 `env:"IMAGE_SIZE" envDefault:"112"`
	AlertWidth       float64 `env:"ALERT_WIDTH" envDefault:"440"`
	LabelText        string  `env:"LABEL_TEXT" envDefault:""`

	BackgroundColor  string `env:"BACKGROUND_COLOR" envDefault:"rgb(172,174,173)"`
	ClearColor       string `env:"CLEAR_COLOR" envDefault:"rgba(0,0,0,0)"`
	PlaceholderImage string `env:"PLACEHOLDER_IMAGE" envDefault:"/img/default-user-image.png"`
}

// TimingConfig holds the pacing of the playback loop and of ingestion.
type TimingConfig struct {
	LabelSpeed    time.Duration `env:"LABEL_SPEED" envDefault:"150ms"`
	MessageSpeed  time.Duration `env:"MESSAGE_SPEED" envDefault:"50ms"`
	Dwell         time.Duration `env:"DWELL_TIME" envDefault:"4s"`
	EnrichTimeout time.Duration `env:"ENRICH_TIMEOUT" envDefault:"3s"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	IdleInterval  time.Duration `env:"IDLE_INTERVAL" envDefault:"5s"`
}

type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
	// Empty means permissive CORS. Entries may use a "*.example.com" wildcard.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// AdminToken protects /admin/*; the routes are disabled when it is empty.
	AdminToken         string  `env:"ADMIN_TOKEN"`
	AdminRatePerMinute float64 `env:"ADMIN_RATE_PER_MINUTE" envDefault:"10"`
	MaxOverlayClients  int     `env:"MAX_OVERLAY_CLIENTS" envDefault:"16"`
}

// TelemetryConfig configures trace export. Tracing is off without an endpoint.
type TelemetryConfig struct {
	OTLPEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
	ServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"alert-overlay"`
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds are missing;
// use ValidateChatReady / ValidateHelixReady where they are required.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Twitch.Channel = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Twitch.Channel), "#"))
	if cfg.Twitch.BotUsername == "" {
		// the bot usually logs in as the channel itself
		cfg.Twitch.BotUsername = cfg.Twitch.Channel
	}
	cfg.Twitch.OAuthToken = strings.TrimPrefix(strings.TrimSpace(cfg.Twitch.OAuthToken), "oauth:")
	cfg.Twitch.HelixBaseURL = strings.TrimSuffix(cfg.Twitch.HelixBaseURL, "/")

	cfg.Chat.Transport = strings.ToLower(strings.TrimSpace(cfg.Chat.Transport))
	switch cfg.Chat.Transport {
	case TransportIRC, TransportWebsocket:
	default:
		return nil, fmt.Errorf("invalid CHAT_TRANSPORT %q: want %s or %s", cfg.Chat.Transport, TransportIRC, TransportWebsocket)
	}

	if cfg.Overlay.SquareAmount <= 0 {
		return nil, fmt.Errorf("SQUARE_AMOUNT must be positive, got %d", cfg.Overlay.SquareAmount)
	}
	if cfg.Overlay.MaxTextHeight <= 0 {
		return nil, fmt.Errorf("MAX_TEXT_HEIGHT must be positive, got %v", cfg.Overlay.MaxTextHeight)
	}
	if r := cfg.Telemetry.TraceSampleRatio; r < 0 || r > 1 {
		return nil, fmt.Errorf("TRACE_SAMPLE_RATIO must be within [0,1], got %v", r)
	}
	if cfg.Timing.PollInterval <= 0 || cfg.Timing.EnrichTimeout <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL and ENRICH_TIMEOUT must be positive")
	}

	return cfg, nil
}

// ValidateChatReady checks required fields for the chat transport.
func (c *Config) ValidateChatReady() error {
	if c.Twitch.Channel == "" || c.Twitch.BotUsername == "" || c.Twitch.OAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_OAUTH_TOKEN (TWITCH_BOT_USERNAME defaults to the channel)")
	}
	return nil
}

// ValidateHelixReady checks required fields for follow polling and profile lookups.
func (c *Config) ValidateHelixReady() error {
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID")
	}
	if c.Twitch.OAuthToken == "" && c.Twitch.ClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_OAUTH_TOKEN or TWITCH_CLIENT_SECRET")
	}
	return nil
}
