// Command backend runs the stream alert overlay engine.
// It:
//   - Loads configuration and initializes structured logging, metrics and tracing.
//   - Builds the Helix client used for follower polling and profile image lookups.
//   - Reads host and raid notices from chat, polls the follower list, and queues alerts.
//   - Plays queued alerts on the in-memory scene, which is pushed to overlay clients over
//     a websocket at /overlay/ws.
//   - Exposes /healthz, /readyz, /status and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/chat"
	"github.com/onnwee/alert-overlay/backend/config"
	"github.com/onnwee/alert-overlay/backend/ingest"
	"github.com/onnwee/alert-overlay/backend/overlay"
	"github.com/onnwee/alert-overlay/backend/playback"
	"github.com/onnwee/alert-overlay/backend/render"
	"github.com/onnwee/alert-overlay/backend/server"
	"github.com/onnwee/alert-overlay/backend/telemetry"
	"github.com/onnwee/alert-overlay/backend/twitchapi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load("backend/.env", ".env")

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	shutdownTracing, err := telemetry.InitTracing(context.Background(), telemetry.TracingOptions{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		SampleRatio:    cfg.Telemetry.TraceSampleRatio,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("tracing shutdown", slog.Any("err", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := alert.NewQueue()
	follows := alert.NewFollowSet()

	var (
		lookup    ingest.ProfileLookup
		followers ingest.FollowerSource
	)
	channelID := cfg.Twitch.ChannelID
	if helix, err := newHelix(ctx, cfg); err != nil {
		slog.Warn("helix disabled; follows not polled and images use the placeholder", slog.Any("err", err))
	} else {
		lookup = helix
		if channelID == "" && cfg.Twitch.Channel != "" {
			rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			channelID, err = helix.GetUserID(rctx, cfg.Twitch.Channel)
			cancel()
			if err != nil {
				slog.Error("resolve broadcaster id failed", slog.String("channel", cfg.Twitch.Channel), slog.Any("err", err))
			}
		}
		if channelID != "" {
			followers = helix
		}
	}

	ing := ingest.New(queue, lookup, followers, follows, ingest.Config{
		ChannelID:        channelID,
		PlaceholderImage: cfg.Overlay.PlaceholderImage,
		EnrichTimeout:    cfg.Timing.EnrichTimeout,
	})

	hub := overlay.NewHub(cfg.HTTP.MaxOverlayClients)
	scene := render.NewScene(hub, render.DefaultMeasurer)
	hub.SetSnapshot(scene.Snapshot)
	go hub.Run()

	player := playback.New(scene, queue, cfg)

	handlers := &server.Handlers{
		Queue:            queue,
		Follows:          follows,
		Player:           player,
		Overlay:          hub,
		PlaceholderImage: cfg.Overlay.PlaceholderImage,
	}

	if transport, err := chat.New(cfg, ing); err != nil {
		slog.Info("chat disabled; hosts and raids will not be seen", slog.Any("err", err))
	} else {
		handlers.Chat = transport
		go func() {
			if err := transport.Run(ctx); err != nil {
				slog.Error("chat transport stopped", slog.Any("err", err))
			}
		}()
	}

	if followers != nil {
		go ing.RunFollowPoller(ctx, cfg.Timing.PollInterval)
	}

	playerDone := make(chan struct{})
	go func() {
		defer close(playerDone)
		if err := player.Run(ctx); err != nil {
			slog.Error("playback loop stopped", slog.Any("err", err))
		}
	}()

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		startPprof()
	}

	if err := server.Start(ctx, server.NewMux(ctx, handlers, cfg.HTTP), cfg.HTTP.Addr); err != nil {
		slog.Error("server exited", slog.Any("err", err))
		stop()
	}

	<-ctx.Done()
	slog.Info("shutting down")
	<-playerDone
	ing.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Shutdown(shutdownCtx); err != nil {
		slog.Warn("overlay hub shutdown", slog.Any("err", err))
	}
	slog.Info("shutdown complete", slog.Int("unplayed", queue.Len()))
}

// setupLogging configures the default logger (level + format). Defaults: level=info, format=text.
func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
}

// newHelix builds the Helix client from the configured credentials.
func newHelix(ctx context.Context, cfg *config.Config) (*twitchapi.HelixClient, error) {
	if err := cfg.ValidateHelixReady(); err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: 10 * time.Second}
	tokens, err := twitchapi.NewTokenSource(ctx, twitchapi.TokenConfig{
		ClientID:     cfg.Twitch.ClientID,
		ClientSecret: cfg.Twitch.ClientSecret,
		UserToken:    cfg.Twitch.OAuthToken,
		TokenURL:     cfg.Twitch.TokenURL,
	}, hc)
	if err != nil {
		return nil, err
	}
	return &twitchapi.HelixClient{
		BaseURL:    cfg.Twitch.HelixBaseURL,
		ClientID:   cfg.Twitch.ClientID,
		Tokens:     tokens,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.Twitch.HelixRatePerSec), cfg.Twitch.HelixBurst),
		HTTPClient: hc,
	}, nil
}

func startPprof() {
	addr := os.Getenv("PPROF_ADDR")
	if addr == "" {
		addr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", addr))
		srv := &http.Server{
			Addr:              addr,
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
