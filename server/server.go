// Package server exposes the HTTP surface: health, readiness, status, metrics, the overlay
// websocket and a token protected admin route. It injects correlation IDs into request contexts
// for consistent logging and wraps each request in a tracing span.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/alert-overlay/backend/config"
	"github.com/onnwee/alert-overlay/backend/telemetry"
)

// NewMux returns the HTTP handler with all routes.
// The provided context bounds the admin rate limiter's cleanup goroutine.
func NewMux(ctx context.Context, h *Handlers, cfg config.HTTPConfig) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.HandleHealthz)
	mux.HandleFunc("/readyz", h.HandleReadyz)
	mux.HandleFunc("/status", h.HandleStatus)
	if h.Overlay != nil {
		mux.HandleFunc("/overlay/ws", h.Overlay.ServeWS)
	}

	if cfg.AdminToken != "" {
		limiter := newIPRateLimiter(ctx, cfg.AdminRatePerMinute)
		mux.Handle("/admin/test-alert", adminAuth(rateLimitMiddleware(http.HandlerFunc(h.HandleTestAlert), limiter), cfg.AdminToken))
	} else {
		slog.Info("ADMIN_TOKEN not set; admin routes disabled", slog.String("component", "http"))
	}

	return withCORS(withCorrelation(mux), cfg.CORSAllowedOrigins)
}

// withCorrelation reuses or generates X-Correlation-ID and starts a span per request.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", "http "+r.Method+" "+r.URL.Path,
			telemetry.HTTPAttrs(r.Method, r.URL.Path)...)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
		if rec.statusCode >= 500 {
			telemetry.RecordError(span, fmt.Errorf("HTTP %d", rec.statusCode))
		}
	})
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
