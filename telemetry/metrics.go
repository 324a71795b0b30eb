// Package telemetry provides Prometheus metrics, OpenTelemetry tracing and correlation-id aware
// logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for EnrichmentTotal and FollowPolls.
const (
	ResultOK       = "ok"
	ResultFallback = "fallback"
	ResultError    = "error"
	ResultSkipped  = "skipped"
	ResultSeeded   = "seeded"
)

var (
	once sync.Once

	// Counters
	AlertsEnqueued  *prometheus.CounterVec
	AlertsPlayed    *prometheus.CounterVec
	AlertBursts     prometheus.Counter
	EnrichmentTotal *prometheus.CounterVec
	FollowPolls     *prometheus.CounterVec

	// Histograms (seconds)
	PlaybackDuration prometheus.Observer
	EnrichDuration   prometheus.Observer

	// Gauges
	QueueDepthGauge     prometheus.Gauge
	OverlayClientsGauge prometheus.Gauge
	ChatConnectedGauge  prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		AlertsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{Name: "alerts_enqueued_total", Help: "Alerts appended to the queue"}, []string{"kind"})
		AlertsPlayed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "alerts_played_total", Help: "Alerts whose animation completed"}, []string{"kind"})
		AlertBursts = promauto.NewCounter(prometheus.CounterOpts{Name: "alert_bursts_total", Help: "Bursts started from an idle overlay"})
		EnrichmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "enrichment_total", Help: "Profile image lookups by result (ok|fallback)"}, []string{"result"})
		FollowPolls = promauto.NewCounterVec(prometheus.CounterOpts{Name: "follow_polls_total", Help: "Follower poll cycles by result (ok|seeded|skipped|error)"}, []string{"result"})
		PlaybackDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "alert_playback_duration_seconds", Help: "Time from dequeue to teardown of one alert", Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 20, 30}})
		EnrichDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "enrichment_duration_seconds", Help: "Profile image lookup duration including fallbacks", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5}})
		QueueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "alert_queue_depth", Help: "Current number of pending alerts"})
		OverlayClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_clients", Help: "Connected overlay websocket clients"})
		ChatConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_connected", Help: "Chat transport connected=1 disconnected=0"})
	})
}

// SetQueueDepth records current pending alert count.
func SetQueueDepth(n int) {
	if QueueDepthGauge != nil {
		QueueDepthGauge.Set(float64(n))
	}
}

// SetOverlayClients records the number of connected overlay clients.
func SetOverlayClients(n int) {
	if OverlayClientsGauge != nil {
		OverlayClientsGauge.Set(float64(n))
	}
}

// SetChatConnected sets gauge to 1 if connected else 0.
func SetChatConnected(up bool) {
	if ChatConnectedGauge == nil {
		return
	}
	if up {
		ChatConnectedGauge.Set(1)
	} else {
		ChatConnectedGauge.Set(0)
	}
}

// CountEnqueued increments the enqueued counter for kind.
func CountEnqueued(kind string) {
	if AlertsEnqueued != nil {
		AlertsEnqueued.WithLabelValues(kind).Inc()
	}
}

// CountPlayed increments the played counter for kind.
func CountPlayed(kind string) {
	if AlertsPlayed != nil {
		AlertsPlayed.WithLabelValues(kind).Inc()
	}
}

// CountBurst increments the burst counter.
func CountBurst() {
	if AlertBursts != nil {
		AlertBursts.Inc()
	}
}

// CountEnrichment increments the enrichment counter for result.
func CountEnrichment(result string) {
	if EnrichmentTotal != nil {
		EnrichmentTotal.WithLabelValues(result).Inc()
	}
}

// CountPoll increments the follow poll counter for result.
func CountPoll(result string) {
	if FollowPolls != nil {
		FollowPolls.WithLabelValues(result).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
