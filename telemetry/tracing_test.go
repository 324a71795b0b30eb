package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func attr(kvs []attribute.KeyValue, key string) string {
	for _, kv := range kvs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingOptions{ServiceName: "test"})
	if err != nil {
		t.Fatal(err)
	}
	if IsTracingEnabled() {
		t.Error("tracing enabled without endpoint")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown: %v", err)
	}
}

func TestStartSpanCarriesCorrelation(t *testing.T) {
	sr := withRecorder(t)
	ctx := WithCorrelation(context.Background(), "rec-1")
	_, span := StartSpan(ctx, "test", "playback.alert", AlertAttrs("Raid", "foo")...)
	SetSpanSuccess(span)
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	got := ended[0]
	if v := attr(got.Attributes(), "correlation_id"); v != "rec-1" {
		t.Errorf("correlation_id = %q", v)
	}
	if v := attr(got.Attributes(), "alert.kind"); v != "Raid" {
		t.Errorf("alert.kind = %q", v)
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status())
	}
}

func TestSpanErrorStatus(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartSpan(context.Background(), "test", "http GET /status", HTTPAttrs(http.MethodGet, "/status")...)
	SetSpanHTTPStatus(span, http.StatusServiceUnavailable)
	span.End()

	_, span = StartSpan(context.Background(), "test", "ingest.enrich")
	RecordError(span, errors.New("timeout"))
	span.End()

	ended := sr.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	for _, s := range ended {
		if s.Status().Code != codes.Error {
			t.Errorf("%s status = %v, want Error", s.Name(), s.Status())
		}
	}
	if len(ended[1].Events()) == 0 {
		t.Error("RecordError did not add an exception event")
	}
}
