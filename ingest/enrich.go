package ingest

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/alert-overlay/backend/telemetry"
)

var errNoLookup = errors.New("no profile lookup configured")

// Enrich returns the profile image of login, or the placeholder when the lookup fails or does
// not finish within the enrichment timeout. The in-flight request is cancelled on timeout.
func (i *Ingestor) Enrich(ctx context.Context, login string) string {
	ctx, span := telemetry.StartSpan(ctx, "ingest", "ingest.enrich", attribute.String("alert.login", login))
	defer span.End()

	if i.cfg.EnrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.EnrichTimeout)
		defer cancel()
	}

	var (
		url string
		err error
	)
	d := telemetry.TimeFunc(telemetry.EnrichDuration, func() {
		if i.lookup == nil {
			err = errNoLookup
			return
		}
		url, err = i.lookup.ProfileImageURL(ctx, login)
	})
	if err == nil && url == "" {
		err = errors.New("empty profile image url")
	}
	if err != nil {
		i.log.Warn("profile image lookup failed, using placeholder",
			slog.String("login", login),
			slog.Duration("took", d),
			slog.Any("err", err))
		telemetry.RecordError(span, err)
		telemetry.CountEnrichment(telemetry.ResultFallback)
		return i.cfg.PlaceholderImage
	}

	telemetry.CountEnrichment(telemetry.ResultOK)
	telemetry.SetSpanSuccess(span)
	return url
}
