package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/telemetry"
)

// ErrPollSkipped is returned when a follower fetch was cancelled because the next tick was due.
var ErrPollSkipped = errors.New("follow poll did not resolve before the next tick")

// PollFollowers runs one poll cycle. The first successful fetch seeds the follow set and emits
// nothing; later fetches enrich the newly seen logins concurrently, append them in list order and
// return how many.
func (i *Ingestor) PollFollowers(ctx context.Context) (int, error) {
	if i.followers == nil {
		return 0, errors.New("no follower source configured")
	}
	ctx, span := telemetry.StartSpan(ctx, "ingest", "ingest.poll", attribute.String("channel_id", i.cfg.ChannelID))
	defer span.End()

	list, err := i.followers.Followers(ctx, i.cfg.ChannelID)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			telemetry.CountPoll(telemetry.ResultSkipped)
			return 0, fmt.Errorf("%w: %w", ErrPollSkipped, err)
		}
		telemetry.CountPoll(telemetry.ResultError)
		return 0, fmt.Errorf("fetch followers: %w", err)
	}

	if !i.follows.Seeded() {
		names := make([]string, len(list))
		for k, f := range list {
			names[k] = f.Name
		}
		i.follows.Seed(names)
		telemetry.CountPoll(telemetry.ResultSeeded)
		telemetry.SetSpanSuccess(span)
		i.log.Info("follower snapshot stored", slog.Int("followers", len(names)))
		return 0, nil
	}

	// enrichment outlives the poll deadline; it has its own timeout
	enrichCtx := context.WithoutCancel(ctx)
	var batch []detected
	for _, f := range list {
		if !i.follows.AddIfNew(f.Name) {
			continue
		}
		display := f.DisplayName
		if display == "" {
			display = f.Name
		}
		batch = append(batch, detected{kind: alert.Follow, display: display, login: f.Name})
	}
	i.spawn(enrichCtx, batch)
	emitted := len(batch)
	telemetry.CountPoll(telemetry.ResultOK)
	telemetry.SetSpanSuccess(span)
	return emitted, nil
}

// RunFollowPoller polls immediately and then every interval until ctx is done. Each cycle may
// take at most one interval; a slower fetch is cancelled and the cycle skipped.
func (i *Ingestor) RunFollowPoller(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		i.pollCycle(ctx, every)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (i *Ingestor) pollCycle(ctx context.Context, every time.Duration) {
	cctx, cancel := context.WithTimeout(ctx, every)
	defer cancel()

	n, err := i.PollFollowers(cctx)
	switch {
	case ctx.Err() != nil:
		// shutting down
	case errors.Is(err, ErrPollSkipped):
		i.log.Warn("follow poll skipped", slog.Duration("interval", every), slog.Any("err", err))
	case err != nil:
		i.log.Warn("follow poll failed", slog.Any("err", err))
	case n > 0:
		i.log.Info("new followers", slog.Int("count", n))
	}
}
