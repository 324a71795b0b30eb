// Package ingest turns chat lines and follower polls into queued alert records.
package ingest

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/twitchapi"
)

// ProfileLookup resolves a login to a profile image URL.
type ProfileLookup interface {
	ProfileImageURL(ctx context.Context, login string) (string, error)
}

// FollowerSource lists the current followers of a broadcaster.
type FollowerSource interface {
	Followers(ctx context.Context, broadcasterID string) ([]twitchapi.Follower, error)
}

// Config holds the ingestion settings.
type Config struct {
	ChannelID        string
	PlaceholderImage string
	EnrichTimeout    time.Duration
}

// Ingestor feeds the alert queue from the chat stream and the follower poll.
type Ingestor struct {
	queue     *alert.Queue
	lookup    ProfileLookup
	followers FollowerSource
	follows   *alert.FollowSet
	cfg       Config
	log       *slog.Logger

	wg sync.WaitGroup

	seqMu sync.Mutex
	tail  chan struct{} // closed once the latest spawned batch is appended
}

// New returns an Ingestor. lookup and followers may be nil; without a lookup every record gets
// the placeholder image and without a follower source polling is disabled.
func New(q *alert.Queue, lookup ProfileLookup, followers FollowerSource, follows *alert.FollowSet, cfg Config) *Ingestor {
	if follows == nil {
		follows = alert.NewFollowSet()
	}
	return &Ingestor{
		queue:     q,
		lookup:    lookup,
		followers: followers,
		follows:   follows,
		cfg:       cfg,
		log:       slog.Default().With(slog.String("component", "ingest")),
	}
}

// Follows exposes the set of credited followers.
func (i *Ingestor) Follows() *alert.FollowSet { return i.follows }

// HandleLine dispatches one chat line and returns the reply to send, if any.
func (i *Ingestor) HandleLine(ctx context.Context, raw string) string {
	line := ParseLine(raw)
	switch line.Kind {
	case LinePing:
		return PongReply
	case LineHost:
		i.HandleHost(ctx, line.Name)
	case LineNotice:
		i.HandleRaid(line.Tags)
	}
	return ""
}

// HandleRaid appends a Raid record built from notice tags. It makes no network call and reports
// whether the tags described a raid.
func (i *Ingestor) HandleRaid(tags map[string]string) bool {
	if tags["msg-id"] != "raid" {
		return false
	}
	display := tags["display-name"]
	login := tags["login"]
	if login == "" {
		login = display
	}
	image := tags["msg-param-profileImageURL"]
	if image == "" {
		image = i.cfg.PlaceholderImage
	}
	viewers, err := strconv.Atoi(tags["msg-param-viewerCount"])
	if err != nil {
		i.log.Debug("raid viewer count not numeric", slog.String("value", tags["msg-param-viewerCount"]))
		viewers = 0
	}

	rec := alert.NewRecord(alert.Raid, display, login, image)
	rec.ViewerCount = viewers
	i.enqueue(rec)
	return true
}

// HandleHost enriches and appends a Host record on a tracked goroutine. The matched name is
// used as both display and login name.
func (i *Ingestor) HandleHost(ctx context.Context, name string) {
	i.spawn(ctx, []detected{{kind: alert.Host, display: name, login: name}})
}

// Wait blocks until all enrichment goroutines have appended their records.
func (i *Ingestor) Wait() { i.wg.Wait() }

// detected is a user seen by a producer, waiting for its profile image.
type detected struct {
	kind           alert.Kind
	display, login string
}

// spawn enriches batch concurrently without blocking the caller, then appends the records in
// batch order once every earlier batch has been appended.
func (i *Ingestor) spawn(ctx context.Context, batch []detected) {
	if len(batch) == 0 {
		return
	}
	done := make(chan struct{})
	i.seqMu.Lock()
	prev := i.tail
	i.tail = done
	i.seqMu.Unlock()

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		defer close(done)

		images := make([]string, len(batch))
		var g errgroup.Group
		for k, d := range batch {
			k, d := k, d
			g.Go(func() error {
				images[k] = i.Enrich(ctx, d.login)
				return nil
			})
		}
		_ = g.Wait() // Enrich falls back instead of failing

		if prev != nil {
			<-prev
		}
		for k, d := range batch {
			i.enqueue(alert.NewRecord(d.kind, d.display, d.login, images[k]))
		}
	}()
}

func (i *Ingestor) enqueue(rec alert.Record) {
	if err := i.queue.Enqueue(rec); err != nil {
		i.log.Error("enqueue alert", slog.Any("err", err), slog.String("kind", rec.Kind.String()))
		return
	}
	i.log.Info("alert queued",
		slog.String("id", rec.ID),
		slog.String("kind", rec.Kind.String()),
		slog.String("user", rec.DisplayName),
		slog.Int("pending", i.queue.Len()))
}
