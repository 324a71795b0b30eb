// Package playback runs the single consumer loop that animates queued alerts.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/config"
	"github.com/onnwee/alert-overlay/backend/effects"
	"github.com/onnwee/alert-overlay/backend/render"
	"github.com/onnwee/alert-overlay/backend/telemetry"
)

// Animator plays the transition and text effects.
type Animator interface {
	Transition(ctx context.Context, el render.Element, ov effects.Overlay, origin effects.Point) error
	Write(ctx context.Context, label render.Element, text string, speed time.Duration, blinking bool) error
}

// Options are the colors, placement and pacing of playback.
type Options struct {
	BackgroundColor  string
	ClearColor       string
	BackgroundOrigin effects.Point
	ImageOrigin      effects.Point

	LabelSpeed   time.Duration
	MessageSpeed time.Duration
	Dwell        time.Duration
	IdleInterval time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BackgroundColor:  cfg.Overlay.BackgroundColor,
		ClearColor:       cfg.Overlay.ClearColor,
		BackgroundOrigin: effects.Point{X: cfg.Overlay.BackgroundOffsetX, Y: cfg.Overlay.BackgroundOffsetY},
		ImageOrigin:      effects.Point{X: cfg.Overlay.ImageOffsetX, Y: cfg.Overlay.ImageOffsetY},
		LabelSpeed:       cfg.Timing.LabelSpeed,
		MessageSpeed:     cfg.Timing.MessageSpeed,
		Dwell:            cfg.Timing.Dwell,
		IdleInterval:     cfg.Timing.IdleInterval,
	}
}

// Player drains the alert queue in bursts. It is the only consumer of the queue.
type Player struct {
	queue *alert.Queue
	anim  Animator
	stage *Stage
	gen   *alert.MessageGenerator
	opts  Options
	log   *slog.Logger

	mu      sync.Mutex
	session Session
	running atomic.Bool
}

func NewPlayer(q *alert.Queue, anim Animator, stage *Stage, gen *alert.MessageGenerator, opts Options) *Player {
	if gen == nil {
		gen = &alert.MessageGenerator{}
	}
	return &Player{
		queue: q,
		anim:  anim,
		stage: stage,
		gen:   gen,
		opts:  opts,
		log:   slog.Default().With(slog.String("component", "playback")),
	}
}

// Running reports whether Run is active.
func (p *Player) Running() bool { return p.running.Load() }

// Run drains the queue, waits the idle interval and repeats until ctx is done.
func (p *Player) Run(ctx context.Context) error {
	p.running.Store(true)
	defer p.running.Store(false)
	p.log.Info("playback loop started", slog.Duration("idle_interval", p.opts.IdleInterval))

	for {
		p.drain(ctx)
		// the full idle interval passes after every drain, however long the burst took
		if err := wait(ctx, p.idleInterval()); err != nil {
			p.log.Info("playback loop stopped")
			return nil
		}
	}
}

func (p *Player) idleInterval() time.Duration {
	if p.opts.IdleInterval > 0 {
		return p.opts.IdleInterval
	}
	return 5 * time.Second
}

// drain plays records until the queue is empty. The length is re-checked after every record so
// alerts queued mid-burst join the burst.
func (p *Player) drain(ctx context.Context) {
	for p.queue.Len() > 0 && ctx.Err() == nil {
		rec, err := p.playNext(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		lg := p.log
		if rec.ID != "" {
			lg = telemetry.LoggerWithCorr(telemetry.WithCorrelation(ctx, rec.ID)).With(slog.String("component", "playback"))
		}
		if IsDefect(err) {
			lg.Error("alert playback defect", slog.String("kind", rec.Kind.String()), slog.Any("err", err))
		} else {
			lg.Warn("alert playback failed", slog.String("kind", rec.Kind.String()), slog.Any("err", err))
		}
		p.resetSession()
	}
}

// playNext plays the head of the queue through the opening, reveal, dwell, teardown and, when
// it was the last pending alert, the close of the burst.
func (p *Player) playNext(ctx context.Context) (alert.Record, error) {
	g, gctx := errgroup.WithContext(ctx)

	if !p.Session().Active {
		saved := p.stage.Label.Text()
		p.updateSession(func(s *Session) { *s = Session{Active: true, SavedText: saved} })
		telemetry.CountBurst()
		g.Go(func() error {
			return p.anim.Transition(gctx, p.stage.Top, effects.Color(p.opts.BackgroundColor), p.opts.BackgroundOrigin)
		})
	}

	rec, ok := p.queue.Dequeue()
	if !ok {
		return alert.Record{}, g.Wait()
	}

	ctx = telemetry.WithCorrelation(ctx, rec.ID)
	ctx, span := telemetry.StartSpan(ctx, "playback", "playback.alert", telemetry.AlertAttrs(rec.Kind.String(), rec.Login)...)
	defer span.End()
	start := time.Now()

	fail := func(phase string, err error) (alert.Record, error) {
		err = fmt.Errorf("%s: %w", phase, err)
		telemetry.RecordError(span, err)
		return rec, err
	}

	if p.Session().PreviousKind != rec.Kind {
		p.updateSession(func(s *Session) { s.PreviousKind = rec.Kind })
		g.Go(func() error {
			return p.anim.Write(gctx, p.stage.Label, rec.Kind.String(), p.opts.LabelSpeed, false)
		})
	}
	if err := g.Wait(); err != nil {
		return fail("open", err)
	}

	msg := p.gen.Generate(rec.Kind, rec.DisplayName)
	if err := p.both(ctx,
		func(c context.Context) error {
			return p.anim.Transition(c, p.stage.Image, effects.Image(rec.ImageURL), p.opts.ImageOrigin)
		},
		func(c context.Context) error {
			return p.anim.Write(c, p.stage.Message, msg, p.opts.MessageSpeed, true)
		},
	); err != nil {
		return fail("reveal", err)
	}

	if err := wait(ctx, p.opts.Dwell); err != nil {
		return fail("dwell", err)
	}

	if err := p.both(ctx,
		func(c context.Context) error {
			return p.anim.Transition(c, p.stage.Image, effects.Color(p.opts.ClearColor), p.opts.ImageOrigin)
		},
		func(c context.Context) error {
			return p.anim.Write(c, p.stage.Message, "", p.opts.MessageSpeed, false)
		},
	); err != nil {
		return fail("teardown", err)
	}

	if p.queue.Len() == 0 {
		saved := p.Session().SavedText
		if err := p.both(ctx,
			func(c context.Context) error {
				return p.anim.Transition(c, p.stage.Top, effects.Color(p.opts.ClearColor), p.opts.BackgroundOrigin)
			},
			func(c context.Context) error {
				return p.anim.Write(c, p.stage.Label, saved, p.opts.LabelSpeed, false)
			},
		); err != nil {
			return fail("close", err)
		}
		p.updateSession(func(s *Session) { s.Active = false })
	}

	d := time.Since(start)
	if telemetry.PlaybackDuration != nil {
		telemetry.PlaybackDuration.Observe(d.Seconds())
	}
	telemetry.CountPlayed(rec.Kind.String())
	telemetry.SetSpanSuccess(span)
	telemetry.LoggerWithCorr(ctx).Info("alert played",
		slog.String("kind", rec.Kind.String()),
		slog.String("user", rec.DisplayName),
		slog.Duration("took", d))
	return rec, nil
}

// both runs a and b concurrently and returns the first error once both have finished.
func (p *Player) both(ctx context.Context, a, b func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a(gctx) })
	g.Go(func() error { return b(gctx) })
	return g.Wait()
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsDefect reports whether err comes from a misuse of the effects rather than cancellation.
func IsDefect(err error) bool {
	return errors.Is(err, effects.ErrMalformedOverlay)
}
