// Package effects implements the overlay animations: the cell-grid transition, the typewriter
// text reveal and the fit-to-box font sizer.
package effects

import (
	"context"
	"errors"
	"time"
)

// ErrMalformedOverlay is returned by Transition for an Overlay that is neither a color nor an image.
var ErrMalformedOverlay = errors.New("effects: overlay is neither color nor image")

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayColor
	overlayImage
)

// Overlay is what a transition paints: a solid CSS color or an image URL.
// Build it with Color or Image; the zero value is malformed.
type Overlay struct {
	kind  overlayKind
	value string
}

// Color returns a solid color overlay. An empty css value yields a malformed overlay.
func Color(css string) Overlay {
	if css == "" {
		return Overlay{}
	}
	return Overlay{kind: overlayColor, value: css}
}

// Image returns an image overlay. An empty url yields a malformed overlay.
func Image(url string) Overlay {
	if url == "" {
		return Overlay{}
	}
	return Overlay{kind: overlayImage, value: url}
}

func (o Overlay) IsColor() bool { return o.kind == overlayColor }
func (o Overlay) IsImage() bool { return o.kind == overlayImage }
func (o Overlay) Value() string { return o.value }

func (o Overlay) String() string {
	switch o.kind {
	case overlayColor:
		return "color(" + o.value + ")"
	case overlayImage:
		return "image(" + o.value + ")"
	default:
		return "malformed"
	}
}

// Point is a fixed position on the overlay in px.
type Point struct {
	X, Y float64
}

// sleep waits d or until ctx is done. A non-positive d only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
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
