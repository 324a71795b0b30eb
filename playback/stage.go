package playback

import (
	"github.com/onnwee/alert-overlay/backend/alert"
	"github.com/onnwee/alert-overlay/backend/config"
	"github.com/onnwee/alert-overlay/backend/effects"
	"github.com/onnwee/alert-overlay/backend/render"
)

// Element ids of the overlay stage.
const (
	TopID     = "top"
	LabelID   = "text"
	ImageID   = "image"
	AlertID   = "alert"
	MessageID = "alert-text"
)

// Stage holds the elements an alert is played on.
type Stage struct {
	Top     render.Element // background
	Label   render.Element // kind label
	Image   render.Element // profile image
	Alert   render.Element // message box, sized by the sizer and nudged by the writer
	Message render.Element // message text inside Alert
}

// BuildStage looks up the stage elements on s, creating missing ones from the overlay geometry.
func BuildStage(s render.Surface, cfg config.OverlayConfig) *Stage {
	get := func(parent render.Element, id string, init func(render.Element)) render.Element {
		if el, ok := s.Lookup(id); ok {
			return el
		}
		el := s.New(id)
		init(el)
		s.Append(parent, el)
		return el
	}

	st := &Stage{}
	st.Top = get(nil, TopID, func(el render.Element) {
		el.SetSize(cfg.BackgroundWidth, cfg.BackgroundHeight)
		el.SetPosition(cfg.BackgroundOffsetX, cfg.BackgroundOffsetY)
	})
	st.Image = get(nil, ImageID, func(el render.Element) {
		el.SetSize(cfg.ImageSize, cfg.ImageSize)
		el.SetPosition(cfg.ImageOffsetX, cfg.ImageOffsetY)
	})
	st.Label = get(nil, LabelID, func(el render.Element) {
		el.SetText(cfg.LabelText)
	})
	st.Alert = get(nil, AlertID, func(el render.Element) {
		el.SetSize(cfg.AlertWidth, 0)
	})
	st.Message = get(st.Alert, MessageID, func(render.Element) {})
	return st
}

// Effects combines the transition and text effects into an Animator.
type Effects struct {
	*effects.Transitioner
	*effects.Writer
}

// New wires a Player for cfg drawing on scene: a transitioner and a writer nudging the alert
// box, and a message generator that fits each message to the alert box.
func New(scene *render.Scene, q *alert.Queue, cfg *config.Config) *Player {
	stage := BuildStage(scene, cfg.Overlay)
	fx := Effects{
		Transitioner: effects.NewTransitioner(scene, cfg.Overlay.SquareAmount, cfg.Overlay.SquareSpeed),
		Writer:       effects.NewWriter(scene, effects.NewNudger(stage.Alert)),
	}
	sizer := effects.NewSizer(scene.Measurer())
	gen := &alert.MessageGenerator{
		Fit: func(text string) { sizer.Fit(stage.Alert, text, cfg.Overlay.MaxTextHeight) },
	}
	return NewPlayer(q, fx, stage, gen, OptionsFromConfig(cfg))
}
