package effects

import "github.com/onnwee/alert-overlay/backend/render"

// Font size bounds applied by Sizer.
const (
	MinFontSize = 1
	MaxFontSize = 512
)

// HeightMeasurer reports the height text takes at a box width and font size.
type HeightMeasurer interface {
	Height(text string, boxWidth, fontSize float64) float64
}

// Sizer picks the font size at which text fits a box height.
type Sizer struct {
	Measurer HeightMeasurer
}

func NewSizer(m HeightMeasurer) *Sizer { return &Sizer{Measurer: m} }

// Fit grows the font size of el by 1px while text is shorter than maxHeight, then shrinks it
// while taller, applies the result and returns it. Growing first means the result never
// overflows. Applying Fit twice gives the same size.
func (s *Sizer) Fit(el render.Element, text string, maxHeight float64) float64 {
	w, _ := el.Size()
	fs := clampFont(el.FontSize())
	height := func(f float64) float64 { return s.Measurer.Height(text, w, f) }

	for height(fs) < maxHeight && fs < MaxFontSize {
		fs++
	}
	for height(fs) > maxHeight && fs > MinFontSize {
		fs--
	}

	el.SetFontSize(fs)
	return fs
}

func clampFont(fs float64) float64 {
	switch {
	case fs < MinFontSize:
		return MinFontSize
	case fs > MaxFontSize:
		return MaxFontSize
	default:
		return float64(int(fs))
	}
}
