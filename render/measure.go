package render

import (
	"math"
	"strings"

	"golang.org/x/text/width"
)

// Measurer estimates the height of wrapped text. It stands in for an off-screen browser clone:
// every narrow rune is CharWidth×fontSize wide, East Asian wide and fullwidth runes count double,
// and each line is LineHeight×fontSize tall. Height never decreases as the font size grows.
type Measurer struct {
	CharWidth  float64
	LineHeight float64
}

// DefaultMeasurer approximates a proportional sans-serif face.
var DefaultMeasurer = Measurer{CharWidth: 0.55, LineHeight: 1.2}

// Height returns the rendered height of text wrapped at boxWidth with the given font size.
// Empty text has no height.
func (m Measurer) Height(text string, boxWidth, fontSize float64) float64 {
	if fontSize <= 0 || strings.TrimSpace(text) == "" {
		return 0
	}
	return float64(m.Lines(text, boxWidth, fontSize)) * m.LineHeight * fontSize
}

// Lines greedily wraps text on spaces and returns the number of lines. Words wider than the
// box are broken.
func (m Measurer) Lines(text string, boxWidth, fontSize float64) int {
	unit := m.CharWidth * fontSize
	capacity := 1
	if unit > 0 && boxWidth > 0 {
		capacity = int(math.Floor(boxWidth / unit))
	}
	if capacity < 1 {
		capacity = 1
	}

	lines := 0
	used := 0
	for _, line := range strings.Split(text, "\n") {
		lines++
		used = 0
		for _, word := range strings.Fields(line) {
			w := units(word)
			switch {
			case used == 0:
			case used+1+w <= capacity:
				used++ // space
			default:
				lines++
				used = 0
			}
			for w > capacity-used {
				// break an overlong word
				w -= capacity - used
				lines++
				used = 0
			}
			used += w
		}
	}
	return lines
}

func units(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
