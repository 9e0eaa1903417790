package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Measurer reports the rendered width of a string in pixels under whatever
// font it was built with.
type Measurer interface {
	Measure(s string) float64
}

// FaceMeasurer measures with a concrete font face.
type FaceMeasurer struct {
	Face font.Face
}

func (m FaceMeasurer) Measure(s string) float64 {
	return Float(font.MeasureString(m.Face, s))
}

// Float converts a 26.6 fixed-point value to pixels.
func Float(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Wrap breaks text into lines no wider than maxWidth. Newlines are hard
// breaks; words are split on single spaces and never hyphenated, so a word
// wider than maxWidth ends up alone on its own line.
func Wrap(m Measurer, text string, maxWidth float64) []string {
	var lines []string
	for _, section := range strings.Split(text, "\n") {
		current := ""
		for _, word := range strings.Split(section, " ") {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if current != "" && m.Measure(candidate) > maxWidth {
				lines = append(lines, current)
				current = word
			} else {
				current = candidate
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// Widths measures every line.
func Widths(m Measurer, lines []string) []float64 {
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = m.Measure(l)
	}
	return out
}
