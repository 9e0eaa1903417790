package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Grading is the project-wide color grade. Brightness, contrast, saturation
// and the tint channels are neutral at 1.0; sepia, hue rotation and the
// optical effects are off at 0. Tint is a multiply blend, so channel values
// above 1.0 behave like 1.0. HueRotate is in degrees.
type Grading struct {
	Preset     string  `yaml:"preset,omitempty"`
	Brightness float64 `yaml:"brightness"`
	Contrast   float64 `yaml:"contrast"`
	Saturation float64 `yaml:"saturation"`
	Sepia      float64 `yaml:"sepia,omitempty"`
	HueRotate  float64 `yaml:"hue_rotate,omitempty"`
	TintR      float64 `yaml:"tint_r"`
	TintG      float64 `yaml:"tint_g"`
	TintB      float64 `yaml:"tint_b"`
	Bloom      float64 `yaml:"bloom"`
	Halation   float64 `yaml:"halation"`
	Vignette   float64 `yaml:"vignette"`
}

func NeutralGrading() Grading {
	return Grading{Brightness: 1, Contrast: 1, Saturation: 1, TintR: 1, TintG: 1, TintB: 1}
}

// Film stock presets from the grading lab.
var gradingPresets = map[string]Grading{
	"KODAK_5219": {Brightness: 1.02, Contrast: 1.1, Saturation: 1.1, Sepia: 0.05, HueRotate: -5, TintR: 1, TintG: 1, TintB: 1, Bloom: 0.1, Halation: 0.1},
	"FUJI_3513":  {Brightness: 0.95, Contrast: 1.3, Saturation: 0.9, HueRotate: 5, TintR: 1, TintG: 1, TintB: 1, Bloom: 0.05, Halation: 0.05},
	"AGFA_VISTA": {Brightness: 1.05, Contrast: 1.1, Saturation: 1.4, TintR: 1, TintG: 1, TintB: 1, Bloom: 0.15, Halation: 0.08},
	"EKTACHROME": {Brightness: 1.1, Contrast: 1.5, Saturation: 1.3, HueRotate: -2, TintR: 1, TintG: 1, TintB: 1},
}

// GradingPreset returns a named film preset.
func GradingPreset(name string) (Grading, error) {
	g, ok := gradingPresets[strings.ToUpper(name)]
	if !ok {
		return Grading{}, fmt.Errorf("%w: unknown grading preset %q", ErrInvalidProject, name)
	}
	g.Preset = strings.ToUpper(name)
	return g, nil
}

// IsNeutral reports whether applying g would leave pixels untouched.
func (g Grading) IsNeutral() bool {
	return g.IsNeutralColor() && g.Bloom == 0 && g.Halation == 0 && g.Vignette == 0
}

// IsNeutralColor reports whether the per-pixel color part of g is a no-op.
func (g Grading) IsNeutralColor() bool {
	n := NeutralGrading()
	return g.Brightness == n.Brightness && g.Contrast == n.Contrast && g.Saturation == n.Saturation &&
		g.Sepia == 0 && g.HueRotate == 0 &&
		g.TintR == n.TintR && g.TintG == n.TintG && g.TintB == n.TintB
}

func (g Grading) Validate() error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"brightness", g.Brightness, 0, 3},
		{"contrast", g.Contrast, 0, 3},
		{"saturation", g.Saturation, 0, 3},
		{"sepia", g.Sepia, 0, 1},
		{"hue_rotate", g.HueRotate, -180, 180},
		{"tint_r", g.TintR, 0, 1.5},
		{"tint_g", g.TintG, 0, 1.5},
		{"tint_b", g.TintB, 0, 1.5},
		{"bloom", g.Bloom, 0, 0.8},
		{"halation", g.Halation, 0, 0.5},
		{"vignette", g.Vignette, 0, 1},
	}
	for _, c := range checks {
		if c.v < c.min || c.v > c.max {
			return fmt.Errorf("%w: grading %s=%v outside [%v,%v]", ErrInvalidProject, c.name, c.v, c.min, c.max)
		}
	}
	return nil
}

// ParseHexColor parses #rgb or #rrggbb into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
