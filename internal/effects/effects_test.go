package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/beat2video/internal/config"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestNeutralGradingIsEmpty(t *testing.T) {
	if chain := FromGrading(config.NeutralGrading()); len(chain) != 0 {
		t.Errorf("neutral grading built %d effects", len(chain))
	}

	g, err := config.GradingPreset("kodak_5219")
	if err != nil {
		t.Fatal(err)
	}
	if chain := FromGrading(g); len(chain) != 3 {
		t.Errorf("KODAK_5219 should give color, halation and bloom, got %d effects", len(chain))
	}
}

func TestColorGradeNeutralKeepsPixels(t *testing.T) {
	img := solid(4, 4, color.RGBA{R: 12, G: 130, B: 250, A: 255})
	NewColorGrade(config.NeutralGrading()).Apply(img)
	if c := img.RGBAAt(1, 1); c != (color.RGBA{R: 12, G: 130, B: 250, A: 255}) {
		t.Errorf("neutral grade changed pixel to %v", c)
	}
}

func TestColorGradeAdjustments(t *testing.T) {
	gray := color.RGBA{R: 100, G: 100, B: 100, A: 255}

	g := config.NeutralGrading()
	g.Brightness = 1.5
	img := solid(2, 2, gray)
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); c.R != 150 {
		t.Errorf("brightness 1.5 gave %v", c)
	}

	g = config.NeutralGrading()
	g.Saturation = 0
	img = solid(2, 2, color.RGBA{R: 255, A: 255})
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); c.R != c.G || c.G != c.B {
		t.Errorf("saturation 0 should give gray, got %v", c)
	}

	g = config.NeutralGrading()
	g.TintB = 0.5
	g.TintR = 1.4
	img = solid(2, 2, gray)
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); c.B != 50 || c.R != 100 {
		t.Errorf("tint gave %v", c)
	}
}

func TestHalationWarmsBlack(t *testing.T) {
	img := solid(2, 2, color.RGBA{A: 255})
	NewHalation(0.5).Apply(img)
	c := img.RGBAAt(0, 0)
	if c.R == 0 || c.R <= c.G || c.B != 0 {
		t.Errorf("halation on black gave %v", c)
	}
}

func TestBloomBrightensOnly(t *testing.T) {
	img := solid(64, 64, color.RGBA{R: 80, G: 80, B: 80, A: 255})
	(&Bloom{Strength: 0.5}).Apply(img)
	for _, p := range []image.Point{{0, 0}, {32, 32}, {63, 63}} {
		if c := img.RGBAAt(p.X, p.Y); c.R < 80 {
			t.Errorf("bloom darkened %v to %v", p, c)
		}
	}
	if c := img.RGBAAt(32, 32); c.R == 80 {
		t.Error("bloom had no effect")
	}
}

func TestVignetteDarkensCorners(t *testing.T) {
	img := solid(100, 60, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	(&Vignette{Strength: 1}).Apply(img)

	center := img.RGBAAt(50, 30)
	corner := img.RGBAAt(0, 0)
	if center.R < 195 {
		t.Errorf("center too dark: %v", center)
	}
	if corner.R > 20 {
		t.Errorf("corner not darkened: %v", corner)
	}
	if img.RGBAAt(0, 0).A != 255 {
		t.Error("alpha changed")
	}
}

func TestColorGradeSepiaAndHue(t *testing.T) {
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}

	g := config.NeutralGrading()
	g.Sepia = 1
	img := solid(2, 2, gray)
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); !(c.R > c.G && c.G > c.B) {
		t.Errorf("full sepia on gray should warm it, got %v", c)
	}

	// A hue rotation keeps neutral grays neutral.
	g = config.NeutralGrading()
	g.HueRotate = 90
	img = solid(2, 2, gray)
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); absDiff(c.R, 128) > 1 || absDiff(c.G, 128) > 1 || absDiff(c.B, 128) > 1 {
		t.Errorf("hue rotation changed gray to %v", c)
	}

	img = solid(2, 2, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	NewColorGrade(g).Apply(img)
	if c := img.RGBAAt(0, 0); c.R >= 200 || c.G <= 40 {
		t.Errorf("hue rotation left red unchanged: %v", c)
	}
}

func TestPresetHueGivesColorStage(t *testing.T) {
	g := config.NeutralGrading()
	g.HueRotate = -2
	if chain := FromGrading(g); len(chain) != 1 {
		t.Errorf("hue-only grade built %d effects", len(chain))
	}
}

func absDiff(a uint8, b int) int {
	d := int(a) - b
	if d < 0 {
		return -d
	}
	return d
}
