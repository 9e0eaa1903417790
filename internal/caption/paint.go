package caption

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/textlayout"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5523

// Paint draws the rounded background and then the text lines. An empty box
// paints nothing.
func Paint(dst *image.RGBA, box Box, lines []string, face font.Face, style config.CaptionStyle) {
	if box.Empty() || len(lines) == 0 {
		return
	}

	bg, err := config.ParseHexColor(style.BackgroundColor)
	if err != nil {
		bg = color.RGBA{A: 0xff}
	}
	alpha := uint8(math.Round(clamp01(style.BackgroundOpacity) * 255))
	FillRoundedRect(dst, box.X, box.Y, box.W, box.H, box.Radius, color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: alpha})

	fg, err := config.ParseHexColor(style.FontColor)
	if err != nil {
		fg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}

	ascent, descent := textlayout.Metrics(face)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: face}
	for i, line := range lines {
		w := textlayout.Float(d.MeasureString(line))
		var x float64
		switch style.TextAlign {
		case "left":
			x = box.X + box.PadH
		case "right":
			x = box.X + box.W - box.PadH - w
		default:
			x = box.X + (box.W-w)/2
		}
		baseline := box.LineCenterY(i) + (ascent-descent)/2
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)}
		d.DrawString(line)
	}
}

// FillRoundedRect composites a filled rounded rectangle over dst. The shape
// is rasterized into its own mask so parts outside dst are simply clipped.
func FillRoundedRect(dst *image.RGBA, x, y, w, h, r float64, c color.Color) {
	origin := image.Pt(int(math.Floor(x)), int(math.Floor(y)))
	full := image.Rect(origin.X, origin.Y, int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	clip := full.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}

	r = math.Min(r, math.Min(w, h)/2)
	x0, y0 := float32(x-float64(origin.X)), float32(y-float64(origin.Y))
	x1, y1 := x0+float32(w), y0+float32(h)
	rr, k := float32(r), float32(r*kappa)

	z := vector.NewRasterizer(full.Dx(), full.Dy())
	z.MoveTo(x0+rr, y0)
	z.LineTo(x1-rr, y0)
	z.CubeTo(x1-rr+k, y0, x1, y0+rr-k, x1, y0+rr)
	z.LineTo(x1, y1-rr)
	z.CubeTo(x1, y1-rr+k, x1-rr+k, y1, x1-rr, y1)
	z.LineTo(x0+rr, y1)
	z.CubeTo(x0+rr-k, y1, x0, y1-rr+k, x0, y1-rr)
	z.LineTo(x0, y0+rr)
	z.CubeTo(x0, y0+rr-k, x0+rr-k, y0, x0+rr, y0)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, full.Dx(), full.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, clip, image.NewUniform(c), image.Point{}, mask, clip.Min.Sub(origin), draw.Over)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
