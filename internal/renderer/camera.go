package renderer

import (
	"image"
	"math"

	"golang.org/x/image/math/f64"
)

// ZoomRange is how far the Ken-Burns zoom travels over one beat.
const ZoomRange = 0.12

// CameraState is where a beat image lands on the canvas for one frame.
// X and Y are the top-left corner of the scaled image in canvas pixels.
type CameraState struct {
	X    float64
	Y    float64
	Zoom float64
}

// Scale is the Ken-Burns zoom at fractional progress p through a beat.
// It starts at 1.0 on the first frame of every beat and grows linearly
// toward 1+ZoomRange.
func Scale(p float64) float64 {
	return lerp(1, 1+ZoomRange, clamp(p, 0, 1))
}

// CoverScale is the smallest uniform scale at which an image of size img
// covers the whole canvas.
func CoverScale(canvas, img image.Point) float64 {
	if img.X <= 0 || img.Y <= 0 {
		return 1
	}
	return math.Max(float64(canvas.X)/float64(img.X), float64(canvas.Y)/float64(img.Y))
}

// Camera places an image with bounds src on a canvas at progress p. The
// image is centered horizontally and its top edge sits offsetPercent of
// the canvas height below the canvas top.
func Camera(canvas image.Point, src image.Rectangle, offsetPercent, p float64) CameraState {
	zoom := CoverScale(canvas, src.Size()) * Scale(p)
	drawW := float64(src.Dx()) * zoom
	return CameraState{
		X:    (float64(canvas.X) - drawW) / 2,
		Y:    offsetPercent * float64(canvas.Y) / 100,
		Zoom: zoom,
	}
}

// Transform is the source-to-canvas matrix for x/image/draw. Source
// bounds that do not start at the origin are accounted for.
func (c CameraState) Transform(src image.Rectangle) f64.Aff3 {
	return f64.Aff3{
		c.Zoom, 0, c.X - c.Zoom*float64(src.Min.X),
		0, c.Zoom, c.Y - c.Zoom*float64(src.Min.Y),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
