package analyzer

import (
	"image"
	"math"

	"github.com/ivlev/beat2video/internal/renderer"
)

// FocusLine is where the center of the focus region should land, as a share
// of the canvas height from the top. It sits above the bottom caption band.
const FocusLine = 0.4

// Focus merges the dominant blocks into one region: every block at least a
// quarter the area of the largest one. ok is false when there are no blocks.
func Focus(blocks []Block) (region image.Rectangle, ok bool) {
	largest := 0
	for _, b := range blocks {
		largest = max(largest, b.Rect.Dx()*b.Rect.Dy())
	}
	if largest == 0 {
		return image.Rectangle{}, false
	}
	for _, b := range blocks {
		if 4*b.Rect.Dx()*b.Rect.Dy() >= largest {
			region = region.Union(b.Rect)
		}
	}
	return region, true
}

// SuggestOffset returns the vertical offset percent that puts the center of
// focus on FocusLine when an image of bounds src is cover-fitted to canvas.
// The result stays within [-100, 0] and never uncovers the canvas on the
// first frame of a beat.
func SuggestOffset(canvas image.Point, src, focus image.Rectangle) float64 {
	if canvas.Y <= 0 || src.Empty() {
		return 0
	}
	h := float64(canvas.Y)
	s := renderer.CoverScale(canvas, src.Size())
	centerY := (float64(focus.Min.Y+focus.Max.Y)/2 - float64(src.Min.Y)) * s

	offset := (FocusLine*h - centerY) / h * 100
	lowest := math.Max(-100, -(float64(src.Dy())*s-h)/h*100)
	offset = math.Max(lowest, math.Min(0, offset))
	return math.Round(offset*10) / 10
}

// Frame runs d over img and returns the suggested offset. Images without
// any detected region keep the default top alignment.
func Frame(d Detector, img image.Image, canvas image.Point) (float64, error) {
	blocks, err := d.Detect(img)
	if err != nil {
		return 0, err
	}
	focus, ok := Focus(blocks)
	if !ok {
		return 0, nil
	}
	return SuggestOffset(canvas, img.Bounds(), focus), nil
}
