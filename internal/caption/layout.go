package caption

import (
	"math"

	"github.com/ivlev/beat2video/internal/config"
)

// LineHeightFactor is the line pitch relative to the font size.
const LineHeightFactor = 1.4

// BottomAnchor is the share of the frame height kept free under a
// bottom-anchored caption box.
const BottomAnchor = 0.15

// Params is everything layout depends on. FontSize is already scaled to the
// canvas.
type Params struct {
	FontSize float64
	Style    config.CaptionStyle
	CanvasW  int
	CanvasH  int
	Centered bool
}

// Box is the caption background geometry.
type Box struct {
	X, Y, W, H float64
	Radius     float64
	PadH, PadV float64
	LineHeight float64
	FontSize   float64
	Lines      int
}

func (b Box) Empty() bool { return b.Lines == 0 }

// Spacing returns the horizontal padding, vertical padding, corner radius
// and outer margin for a scaled font size, each rounded to whole pixels.
func Spacing(fontSize float64, style config.CaptionStyle) (padH, padV, radius, margin float64) {
	padH = math.Round(fontSize * style.PaddingHMult)
	padV = math.Round(fontSize * style.PaddingVMult)
	radius = math.Round(fontSize * style.RadiusMult)
	margin = math.Round(fontSize * style.MarginMult)
	return
}

// MaxTextWidth is the wrap width: the canvas minus margins and padding on
// both sides.
func MaxTextWidth(canvasW int, fontSize float64, style config.CaptionStyle) float64 {
	padH, _, _, margin := Spacing(fontSize, style)
	return float64(canvasW) - 2*margin - 2*padH
}

// Layout computes the box around lines whose rendered widths are given.
// The box is always horizontally centered. Centered boxes sit in the middle
// of the frame; others have their bottom edge 15% above the frame bottom.
func Layout(widths []float64, p Params) Box {
	if len(widths) == 0 {
		return Box{}
	}

	padH, padV, radius, _ := Spacing(p.FontSize, p.Style)
	lineH := p.FontSize * LineHeightFactor

	maxW := 0.0
	for _, w := range widths {
		if w > maxW {
			maxW = w
		}
	}

	box := Box{
		W:          maxW + 2*padH,
		H:          float64(len(widths))*lineH + 2*padV,
		Radius:     radius,
		PadH:       padH,
		PadV:       padV,
		LineHeight: lineH,
		FontSize:   p.FontSize,
		Lines:      len(widths),
	}
	cw, ch := float64(p.CanvasW), float64(p.CanvasH)
	box.X = (cw - box.W) / 2
	if p.Centered {
		box.Y = (ch - box.H) / 2
	} else {
		box.Y = ch - ch*BottomAnchor - box.H
	}
	return box
}

// LineCenterY is the vertical middle of line i inside the box.
func (b Box) LineCenterY(i int) float64 {
	return b.Y + b.PadV + float64(i)*b.LineHeight + b.FontSize*0.5
}
