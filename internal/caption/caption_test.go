package caption

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/textlayout"
)

func TestSpacingRounds(t *testing.T) {
	style := config.DefaultCaptionStyle()
	padH, padV, radius, margin := Spacing(43, style)
	if padH != 52 || padV != 52 || radius != 34 || margin != 108 {
		t.Errorf("got padH=%v padV=%v radius=%v margin=%v", padH, padV, radius, margin)
	}
	if got := MaxTextWidth(1920, 43, style); got != 1920-2*108-2*52 {
		t.Errorf("MaxTextWidth = %v", got)
	}
}

func TestLayoutBottomAnchored(t *testing.T) {
	style := config.DefaultCaptionStyle()
	p := Params{FontSize: 40, Style: style, CanvasW: 1920, CanvasH: 1080}
	box := Layout([]float64{300, 500}, p)

	padH, padV, _, _ := Spacing(40, style)
	wantW := 500 + 2*padH
	wantH := 2*40*LineHeightFactor + 2*padV
	if box.W != wantW || math.Abs(box.H-wantH) > 1e-9 {
		t.Fatalf("box size %vx%v, want %vx%v", box.W, box.H, wantW, wantH)
	}
	if box.X != (1920-wantW)/2 {
		t.Errorf("box not horizontally centered: x=%v", box.X)
	}
	if bottom := box.Y + box.H; math.Abs(bottom-1080*0.85) > 1e-9 {
		t.Errorf("box bottom = %v, want %v", bottom, 1080*0.85)
	}
	if got, want := box.LineCenterY(1), box.Y+padV+40*LineHeightFactor+20; math.Abs(got-want) > 1e-9 {
		t.Errorf("line 1 center = %v, want %v", got, want)
	}
}

func TestLayoutCentered(t *testing.T) {
	p := Params{FontSize: 34, Style: config.DefaultCaptionStyle(), CanvasW: 1080, CanvasH: 1920, Centered: true}
	box := Layout([]float64{400}, p)
	if math.Abs(box.Y+box.H/2-960) > 1e-9 || math.Abs(box.X+box.W/2-540) > 1e-9 {
		t.Errorf("centered box at (%v,%v) size %vx%v", box.X, box.Y, box.W, box.H)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	p := Params{FontSize: 58, Style: config.DefaultCaptionStyle(), CanvasW: 2560, CanvasH: 1440}
	widths := []float64{812.5, 1030, 77}
	if a, b := Layout(widths, p), Layout(widths, p); a != b {
		t.Errorf("layout changed between calls: %+v vs %+v", a, b)
	}
	if !Layout(nil, p).Empty() {
		t.Error("no lines should give an empty box")
	}
}

func TestFillRoundedRectClipsToCanvas(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	FillRoundedRect(dst, -20, 80, 60, 40, 10, color.NRGBA{R: 255, A: 255})

	if c := dst.RGBAAt(10, 90); c.R != 255 {
		t.Errorf("inside pixel = %v", c)
	}
	if c := dst.RGBAAt(50, 90); c.A != 0 {
		t.Errorf("outside pixel painted: %v", c)
	}
	FillRoundedRect(dst, 200, 200, 10, 10, 2, color.White)
}

func TestPaintDrawsBoxAndText(t *testing.T) {
	faces := textlayout.NewFaces()
	defer faces.Close()
	face, err := faces.Face("Inter", 40, textlayout.SemiBold)
	if err != nil {
		t.Fatal(err)
	}

	style := config.DefaultCaptionStyle()
	style.BackgroundOpacity = 1
	dst := image.NewRGBA(image.Rect(0, 0, 800, 450))
	m := textlayout.FaceMeasurer{Face: face}
	lines := []string{"Hello"}
	box := Layout(textlayout.Widths(m, lines), Params{FontSize: 40, Style: style, CanvasW: 800, CanvasH: 450, Centered: true})
	Paint(dst, box, lines, face, style)

	corner := dst.RGBAAt(int(box.X+box.W/2), int(box.Y+2))
	if corner.A != 255 || corner.R != 0 {
		t.Errorf("expected opaque black background, got %v", corner)
	}
	var lit int
	for y := int(box.Y); y < int(box.Y+box.H); y++ {
		for x := int(box.X); x < int(box.X+box.W); x++ {
			if dst.RGBAAt(x, y).R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no text pixels drawn inside the box")
	}
}
