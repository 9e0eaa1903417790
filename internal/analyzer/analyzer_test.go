package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func grayWithSquare(w, h int, sq image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := sq.Min.Y; y < sq.Max.Y; y++ {
		for x := sq.Min.X; x < sq.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestContrastDetector(t *testing.T) {
	img := grayWithSquare(200, 200, image.Rect(50, 50, 150, 150))

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	r := blocks[0].Rect
	if r.Dx() < 80 || r.Dy() < 80 || !r.In(img.Bounds()) {
		t.Errorf("unexpected block %v", r)
	}
	if c := blocks[0].Confidence; c <= 0 || c > 1 {
		t.Errorf("confidence %v out of range", c)
	}
}

func TestContrastDetectorBlankImage(t *testing.T) {
	blocks, err := NewContrastDetector().Detect(image.NewGray(image.Rect(0, 0, 300, 300)))
	if err != nil || len(blocks) != 0 {
		t.Errorf("blank image gave %v, %v", blocks, err)
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false},
		{"ocr", true},
		{"invalid", true},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			d, err := NewDetector(tt.variant)
			if tt.wantErr != (err != nil) {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d == nil {
				t.Error("expected detector, got nil")
			}
		})
	}
}

func TestFocus(t *testing.T) {
	blocks := []Block{
		{Rect: image.Rect(0, 0, 10, 10)},
		{Rect: image.Rect(50, 50, 56, 55)},
		{Rect: image.Rect(90, 90, 92, 95)},
	}
	got, ok := Focus(blocks)
	if !ok || got != image.Rect(0, 0, 56, 55) {
		t.Errorf("Focus = %v, %v", got, ok)
	}
	if _, ok := Focus(nil); ok {
		t.Error("no blocks should give no focus")
	}
}

func TestSuggestOffset(t *testing.T) {
	canvas := image.Pt(1920, 1080)
	src := image.Rect(0, 0, 1000, 2000)
	tests := []struct {
		name  string
		focus image.Rectangle
		want  float64
	}{
		{"top stays aligned", image.Rect(0, 0, 100, 100), 0},
		{"middle", image.Rect(0, 450, 100, 550), -48.9},
		{"deep is clamped", image.Rect(0, 950, 100, 1050), -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestOffset(canvas, src, tt.focus); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// A landscape image that exactly covers the height cannot move.
	if got := SuggestOffset(canvas, image.Rect(0, 0, 1920, 1080), image.Rect(0, 800, 10, 1000)); got != 0 {
		t.Errorf("exact cover offset = %v", got)
	}
}

func TestFrame(t *testing.T) {
	img := grayWithSquare(400, 600, image.Rect(150, 150, 250, 250))
	got, err := Frame(NewContrastDetector(), img, image.Pt(1920, 1080))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-(-48.9)) > 2 {
		t.Errorf("offset = %v, want about -48.9", got)
	}

	blank, _ := Frame(NewContrastDetector(), image.NewGray(image.Rect(0, 0, 10, 10)), image.Pt(1920, 1080))
	if blank != 0 {
		t.Errorf("blank image offset = %v", blank)
	}
}
