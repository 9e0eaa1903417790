package config

import (
	"errors"
	"image/color"
	"testing"
)

func TestCanvasSizeMatrix(t *testing.T) {
	tests := []struct {
		aspect AspectRatio
		res    Resolution
		w, h   int
	}{
		{Aspect16x9, Res1080p, 1920, 1080},
		{Aspect16x9, Res2K, 2560, 1440},
		{Aspect16x9, Res4K, 3840, 2160},
		{Aspect9x16, Res1080p, 1080, 1920},
		{Aspect9x16, Res2K, 1440, 2560},
		{Aspect9x16, Res4K, 2160, 3840},
		{Aspect1x1, Res1080p, 1080, 1080},
		{Aspect1x1, Res2K, 1440, 1440},
		{Aspect1x1, Res4K, 2160, 2160},
	}

	for _, tt := range tests {
		t.Run(string(tt.aspect)+"_"+string(tt.res), func(t *testing.T) {
			w, h, err := CanvasSize(tt.aspect, tt.res)
			if err != nil {
				t.Fatalf("CanvasSize: %v", err)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestCanvasSizeRejectsUnknown(t *testing.T) {
	if _, _, err := CanvasSize("4:3", Res1080p); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("expected ErrInvalidProject for unknown aspect, got %v", err)
	}
	if _, _, err := CanvasSize(Aspect16x9, "8K"); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("expected ErrInvalidProject for unknown resolution, got %v", err)
	}
}

func TestDefaultSettingsValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}
}

func TestCaptionStyleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CaptionStyle)
		wantErr bool
	}{
		{"defaults", func(*CaptionStyle) {}, false},
		{"zero font", func(cs *CaptionStyle) { cs.FontSize = 0 }, true},
		{"opacity above one", func(cs *CaptionStyle) { cs.BackgroundOpacity = 1.5 }, true},
		{"bad color", func(cs *CaptionStyle) { cs.FontColor = "white" }, true},
		{"short color", func(cs *CaptionStyle) { cs.BackgroundColor = "#fff" }, false},
		{"bad align", func(cs *CaptionStyle) { cs.TextAlign = "justify" }, true},
		{"negative margin", func(cs *CaptionStyle) { cs.MarginMult = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := DefaultCaptionStyle()
			tt.mutate(&cs)
			err := cs.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}) {
		t.Errorf("unexpected color %v", c)
	}
	c, err = ParseHexColor("#fff")
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("unexpected short color %v", c)
	}
}

func TestGradingPresets(t *testing.T) {
	g, err := GradingPreset("kodak_5219")
	if err != nil {
		t.Fatal(err)
	}
	if g.Preset != "KODAK_5219" || g.Bloom != 0.1 {
		t.Errorf("unexpected preset %+v", g)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
	if _, err := GradingPreset("polaroid"); err == nil {
		t.Error("expected error for unknown preset")
	}
	if !NeutralGrading().IsNeutral() {
		t.Error("neutral grading should report neutral")
	}
	if g.IsNeutral() {
		t.Error("film preset should not be neutral")
	}
	if g.Sepia != 0.05 || g.HueRotate != -5 {
		t.Errorf("KODAK_5219 sepia/hue = %v/%v", g.Sepia, g.HueRotate)
	}

	fuji, _ := GradingPreset("FUJI_3513")
	if fuji.HueRotate != 5 || fuji.IsNeutralColor() {
		t.Errorf("FUJI_3513 hue = %v", fuji.HueRotate)
	}

	bad := NeutralGrading()
	bad.HueRotate = 270
	if err := bad.Validate(); err == nil {
		t.Error("expected error for hue rotation outside [-180,180]")
	}
	bad = NeutralGrading()
	bad.Sepia = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for sepia above 1")
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.Defaults()
	if c.Bitrate != DefaultBitrate || c.FFmpegPath != "ffmpeg" || c.OutputDir != "output" || c.Prefetch != DefaultPrefetch {
		t.Errorf("unexpected defaults %+v", c)
	}
}

func TestConfigValidate(t *testing.T) {
	var c Config
	c.Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := c
	bad.Bitrate = -1
	if bad.Validate() == nil {
		t.Error("negative bitrate accepted")
	}
	bad = c
	bad.Prefetch = 0
	if bad.Validate() == nil {
		t.Error("zero prefetch accepted")
	}
	bad = c
	bad.S3Prefix = "exports"
	if bad.Validate() == nil {
		t.Error("prefix without bucket accepted")
	}
}
