package config

import (
	"errors"
	"fmt"
	"math"
)

// FrameRate is fixed for both timeline math and the encoder.
const FrameRate = 30

// DefaultBitrate is the archival-quality export bitrate (bits per second).
const DefaultBitrate = 40_000_000

// DefaultPrefetch is how many beats ahead of the frame loop assets are
// decoded. With 1, at most two decoded beat images are held at once.
const DefaultPrefetch = 1

// DefaultLabel prefixes output file names.
const DefaultLabel = "Cinema_Master"

var ErrInvalidProject = errors.New("invalid project")

// Config is the render configuration handed to the engine at construction.
// Nothing in the render path reads ambient state.
type Config struct {
	OutputDir    string
	FFmpegPath   string
	VideoEncoder string
	Bitrate      int
	Realtime     bool
	Prefetch     int
	ShowStats    bool
	BuildVersion string

	S3Bucket string
	S3Prefix string
	S3Region string
}

// Defaults fills zero fields.
func (c *Config) Defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.Bitrate <= 0 {
		c.Bitrate = DefaultBitrate
	}
	if c.Prefetch <= 0 {
		c.Prefetch = DefaultPrefetch
	}
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output dir is required")
	}
	if c.FFmpegPath == "" {
		return errors.New("ffmpeg path is required")
	}
	if c.Bitrate <= 0 {
		return fmt.Errorf("bitrate must be positive, got %d", c.Bitrate)
	}
	if c.Prefetch <= 0 {
		return fmt.Errorf("prefetch must be positive, got %d", c.Prefetch)
	}
	if c.S3Prefix != "" && c.S3Bucket == "" {
		return errors.New("s3 prefix set without a bucket")
	}
	return nil
}

type AspectRatio string

const (
	Aspect16x9 AspectRatio = "16:9"
	Aspect9x16 AspectRatio = "9:16"
	Aspect1x1  AspectRatio = "1:1"
)

type Resolution string

const (
	Res1080p Resolution = "1080p"
	Res2K    Resolution = "2K"
	Res4K    Resolution = "4K"
)

// CanvasSize returns output dimensions for an aspect ratio and resolution tier.
// The tier gives the landscape size; 9:16 swaps it, 1:1 uses the height for both.
func CanvasSize(aspect AspectRatio, res Resolution) (width, height int, err error) {
	switch res {
	case Res1080p:
		width, height = 1920, 1080
	case Res2K:
		width, height = 2560, 1440
	case Res4K:
		width, height = 3840, 2160
	default:
		return 0, 0, fmt.Errorf("%w: unknown resolution %q", ErrInvalidProject, res)
	}

	switch aspect {
	case Aspect16x9:
	case Aspect9x16:
		width, height = height, width
	case Aspect1x1:
		width = height
	default:
		return 0, 0, fmt.Errorf("%w: unknown aspect ratio %q", ErrInvalidProject, aspect)
	}
	return width, height, nil
}

// Settings is the per-project render target: everything except the beats.
type Settings struct {
	Label        string       `yaml:"label"`
	AspectRatio  AspectRatio  `yaml:"aspect_ratio"`
	Resolution   Resolution   `yaml:"resolution"`
	CaptionStyle CaptionStyle `yaml:"caption_style"`
	Grading      Grading      `yaml:"grading,omitempty"`
	CreditsURL   string       `yaml:"credits_url,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Label:        DefaultLabel,
		AspectRatio:  Aspect16x9,
		Resolution:   Res1080p,
		CaptionStyle: DefaultCaptionStyle(),
		Grading:      NeutralGrading(),
	}
}

func (s Settings) CanvasSize() (int, int, error) {
	return CanvasSize(s.AspectRatio, s.Resolution)
}

func (s Settings) Validate() error {
	if _, _, err := s.CanvasSize(); err != nil {
		return err
	}
	if err := s.CaptionStyle.Validate(); err != nil {
		return err
	}
	return s.Grading.Validate()
}

// CaptionStyle keeps every spatial quantity as a multiplier of the scaled
// font size so captions look the same at 1080p and 4K.
type CaptionStyle struct {
	FontSize          float64 `yaml:"font_size"`
	FontColor         string  `yaml:"font_color"`
	FontFamily        string  `yaml:"font_family"`
	BackgroundColor   string  `yaml:"background_color"`
	BackgroundOpacity float64 `yaml:"background_opacity"`
	TextAlign         string  `yaml:"text_align"`
	PaddingHMult      float64 `yaml:"padding_h_mult"`
	PaddingVMult      float64 `yaml:"padding_v_mult"`
	RadiusMult        float64 `yaml:"radius_mult"`
	MarginMult        float64 `yaml:"margin_mult"`
}

func DefaultCaptionStyle() CaptionStyle {
	return CaptionStyle{
		FontSize:          16,
		FontColor:         "#ffffff",
		FontFamily:        "Inter",
		BackgroundColor:   "#000000",
		BackgroundOpacity: 0.7,
		TextAlign:         "center",
		PaddingHMult:      1.2,
		PaddingVMult:      1.2,
		RadiusMult:        0.8,
		MarginMult:        2.5,
	}
}

func (cs CaptionStyle) Validate() error {
	if !(cs.FontSize > 0) || math.IsInf(cs.FontSize, 0) {
		return fmt.Errorf("%w: font size must be > 0, got %v", ErrInvalidProject, cs.FontSize)
	}
	if cs.BackgroundOpacity < 0 || cs.BackgroundOpacity > 1 {
		return fmt.Errorf("%w: background opacity %v outside [0,1]", ErrInvalidProject, cs.BackgroundOpacity)
	}
	if _, err := ParseHexColor(cs.FontColor); err != nil {
		return fmt.Errorf("%w: font color: %v", ErrInvalidProject, err)
	}
	if _, err := ParseHexColor(cs.BackgroundColor); err != nil {
		return fmt.Errorf("%w: background color: %v", ErrInvalidProject, err)
	}
	switch cs.TextAlign {
	case "", "center", "left", "right":
	default:
		return fmt.Errorf("%w: unknown text align %q", ErrInvalidProject, cs.TextAlign)
	}
	for name, v := range map[string]float64{
		"padding_h_mult": cs.PaddingHMult,
		"padding_v_mult": cs.PaddingVMult,
		"radius_mult":    cs.RadiusMult,
		"margin_mult":    cs.MarginMult,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidProject, name, v)
		}
	}
	return nil
}
