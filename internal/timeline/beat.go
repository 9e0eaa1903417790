package timeline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/beat2video/internal/config"
)

const (
	TitlePrefix   = "title-"
	CreditsPrefix = "credits-"
)

var ErrInvalidBeat = errors.New("invalid beat")

// Beat is one timed scene of the video.
type Beat struct {
	ID                    string  `yaml:"id"`
	DurationSeconds       float64 `yaml:"duration"`
	AssetURL              string  `yaml:"asset,omitempty"`
	Caption               string  `yaml:"caption"`
	VerticalOffsetPercent float64 `yaml:"y_offset,omitempty"`
	AttributionLabel      string  `yaml:"attribution,omitempty"`
	SearchPhrase          string  `yaml:"search_phrase,omitempty"`
}

func (b Beat) IsTitle() bool   { return strings.HasPrefix(b.ID, TitlePrefix) }
func (b Beat) IsCredits() bool { return strings.HasPrefix(b.ID, CreditsPrefix) }

// IsBookend reports whether b is a title or credits beat. Bookends get
// centered, reduced-size captions and no attribution label.
func (b Beat) IsBookend() bool { return b.IsTitle() || b.IsCredits() }

// FrameCount is the number of frames the beat occupies at fps.
func (b Beat) FrameCount(fps int) int {
	return int(math.Round(b.DurationSeconds * float64(fps)))
}

func (b Beat) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidBeat)
	}
	if !(b.DurationSeconds > 0) || math.IsInf(b.DurationSeconds, 0) {
		return fmt.Errorf("%w: beat %s duration must be > 0, got %v", ErrInvalidBeat, b.ID, b.DurationSeconds)
	}
	if b.VerticalOffsetPercent < -100 || b.VerticalOffsetPercent > 100 || math.IsNaN(b.VerticalOffsetPercent) {
		return fmt.Errorf("%w: beat %s vertical offset %v outside [-100,100]", ErrInvalidBeat, b.ID, b.VerticalOffsetPercent)
	}
	return nil
}

// Project is a render target plus its ordered beats.
type Project struct {
	config.Settings `yaml:",inline"`
	Beats           []Beat `yaml:"beats"`
}

func NewProject() *Project {
	return &Project{Settings: config.DefaultSettings()}
}

func (p *Project) Validate() error {
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	for i, b := range p.Beats {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("beat %d: %w", i, err)
		}
		if b.IsTitle() && i != 0 {
			return fmt.Errorf("%w: title beat %s must be first", ErrInvalidBeat, b.ID)
		}
		if b.IsCredits() && i != len(p.Beats)-1 {
			return fmt.Errorf("%w: credits beat %s must be last", ErrInvalidBeat, b.ID)
		}
	}
	return nil
}

// SetGlobalDuration resets every beat, bookends included, to d seconds.
// Per-beat overrides are not preserved.
func (p *Project) SetGlobalDuration(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: global duration must be > 0, got %v", ErrInvalidBeat, d)
	}
	for i := range p.Beats {
		p.Beats[i].DurationSeconds = d
	}
	return nil
}

// Snapshot returns a copy of the beat list that later edits cannot reach.
func (p *Project) Snapshot() []Beat {
	out := make([]Beat, len(p.Beats))
	copy(out, p.Beats)
	return out
}

// TotalFrames sums the frame counts of all beats.
func TotalFrames(beats []Beat, fps int) int {
	total := 0
	for _, b := range beats {
		total += b.FrameCount(fps)
	}
	return total
}
