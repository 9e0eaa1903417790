package engine

import (
	"context"
	"runtime"
	"time"
)

// Pacer is the frame boundary of the render loop. Wait returns once the
// next frame may be produced, or with ctx's error when the render is
// cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}

// TickerPacer releases one frame per tick so capture runs at wall-clock
// speed. The ticker starts on the first Wait.
type TickerPacer struct {
	interval time.Duration
	ticker   *time.Ticker
}

func NewTickerPacer(fps int) *TickerPacer {
	return &TickerPacer{interval: time.Second / time.Duration(fps)}
}

func (p *TickerPacer) Wait(ctx context.Context) error {
	if p.ticker == nil {
		p.ticker = time.NewTicker(p.interval)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ticker.C:
		return nil
	}
}

func (p *TickerPacer) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

// YieldPacer only yields to the scheduler. Offline renders use it since
// ffmpeg timestamps frames by index, not by arrival time.
type YieldPacer struct{}

func (YieldPacer) Wait(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}
