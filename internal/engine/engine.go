package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/beat2video/internal/compositor"
	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/publish"
	"github.com/ivlev/beat2video/internal/system"
	"github.com/ivlev/beat2video/internal/textlayout"
	"github.com/ivlev/beat2video/internal/timeline"
	"github.com/ivlev/beat2video/internal/video"
)

var (
	ErrAlreadyRendering  = errors.New("render already in progress")
	ErrCanvasUnavailable = compositor.ErrCanvasUnavailable
)

type State int32

const (
	Idle State = iota
	Rendering
	Finalizing
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Finalizing:
		return "finalizing"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Canvas is the drawing side of a render: it composites frames onto a
// surface that is then handed to the encoder.
type Canvas interface {
	RenderFrame(f compositor.Frame, p float64)
	Surface() *image.RGBA
	Release()
}

// AssetLoader resolves a beat's asset reference to an image.
type AssetLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// ProgressFunc receives the overall render progress, 0 to 100.
type ProgressFunc func(percent int)

// Result describes a finished render.
type Result struct {
	Name     string
	Location string
	Frames   int
	Bytes    int
	Stats    Stats
}

type Stats struct {
	Total time.Duration
	// AssetWait is the time the frame loop spent blocked on asset decodes.
	AssetWait time.Duration
	Render    time.Duration
	Finalize  time.Duration
	// PeakRSS is the largest resident set size sampled after each beat.
	PeakRSS uint64
}

// Driver walks a beat list frame by frame: composite, encode, report
// progress, wait for the next frame boundary. One Driver runs one render
// at a time.
type Driver struct {
	Config   config.Config
	Settings config.Settings
	Encoder  video.Encoder
	Sink     publish.Sink
	Codec    system.Codec
	Loader   AssetLoader
	Pacer    Pacer
	Logger   *zap.Logger

	OnProgress ProgressFunc
	NewCanvas  func(config.Settings) (Canvas, error)

	state   atomic.Int32
	running atomic.Bool
}

func NewDriver(cfg config.Config, settings config.Settings, enc video.Encoder, sink publish.Sink) *Driver {
	return &Driver{
		Config:    cfg,
		Settings:  settings,
		Encoder:   enc,
		Sink:      sink,
		Codec:     system.CodecVP9,
		Logger:    zap.NewNop(),
		NewCanvas: NewCompositorCanvas,
	}
}

// NewCompositorCanvas is the default Canvas: a compositor with its own
// font cache.
func NewCompositorCanvas(settings config.Settings) (Canvas, error) {
	faces := textlayout.NewFaces()
	c, err := compositor.New(settings, faces)
	if err != nil {
		faces.Close()
		return nil, err
	}
	return &compositorCanvas{Compositor: c, faces: faces}, nil
}

type compositorCanvas struct {
	*compositor.Compositor
	faces *textlayout.Faces
}

func (c *compositorCanvas) Release() {
	c.Compositor.Release()
	c.faces.Close()
}

func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State) { d.state.Store(int32(s)) }

// Progress is the overall percentage after frame f of n in beat i of
// total beats.
func Progress(i, total, f, n int) int {
	if total == 0 || n == 0 {
		return 0
	}
	beat := float64(i) / float64(total)
	within := float64(f) / float64(n) / float64(total)
	return int(math.Round((beat + within) * 100))
}

// Run renders beats and delivers the artifact. The beat list is copied
// before rendering starts. An empty list is a no-op. Cancelling ctx stops
// the render at the next frame boundary; the encoder is released and
// nothing is delivered.
func (d *Driver) Run(ctx context.Context, beats []timeline.Beat) (Result, error) {
	if !d.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRendering
	}
	defer d.running.Store(false)

	log := d.logger()
	if len(beats) == 0 {
		log.Info("empty timeline, nothing to render")
		return Result{}, nil
	}
	beats = append([]timeline.Beat(nil), beats...)

	start := time.Now()
	d.setState(Rendering)

	newCanvas := d.NewCanvas
	if newCanvas == nil {
		newCanvas = NewCompositorCanvas
	}
	canvas, err := newCanvas(d.Settings)
	if err != nil {
		d.setState(Aborted)
		if !errors.Is(err, ErrCanvasUnavailable) {
			err = fmt.Errorf("%w: %v", ErrCanvasUnavailable, err)
		}
		return Result{}, err
	}
	defer canvas.Release()

	size := canvas.Surface().Bounds().Size()
	d.preflight(size)

	if err := d.Encoder.Start(ctx, video.NewFormat(size.X, size.Y, d.Codec, d.Config.Bitrate)); err != nil {
		d.setState(Aborted)
		if !errors.Is(err, video.ErrEncoderUnavailable) {
			err = fmt.Errorf("%w: %v", video.ErrEncoderUnavailable, err)
		}
		return Result{}, err
	}

	assets := d.newAssetQueue(ctx, beats)
	var stats Stats

	pacer, stop := d.pacer()
	defer stop()

	renderStart := time.Now()
	fps := config.FrameRate
	total := len(beats)
	frames := 0
	for i, beat := range beats {
		waitStart := time.Now()
		img, err := assets.take(ctx, i)
		if err != nil {
			return Result{}, d.abort(err)
		}
		stats.AssetWait += time.Since(waitStart)

		n := beat.FrameCount(fps)
		frame := compositor.Frame{Beat: beat, Image: img}
		log.Debug("beat", zap.Int("index", i), zap.String("id", beat.ID), zap.Int("frames", n))

		for f := 0; f < n; f++ {
			if err := ctx.Err(); err != nil {
				return Result{}, d.abort(err)
			}
			canvas.RenderFrame(frame, float64(f)/float64(n))
			if err := d.Encoder.WriteFrame(canvas.Surface()); err != nil {
				return Result{}, d.abort(fmt.Errorf("beat %s frame %d: %w", beat.ID, f, err))
			}
			frames++
			d.report(Progress(i, total, f, n))

			if err := pacer.Wait(ctx); err != nil {
				return Result{}, d.abort(err)
			}
		}
		frame.Image, img = nil, nil
		d.sampleRSS(&stats)
	}
	assets.wait()
	d.report(100)
	stats.Render = time.Since(renderStart)

	d.setState(Finalizing)
	finalizeStart := time.Now()
	artifact, err := d.Encoder.Finish()
	if err != nil {
		d.setState(Aborted)
		return Result{}, fmt.Errorf("finalize video: %w", err)
	}

	name := video.ArtifactName(d.Settings.Label, d.Settings.AspectRatio, artifact.Ext)
	location, err := d.Sink.Deliver(ctx, name, artifact)
	if err != nil {
		d.setState(Aborted)
		return Result{}, fmt.Errorf("deliver %s: %w", name, err)
	}
	stats.Finalize = time.Since(finalizeStart)
	stats.Total = time.Since(start)

	d.setState(Idle)
	log.Info("render finished",
		zap.String("location", location),
		zap.Int("frames", frames),
		zap.Int("bytes", len(artifact.Data)),
		zap.Duration("elapsed", stats.Total),
	)

	res := Result{Name: name, Location: location, Frames: frames, Bytes: len(artifact.Data), Stats: stats}
	if d.Config.ShowStats {
		d.writeReport(res)
	}
	return res, nil
}

func (d *Driver) abort(err error) error {
	d.Encoder.Abort()
	d.setState(Aborted)
	d.logger().Warn("render aborted", zap.Error(err))
	return err
}

func (d *Driver) report(percent int) {
	if d.OnProgress != nil {
		d.OnProgress(percent)
	}
}

func (d *Driver) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d *Driver) pacer() (Pacer, func()) {
	if d.Pacer != nil {
		return d.Pacer, func() {}
	}
	if d.Config.Realtime {
		p := NewTickerPacer(config.FrameRate)
		return p, p.Stop
	}
	return YieldPacer{}, func() {}
}

// preflight warns when the frame buffers may not fit in memory: the
// surface, the bloom scratch copy and the encoder write. Decoded assets are
// checked as they arrive. It never stops the render.
func (d *Driver) preflight(size image.Point) {
	required := uint64(size.X) * uint64(size.Y) * 4 * 3
	check, err := system.CheckMemory(required)
	if err != nil {
		d.logger().Debug("memory preflight skipped", zap.Error(err))
		return
	}
	if !check.OK() {
		d.logger().Warn("low memory for render", zap.String("memory", check.String()))
	}
}

func (d *Driver) sampleRSS(s *Stats) {
	if rss, err := system.ProcessRSS(); err == nil && rss > s.PeakRSS {
		s.PeakRSS = rss
	}
}

func (d *Driver) writeReport(res Result) {
	s := res.Stats
	fps := 0.0
	if s.Total > 0 {
		fps = float64(res.Frames) / s.Total.Seconds()
	}
	fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Total Time: %.2fs\n"+
		"Asset wait: %.2fs\n"+
		"Rendering: %.2fs\n"+
		"Finalize: %.2fs\n"+
		"Frames: %d | Effective FPS: %.2f\n"+
		"Peak memory (RSS): %s\n"+
		"----------------------------\n",
		d.Config.BuildVersion, s.Total.Seconds(), s.AssetWait.Seconds(), s.Render.Seconds(),
		s.Finalize.Seconds(), res.Frames, fps, system.FormatBytes(s.PeakRSS))

	entry := fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"), d.Config.BuildVersion, res.Name, res.Frames,
		s.Total.Seconds(), s.Render.Seconds(), fps)

	path := filepath.Join(d.Config.OutputDir, "benchmark.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		return
	}
	defer f.Close()
	f.WriteString(entry)
}
