package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/ivlev/beat2video/internal/system"
)

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process and collects
// the encoded stream from its stdout.
type FFmpegEncoder struct {
	FFmpegPath string
	Logger     *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *ChunkBuffer
	stderr *ChunkBuffer
	format Format
	frames int
	cancel context.CancelFunc
}

func NewFFmpegEncoder(ffmpegPath string, logger *zap.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegEncoder{FFmpegPath: ffmpegPath, Logger: logger}
}

// BuildCommand describes the ffmpeg invocation for f: rawvideo on stdin,
// the encoded container on stdout.
func BuildCommand(f Format) *ffmpeg.Stream {
	out := ffmpeg.KwArgs{
		"c:v":     f.Codec.Name,
		"b:v":     f.Bitrate,
		"maxrate": f.Bitrate,
		"bufsize": 2 * f.Bitrate,
		"pix_fmt": "yuv420p",
		"r":       f.FPS,
		"f":       f.Codec.Container,
	}
	switch f.Codec.Container {
	case "webm":
		out["deadline"] = "realtime"
		out["cpu-used"] = 8
		out["row-mt"] = 1
	case "mp4":
		// stdout не seekable: moov нужно писать фрагментами
		out["movflags"] = "frag_keyframe+empty_moov"
	}

	return ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", f.Width, f.Height),
		"r":       f.FPS,
	}).
		Output("pipe:", out).
		OverWriteOutput()
}

func (e *FFmpegEncoder) Start(ctx context.Context, f Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil {
		return fmt.Errorf("%w: encoder already started", ErrEncoderUnavailable)
	}
	bin, err := system.LookupFFmpeg(e.FFmpegPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}

	e.out = &ChunkBuffer{}
	e.stderr = &ChunkBuffer{}
	cmd := BuildCommand(f).WithOutput(e.out, e.stderr).Compile()
	cmd.Path = bin
	cmd.Args[0] = bin
	cmd.Err = nil

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrEncoderUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: ffmpeg start: %v", ErrEncoderUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-runCtx.Done()
		if ctx.Err() != nil && cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	e.cmd, e.stdin, e.format, e.frames, e.cancel = cmd, stdin, f, 0, cancel
	e.Logger.Info("encoder started",
		zap.String("codec", f.Codec.Name),
		zap.String("container", f.Codec.Container),
		zap.Int("width", f.Width),
		zap.Int("height", f.Height),
		zap.Int("bitrate", f.Bitrate),
	)
	return nil
}

func (e *FFmpegEncoder) WriteFrame(frame *image.RGBA) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return fmt.Errorf("encoder not started")
	}
	if b := frame.Bounds(); b.Dx() != e.format.Width || b.Dy() != e.format.Height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), e.format.Width, e.format.Height)
	}
	if err := writeRawRGBA(e.stdin, frame); err != nil {
		// ffmpeg закрыл stdin: дождаться выхода, чтобы stderr был дочитан
		e.stdin.Close()
		if e.cmd.Process != nil {
			e.cmd.Process.Kill()
		}
		e.cmd.Wait()
		return fmt.Errorf("write frame %d: %w\nLog: %s", e.frames, err, e.log())
	}
	e.frames++
	return nil
}

// Finish closes the input, waits for ffmpeg and returns every buffered
// chunk as one artifact.
func (e *FFmpegEncoder) Finish() (Artifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return Artifact{}, fmt.Errorf("encoder not started")
	}
	defer e.reset()

	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return Artifact{}, fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, e.log())
	}

	a := Artifact{Data: e.out.Bytes(), Ext: e.format.Codec.Ext, MIME: e.format.Codec.MIME}
	e.Logger.Info("encoder finished",
		zap.Int("frames", e.frames),
		zap.Int("chunks", e.out.Chunks()),
		zap.Int("bytes", len(a.Data)),
	)
	return a, nil
}

// Abort stops ffmpeg and drops whatever it produced.
func (e *FFmpegEncoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return
	}
	e.stdin.Close()
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	e.cmd.Wait()
	e.Logger.Warn("encoder aborted", zap.Int("frames", e.frames), zap.String("ffmpeg", e.log()))
	e.reset()
}

func (e *FFmpegEncoder) reset() {
	if e.cancel != nil {
		e.cancel()
	}
	e.cmd, e.stdin, e.cancel = nil, nil, nil
	e.out.Reset()
}

// writeRawRGBA пишет кадр без копирования, если он уже плотный RGBA.
func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// log is the end of what ffmpeg wrote to stderr.
func (e *FFmpegEncoder) log() string {
	return tail(string(e.stderr.Bytes()), 2048)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
