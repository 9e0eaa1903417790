package video

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/system"
)

// ErrEncoderUnavailable is returned when no encoder process can be bound
// to the render. Nothing has been rendered when it is returned.
var ErrEncoderUnavailable = errors.New("encoder unavailable")

// Format describes the raw frames an encoder receives and what it should
// produce from them.
type Format struct {
	Width   int
	Height  int
	FPS     int
	Bitrate int
	Codec   system.Codec
}

// NewFormat describes a stream at the project frame rate. A bitrate of zero
// or less selects config.DefaultBitrate.
func NewFormat(width, height int, codec system.Codec, bitrate int) Format {
	if bitrate <= 0 {
		bitrate = config.DefaultBitrate
	}
	return Format{Width: width, Height: height, FPS: config.FrameRate, Bitrate: bitrate, Codec: codec}
}

// Artifact is a finished video held in memory.
type Artifact struct {
	Data []byte
	Ext  string
	MIME string
}

// Encoder consumes frames in order. Start must succeed before any frame
// is written; Finish or Abort ends the session.
type Encoder interface {
	Start(ctx context.Context, f Format) error
	WriteFrame(frame *image.RGBA) error
	Finish() (Artifact, error)
	Abort()
}

// ArtifactName builds the download name, e.g. Cinema_Master_16x9.webm.
func ArtifactName(label string, aspect config.AspectRatio, ext string) string {
	if label == "" {
		label = config.DefaultLabel
	}
	return label + "_" + strings.ReplaceAll(string(aspect), ":", "x") + "." + ext
}
