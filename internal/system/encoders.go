package system

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrFFmpegNotFound means the ffmpeg binary is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// Codec describes a video encoder together with its container.
type Codec struct {
	Name      string // ffmpeg encoder name
	Container string // ffmpeg muxer
	Ext       string
	MIME      string
}

var (
	CodecVP9  = Codec{Name: "libvpx-vp9", Container: "webm", Ext: "webm", MIME: "video/webm"}
	CodecH264 = Codec{Name: "libx264", Container: "mp4", Ext: "mp4", MIME: "video/mp4"}
)

// Приоритеты: WebM/VP9 как у браузерного MediaRecorder, затем аппаратный
// H.264 (VideoToolbox, NVENC), затем программный libx264.
var codecPriority = []Codec{
	CodecVP9,
	{Name: "h264_videotoolbox", Container: "mp4", Ext: "mp4", MIME: "video/mp4"},
	{Name: "h264_nvenc", Container: "mp4", Ext: "mp4", MIME: "video/mp4"},
	CodecH264,
}

// LookupFFmpeg resolves the ffmpeg binary.
func LookupFFmpeg(path string) (string, error) {
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFFmpegNotFound, path)
	}
	return resolved, nil
}

// ListEncoders returns the raw output of `ffmpeg -encoders`.
func ListEncoders(ffmpegPath string) (string, error) {
	bin, err := LookupFFmpeg(ffmpegPath)
	if err != nil {
		return "", err
	}
	out, err := exec.Command(bin, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -encoders: %w", err)
	}
	return string(out), nil
}

// PickCodec chooses the best codec mentioned in an encoder listing. A
// forced encoder name wins when it is known.
func PickCodec(listing, forced string) Codec {
	if forced != "" {
		for _, c := range codecPriority {
			if c.Name == forced {
				return c
			}
		}
		return Codec{Name: forced, Container: "mp4", Ext: "mp4", MIME: "video/mp4"}
	}
	for _, c := range codecPriority {
		if strings.Contains(listing, " "+c.Name+" ") {
			return c
		}
	}
	return CodecH264
}

// DetectCodec asks ffmpeg which encoders it has and picks one.
func DetectCodec(ffmpegPath, forced string) (Codec, error) {
	listing, err := ListEncoders(ffmpegPath)
	if err != nil {
		return Codec{}, err
	}
	return PickCodec(listing, forced), nil
}
