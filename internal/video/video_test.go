package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/system"
)

func TestArtifactName(t *testing.T) {
	tests := []struct {
		label  string
		aspect config.AspectRatio
		ext    string
		want   string
	}{
		{"Cinema_Master", config.Aspect16x9, "webm", "Cinema_Master_16x9.webm"},
		{"Cinema_Master", config.Aspect9x16, "webm", "Cinema_Master_9x16.webm"},
		{"", config.Aspect1x1, "mp4", "Cinema_Master_1x1.mp4"},
		{"Trailer", config.Aspect16x9, "mp4", "Trailer_16x9.mp4"},
	}
	for _, tt := range tests {
		if got := ArtifactName(tt.label, tt.aspect, tt.ext); got != tt.want {
			t.Errorf("ArtifactName(%q, %q) = %q, want %q", tt.label, tt.aspect, got, tt.want)
		}
	}
}

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func TestBuildCommandWebM(t *testing.T) {
	args := BuildCommand(NewFormat(1920, 1080, system.CodecVP9, 0)).GetArgs()
	joined := strings.Join(args, " ")

	for flag, want := range map[string]string{
		"-s":       "1920x1080",
		"-pix_fmt": "rgba",
		"-c:v":     "libvpx-vp9",
		"-b:v":     "40000000",
		"-i":       "pipe:",
	} {
		if got, ok := argValue(args, flag); !ok || got != want {
			t.Errorf("%s = %q, want %q (args: %s)", flag, got, want, joined)
		}
	}
	if !strings.Contains(joined, "-f webm") || !strings.Contains(joined, "-f rawvideo") {
		t.Errorf("missing formats: %s", joined)
	}
	if !strings.Contains(joined, "-r 30") {
		t.Errorf("frame rate not fixed to 30: %s", joined)
	}
	if !strings.Contains(" "+joined+" ", " -y ") {
		t.Errorf("output should overwrite: %s", joined)
	}
}

func TestBuildCommandMP4Fragmented(t *testing.T) {
	args := BuildCommand(NewFormat(1080, 1920, system.CodecH264, 8_000_000)).GetArgs()
	if got, _ := argValue(args, "-movflags"); got != "frag_keyframe+empty_moov" {
		t.Errorf("movflags = %q", got)
	}
	if got, _ := argValue(args, "-c:v"); got != "libx264" {
		t.Errorf("codec = %q", got)
	}
	if got, _ := argValue(args, "-b:v"); got != "8000000" {
		t.Errorf("bitrate = %q", got)
	}
	if got, _ := argValue(args, "-bufsize"); got != "16000000" {
		t.Errorf("bufsize = %q", got)
	}
}

func TestChunkBuffer(t *testing.T) {
	var b ChunkBuffer
	src := []byte("abc")
	b.Write(src)
	src[0] = 'z'
	b.Write([]byte("def"))

	if b.Chunks() != 2 || b.Len() != 6 {
		t.Errorf("chunks=%d len=%d", b.Chunks(), b.Len())
	}
	if got := string(b.Bytes()); got != "abcdef" {
		t.Errorf("Bytes = %q", got)
	}
	b.Reset()
	if b.Len() != 0 || len(b.Bytes()) != 0 {
		t.Error("reset left data behind")
	}
}

func TestStartWithoutFFmpeg(t *testing.T) {
	enc := NewFFmpegEncoder("/nonexistent/ffmpeg-binary", nil)
	err := enc.Start(context.Background(), NewFormat(64, 64, system.CodecH264, 0))
	if !errors.Is(err, ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
	if err := enc.WriteFrame(image.NewRGBA(image.Rect(0, 0, 64, 64))); err == nil {
		t.Error("WriteFrame on an unstarted encoder should fail")
	}
	if _, err := enc.Finish(); err == nil {
		t.Error("Finish on an unstarted encoder should fail")
	}
	enc.Abort()
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Pix[0] = 7
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4*4*4 || buf.Bytes()[0] != 7 {
		t.Errorf("direct write: len=%d", buf.Len())
	}

	sub := img.SubImage(image.Rect(1, 1, 3, 3))
	buf.Reset()
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*2*4 {
		t.Errorf("sub-image write: len=%d", buf.Len())
	}
}

// fakeFFmpeg writes a script that complains on stderr and exits without
// reading its input, like ffmpeg with an encoder it does not have.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho \"Unknown encoder 'h264_nvenc'\" >&2\nexit 1\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWriteFrameReportsFFmpegLog(t *testing.T) {
	enc := NewFFmpegEncoder(fakeFFmpeg(t), nil)
	codec := system.Codec{Name: "h264_nvenc", Container: "mp4", Ext: "mp4", MIME: "video/mp4"}
	if err := enc.Start(context.Background(), NewFormat(320, 240, codec, 0)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer enc.Abort()

	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = enc.WriteFrame(frame)
	}
	if err == nil {
		t.Fatal("expected a write error after ffmpeg exited")
	}
	if !strings.Contains(err.Error(), "Unknown encoder 'h264_nvenc'") {
		t.Errorf("error does not carry the ffmpeg log: %v", err)
	}
}
