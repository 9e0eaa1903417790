package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ivlev/beat2video/internal/video"
)

// Sink delivers a finished artifact under name and reports where it went.
type Sink interface {
	Deliver(ctx context.Context, name string, a video.Artifact) (string, error)
}

// FileSink writes artifacts into a directory, the local stand-in for a
// browser download.
type FileSink struct {
	Dir    string
	Logger *zap.Logger
}

func (s *FileSink) Deliver(ctx context.Context, name string, a video.Artifact) (string, error) {
	if len(a.Data) == 0 {
		return "", errors.New("refusing to write empty artifact")
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, a.Data, 0644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("artifact written", zap.String("path", path), zap.Int("bytes", len(a.Data)))
	}
	return path, nil
}

// MultiSink delivers to every sink in order and stops at the first error.
// The returned location is the first sink's.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, name string, a video.Artifact) (string, error) {
	var first string
	for i, s := range m {
		loc, err := s.Deliver(ctx, name, a)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}
