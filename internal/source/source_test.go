package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.png")
	if err := os.WriteFile(path, pngBytes(t, 12, 8), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	for _, ref := range []string{path, "file://" + path} {
		img, err := l.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("Load(%q): %v", ref, err)
		}
		if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
			t.Errorf("bounds = %v", img.Bounds())
		}
	}

	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadDataURL(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 5, 5))
	img, err := NewLoader().Load(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := NewLoader().Load(context.Background(), "data:image/png;base64"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("malformed data url: %v", err)
	}
	if _, err := NewLoader().Load(context.Background(), "data:image/png;base64,@@@"); err == nil {
		t.Error("expected base64 error")
	}
}

func TestLoadRemote(t *testing.T) {
	body := pngBytes(t, 7, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader()
	img, err := l.Load(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 7 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("expected error for 404")
	}

	l.MaxBytes = 10
	if _, err := l.Load(context.Background(), srv.URL+"/a.png"); err == nil {
		t.Error("expected size limit error")
	}
}

func TestLoadUnsupported(t *testing.T) {
	for _, ref := range []string{"", "ftp://host/a.png"} {
		if _, err := NewLoader().Load(context.Background(), ref); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Load(%q) = %v, want ErrUnsupported", ref, err)
		}
	}
}

func TestPDFDetection(t *testing.T) {
	if !isPDFName("deck.PDF") || isPDFName("deck.png") {
		t.Error("isPDFName")
	}
	if !isPDFData([]byte("%PDF-1.7\n")) || isPDFData([]byte("\x89PNG")) {
		t.Error("isPDFData")
	}
}
