package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for asset references the loader cannot read.
var ErrUnsupported = errors.New("unsupported asset reference")

// DefaultPDFDPI is the resolution PDF pages are rasterized at.
const DefaultPDFDPI = 150

// DefaultMaxBytes caps remote downloads.
const DefaultMaxBytes = 64 << 20

// Loader decodes beat assets. References can be local paths, file://,
// http(s):// or data: URLs. PDFs contribute their first page.
type Loader struct {
	Client   *http.Client
	PDFDPI   float64
	MaxBytes int64
}

func NewLoader() *Loader {
	return &Loader{
		Client:   &http.Client{Timeout: 60 * time.Second},
		PDFDPI:   DefaultPDFDPI,
		MaxBytes: DefaultMaxBytes,
	}
}

// Load resolves ref to a decoded image.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupported)
	case strings.HasPrefix(ref, "data:"):
		return l.loadDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.loadRemote(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("bad file url: %w", err)
		}
		return l.loadFile(u.Path)
	case strings.Contains(ref, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ref)
	default:
		return l.loadFile(ref)
	}
}

func (l *Loader) loadFile(path string) (image.Image, error) {
	if isPDFName(path) {
		return RenderPDFFile(path, l.dpi())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (l *Loader) loadRemote(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes()+1))
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	if int64(len(data)) > l.maxBytes() {
		return nil, fmt.Errorf("asset larger than %d bytes", l.maxBytes())
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "pdf") || isPDFName(req.URL.Path) || isPDFData(data) {
		return RenderPDFBytes(data, l.dpi())
	}
	return decodeBytes(data)
}

func (l *Loader) loadDataURL(ref string) (image.Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data url", ErrUnsupported)
	}

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
		data = []byte(s)
	}

	if strings.HasPrefix(meta, "application/pdf") || isPDFData(data) {
		return RenderPDFBytes(data, l.dpi())
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	return img, nil
}

func (l *Loader) dpi() float64 {
	if l.PDFDPI <= 0 {
		return DefaultPDFDPI
	}
	return l.PDFDPI
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return l.MaxBytes
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isPDFData(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
