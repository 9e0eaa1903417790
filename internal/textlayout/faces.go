package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type Weight int

const (
	Regular Weight = iota
	SemiBold
)

type faceKey struct {
	family string
	size   float64
	weight Weight
}

// Faces caches parsed fonts and sized faces. Families "sans-serif", "serif",
// "Inter" and unknown names use the embedded Go fonts, "monospace" uses Go
// Mono, and a path to a .ttf/.otf file is loaded from disk.
type Faces struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

func NewFaces() *Faces {
	return &Faces{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns a face of the given pixel size.
func (f *Faces) Face(family string, size float64, weight Weight) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{family: family, size: size, weight: weight}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}

	otf, err := f.font(family, weight)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	f.faces[key] = face
	return face, nil
}

func (f *Faces) font(family string, weight Weight) (*opentype.Font, error) {
	data, name, err := fontSource(family, weight)
	if err != nil {
		return nil, err
	}
	if otf, ok := f.fonts[name]; ok {
		return otf, nil
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	f.fonts[name] = otf
	return otf, nil
}

func fontSource(family string, weight Weight) ([]byte, string, error) {
	lower := strings.ToLower(family)
	if strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf") {
		data, err := os.ReadFile(family)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read font file: %w", err)
		}
		return data, family, nil
	}

	mono := lower == "monospace" || lower == "mono"
	switch {
	case mono && weight == SemiBold:
		return gomonobold.TTF, "gomonobold", nil
	case mono:
		return gomono.TTF, "gomono", nil
	case weight == SemiBold:
		return gobold.TTF, "gobold", nil
	default:
		return goregular.TTF, "goregular", nil
	}
}

// Close releases every cached face.
func (f *Faces) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, face := range f.faces {
		face.Close()
		delete(f.faces, k)
	}
	return nil
}

// Metrics returns ascent and descent of face in pixels.
func Metrics(face font.Face) (ascent, descent float64) {
	m := face.Metrics()
	return Float(m.Ascent), Float(m.Descent)
}
