package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/beat2video/internal/caption"
	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/effects"
	"github.com/ivlev/beat2video/internal/renderer"
	"github.com/ivlev/beat2video/internal/system"
	"github.com/ivlev/beat2video/internal/textlayout"
	"github.com/ivlev/beat2video/internal/timeline"
)

// ErrCanvasUnavailable is returned when no drawing surface can be set up
// for the requested canvas.
var ErrCanvasUnavailable = errors.New("canvas unavailable")

const (
	// ReferenceWidth is the canvas width the caption font size is given for.
	ReferenceWidth = 800
	// MinFontSize is the floor for the scaled caption font size.
	MinFontSize = 40
	// BookendFontScale shrinks title and credits captions.
	BookendFontScale = 0.85

	attributionRefWidth = 1920
	attributionSize     = 24
	attributionInset    = 30
	attributionPrefix   = "Source: "
	qrRefSize           = 160
)

var attributionColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 102}

// Frame is one beat together with its decoded image. A nil Image means the
// asset is missing and the frame renders without it.
type Frame struct {
	Beat  timeline.Beat
	Image image.Image
}

type captionLayout struct {
	key   string
	lines []string
	box   caption.Box
	face  font.Face
}

// Compositor draws frames onto a single surface it owns for the duration
// of a render. It is not safe for concurrent use.
type Compositor struct {
	settings config.Settings
	surface  *image.RGBA
	faces    *textlayout.Faces
	grade    effects.Chain

	attribution font.Face
	qr          image.Image
	captions    map[string]captionLayout
}

// New allocates the surface for settings and prepares fonts, the grading
// chain and the credits QR code.
func New(settings config.Settings, faces *textlayout.Faces) (*Compositor, error) {
	w, h, err := settings.CanvasSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanvasUnavailable, err)
	}

	c := &Compositor{
		settings: settings,
		faces:    faces,
		grade:    effects.FromGrading(settings.Grading),
		captions: make(map[string]captionLayout),
	}

	size := math.Round(attributionSize * float64(w) / attributionRefWidth)
	c.attribution, err = faces.Face("monospace", size, textlayout.Regular)
	if err != nil {
		return nil, fmt.Errorf("%w: attribution font: %v", ErrCanvasUnavailable, err)
	}
	if _, err := faces.Face(settings.CaptionStyle.FontFamily, CaptionFontSize(settings.CaptionStyle.FontSize, w, false), textlayout.SemiBold); err != nil {
		return nil, fmt.Errorf("%w: caption font: %v", ErrCanvasUnavailable, err)
	}

	if settings.CreditsURL != "" {
		c.qr, err = creditsCode(settings.CreditsURL, int(math.Round(qrRefSize*float64(w)/attributionRefWidth)))
		if err != nil {
			return nil, err
		}
	}

	c.surface = system.AcquireSurface(w, h)
	return c, nil
}

func creditsCode(url string, size int) (image.Image, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credits url: %w", err)
	}
	q.BackgroundColor = color.White
	q.ForegroundColor = color.Black
	return q.Image(size), nil
}

// CaptionFontSize scales a configured font size to the canvas width. The
// result never drops below MinFontSize before the bookend reduction.
func CaptionFontSize(base float64, canvasW int, bookend bool) float64 {
	fs := math.Max(math.Round(base*float64(canvasW)/ReferenceWidth), MinFontSize)
	if bookend {
		fs *= BookendFontScale
	}
	return fs
}

func (c *Compositor) Surface() *image.RGBA { return c.surface }

func (c *Compositor) Size() image.Point { return c.surface.Bounds().Size() }

// Release hands the surface back to the buffer pool. The compositor must
// not be used afterwards.
func (c *Compositor) Release() {
	if c.surface != nil {
		system.ReleaseSurface(c.surface)
		c.surface = nil
	}
}

// RenderFrame composites f at fractional progress p through its beat.
// Layers, bottom to top: black fill, image, grading, attribution or
// credits code, caption.
func (c *Compositor) RenderFrame(f Frame, p float64) {
	dst := c.surface
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	if f.Image != nil && !f.Image.Bounds().Empty() {
		src := f.Image.Bounds()
		cam := renderer.Camera(c.Size(), src, f.Beat.VerticalOffsetPercent, p)
		draw.ApproxBiLinear.Transform(dst, cam.Transform(src), f.Image, src, draw.Over, nil)
	}

	c.grade.Apply(dst)

	switch {
	case f.Beat.IsCredits() && c.qr != nil:
		c.drawCreditsCode()
	case f.Beat.AttributionLabel != "" && !f.Beat.IsBookend():
		c.drawAttribution(f.Beat.AttributionLabel)
	}

	c.drawCaption(f.Beat)
}

func (c *Compositor) drawAttribution(label string) {
	text := attributionPrefix + label
	d := &font.Drawer{Dst: c.surface, Src: image.NewUniform(attributionColor), Face: c.attribution}
	w := d.MeasureString(text)
	size := c.Size()
	d.Dot = fixed.Point26_6{
		X: fixed.I(size.X-attributionInset) - w,
		Y: fixed.I(size.Y - attributionInset),
	}
	d.DrawString(text)
}

func (c *Compositor) drawCreditsCode() {
	size := c.Size()
	b := c.qr.Bounds()
	r := image.Rect(size.X-attributionInset-b.Dx(), size.Y-attributionInset-b.Dy(), size.X-attributionInset, size.Y-attributionInset)
	draw.Draw(c.surface, r, c.qr, b.Min, draw.Src)
}

func (c *Compositor) drawCaption(beat timeline.Beat) {
	layout, ok := c.captions[beat.ID]
	key := beat.Caption
	if !ok || layout.key != key {
		layout = c.layoutCaption(beat)
		c.captions[beat.ID] = layout
	}
	if layout.box.Empty() {
		return
	}
	caption.Paint(c.surface, layout.box, layout.lines, layout.face, c.settings.CaptionStyle)
}

// layoutCaption wraps and measures a beat caption. Results are cached per
// beat so every frame of a beat reuses the same geometry.
func (c *Compositor) layoutCaption(beat timeline.Beat) captionLayout {
	out := captionLayout{key: beat.Caption}
	text := textlayout.PlainText(beat.Caption)
	if text == "" {
		return out
	}

	style := c.settings.CaptionStyle
	size := c.Size()
	fs := CaptionFontSize(style.FontSize, size.X, beat.IsBookend())
	face, err := c.faces.Face(style.FontFamily, fs, textlayout.SemiBold)
	if err != nil {
		return out
	}

	m := textlayout.FaceMeasurer{Face: face}
	lines := textlayout.Wrap(m, text, caption.MaxTextWidth(size.X, fs, style))
	out.lines = lines
	out.face = face
	out.box = caption.Layout(textlayout.Widths(m, lines), caption.Params{
		FontSize: fs,
		Style:    style,
		CanvasW:  size.X,
		CanvasH:  size.Y,
		Centered: beat.IsBookend(),
	})
	return out
}

// CaptionBox lays out the caption of beat without drawing it.
func (c *Compositor) CaptionBox(beat timeline.Beat) (caption.Box, []string) {
	layout := c.layoutCaption(beat)
	return layout.box, layout.lines
}
