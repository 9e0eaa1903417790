package effects

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/beat2video/internal/config"
)

// Effect modifies an opaque frame in place.
type Effect interface {
	Apply(dst *image.RGBA)
}

// Chain is an ordered list of effects applied one after another.
type Chain []Effect

func (c Chain) Apply(dst *image.RGBA) {
	for _, e := range c {
		e.Apply(dst)
	}
}

// FromGrading builds the effect chain for a project grade in the order the
// grading lab composes it: color, halation, bloom, vignette. A neutral grade
// yields an empty chain.
func FromGrading(g config.Grading) Chain {
	var chain Chain
	if !g.IsNeutralColor() {
		chain = append(chain, NewColorGrade(g))
	}
	if g.Halation > 0 {
		chain = append(chain, NewHalation(g.Halation))
	}
	if g.Bloom > 0 {
		chain = append(chain, &Bloom{Strength: g.Bloom})
	}
	if g.Vignette > 0 {
		chain = append(chain, &Vignette{Strength: g.Vignette})
	}
	return chain
}

// ColorGrade applies brightness, contrast, saturation, sepia, hue rotation
// and a multiply tint, in that order. Sepia and hue rotation use the CSS
// filter matrices.
type ColorGrade struct {
	pre        [256]float64
	tint       [3][256]uint8
	saturation float64
	mix        *[3][3]float64
}

func NewColorGrade(g config.Grading) *ColorGrade {
	c := &ColorGrade{saturation: g.Saturation}
	if g.Sepia != 0 || g.HueRotate != 0 {
		m := mul(hueRotateMatrix(g.HueRotate), sepiaMatrix(g.Sepia))
		c.mix = &m
	}
	for i := 0; i < 256; i++ {
		v := float64(i) / 255 * g.Brightness
		c.pre[i] = (v-0.5)*g.Contrast + 0.5
	}
	tints := [3]float64{g.TintR, g.TintG, g.TintB}
	for ch, t := range tints {
		t = clamp(t, 0, 1)
		for i := 0; i < 256; i++ {
			c.tint[ch][i] = uint8(math.Round(float64(i) * t))
		}
	}
	return c
}

func (c *ColorGrade) Apply(dst *image.RGBA) {
	forEachPixel(dst, func(px []uint8) {
		r, g, b := c.pre[px[0]], c.pre[px[1]], c.pre[px[2]]
		if c.saturation != 1 {
			l := 0.2126*r + 0.7152*g + 0.0722*b
			r = l + (r-l)*c.saturation
			g = l + (g-l)*c.saturation
			b = l + (b-l)*c.saturation
		}
		if m := c.mix; m != nil {
			r, g, b = m[0][0]*r+m[0][1]*g+m[0][2]*b,
				m[1][0]*r+m[1][1]*g+m[1][2]*b,
				m[2][0]*r+m[2][1]*g+m[2][2]*b
		}
		px[0] = c.tint[0][toByte(r)]
		px[1] = c.tint[1][toByte(g)]
		px[2] = c.tint[2][toByte(b)]
	})
}

func sepiaMatrix(amount float64) [3][3]float64 {
	k := 1 - clamp(amount, 0, 1)
	return [3][3]float64{
		{0.393 + 0.607*k, 0.769 - 0.769*k, 0.189 - 0.189*k},
		{0.349 - 0.349*k, 0.686 + 0.314*k, 0.168 - 0.168*k},
		{0.272 - 0.272*k, 0.534 - 0.534*k, 0.131 + 0.869*k},
	}
}

func hueRotateMatrix(deg float64) [3][3]float64 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return [3][3]float64{
		{0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928},
		{0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283},
		{0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072},
	}
}

// mul returns a·b, the matrix that applies b first.
func mul(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

// halationColor is the warm film glow screened over the frame.
var halationColor = [3]float64{255, 30, 0}

const halationAlpha = 0.2

// Halation screens a constant red-orange glow over the frame.
type Halation struct {
	lut [3][256]uint8
}

func NewHalation(strength float64) *Halation {
	h := &Halation{}
	a := clamp(strength, 0, 1) * halationAlpha
	for ch := 0; ch < 3; ch++ {
		s := halationColor[ch] / 255
		for i := 0; i < 256; i++ {
			d := float64(i) / 255
			screened := d + s - d*s
			h.lut[ch][i] = toByte(d + a*(screened-d))
		}
	}
	return h
}

func (h *Halation) Apply(dst *image.RGBA) {
	forEachPixel(dst, func(px []uint8) {
		px[0] = h.lut[0][px[0]]
		px[1] = h.lut[1][px[1]]
		px[2] = h.lut[2][px[2]]
	})
}

// bloomDownscale is the shrink factor of the glow buffer. Scaling down and
// back up with bilinear filtering does most of the blurring.
const bloomDownscale = 8

const bloomGain = 1.5

// Bloom screens a blurred, brightened copy of the frame over itself.
type Bloom struct {
	Strength float64

	small *image.RGBA
	glow  *image.RGBA
}

func (b *Bloom) Apply(dst *image.RGBA) {
	bounds := dst.Bounds()
	sw, sh := max(bounds.Dx()/bloomDownscale, 1), max(bounds.Dy()/bloomDownscale, 1)
	if b.small == nil || b.small.Bounds().Dx() != sw || b.small.Bounds().Dy() != sh {
		b.small = image.NewRGBA(image.Rect(0, 0, sw, sh))
	}
	if b.glow == nil || b.glow.Bounds() != bounds {
		b.glow = image.NewRGBA(bounds)
	}

	draw.ApproxBiLinear.Scale(b.small, b.small.Bounds(), dst, bounds, draw.Src, nil)
	boxBlur(b.small)
	draw.BiLinear.Scale(b.glow, bounds, b.small, b.small.Bounds(), draw.Src, nil)

	a := clamp(b.Strength, 0, 1)
	for y := 0; y < bounds.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+bounds.Dx()*4]
		glow := b.glow.Pix[y*b.glow.Stride : y*b.glow.Stride+bounds.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			for ch := 0; ch < 3; ch++ {
				d := float64(row[i+ch]) / 255
				s := math.Min(float64(glow[i+ch])/255*bloomGain, 1)
				row[i+ch] = toByte(d + a*(s-d*s))
			}
		}
	}
}

// Vignette darkens toward the corners along a radial gradient that is clear
// at the center and reaches Strength opacity at the corners.
type Vignette struct {
	Strength float64

	size image.Point
	keep []uint8
}

func (v *Vignette) Apply(dst *image.RGBA) {
	bounds := dst.Bounds()
	if v.size != bounds.Size() {
		v.buildMask(bounds.Size())
	}
	w := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		keep := v.keep[y*w : (y+1)*w]
		for x, k := range keep {
			i := x * 4
			row[i] = uint8(uint16(row[i]) * uint16(k) / 255)
			row[i+1] = uint8(uint16(row[i+1]) * uint16(k) / 255)
			row[i+2] = uint8(uint16(row[i+2]) * uint16(k) / 255)
		}
	}
}

func (v *Vignette) buildMask(size image.Point) {
	v.size = size
	v.keep = make([]uint8, size.X*size.Y)
	cx, cy := float64(size.X)/2, float64(size.Y)/2
	radius := math.Hypot(cx, cy)
	strength := clamp(v.Strength, 0, 1)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / radius
			v.keep[y*size.X+x] = toByte(1 - strength*math.Min(d, 1))
		}
	}
}

// boxBlur runs one 3x3 box blur pass over img.
func boxBlur(img *image.RGBA) {
	b := img.Bounds()
	src := make([]uint8, len(img.Pix))
	copy(src, img.Pix)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			var sum [3]int
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= b.Dy() {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= b.Dx() {
						continue
					}
					o := yy*img.Stride + xx*4
					sum[0] += int(src[o])
					sum[1] += int(src[o+1])
					sum[2] += int(src[o+2])
					n++
				}
			}
			o := y*img.Stride + x*4
			img.Pix[o] = uint8(sum[0] / n)
			img.Pix[o+1] = uint8(sum[1] / n)
			img.Pix[o+2] = uint8(sum[2] / n)
		}
	}
}

func forEachPixel(img *image.RGBA, fn func(px []uint8)) {
	w := img.Bounds().Dx()
	for y := 0; y < img.Bounds().Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i : i+4 : i+4])
		}
	}
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
