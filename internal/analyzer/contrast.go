package analyzer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector finds busy regions with a Sobel edge pass, joins nearby
// edges by dilation and reports the bounding boxes of connected areas.
// Work happens on a downscaled grayscale copy.
type ContrastDetector struct {
	WorkWidth     int     // width of the analysis copy
	MinBlockArea  int     // in analysis pixels
	EdgeThreshold float64 // gradient magnitude
	DilateRadius  int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		WorkWidth:     256,
		MinBlockArea:  64,
		EdgeThreshold: 60,
		DilateRadius:  3,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, nil
	}

	gray, factor := d.downscale(img)
	edges := sobel(gray, d.EdgeThreshold)
	mask := edges.dilate(d.DilateRadius)

	var blocks []Block
	for _, r := range mask.components() {
		if r.Dx()*r.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect:       scaleRect(r, factor).Add(src.Min).Intersect(src),
			Confidence: edges.density(r),
		})
	}
	return blocks, nil
}

// downscale returns a grayscale copy no wider than WorkWidth and the factor
// that maps its coordinates back to the source.
func (d *ContrastDetector) downscale(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	factor := 1.0
	if d.WorkWidth > 0 && w > d.WorkWidth {
		factor = float64(w) / float64(d.WorkWidth)
		w = d.WorkWidth
		h = max(1, int(math.Round(float64(h)/factor)))
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	return gray, factor
}

// grid is a binary mask in analysis coordinates.
type grid struct {
	w, h int
	px   []bool
}

func newGrid(w, h int) *grid {
	return &grid{w: w, h: h, px: make([]bool, w*h)}
}

func (g *grid) at(x, y int) bool { return g.px[y*g.w+x] }

// sobel marks pixels whose gradient magnitude exceeds threshold. The
// outermost ring stays unmarked.
func sobel(img *image.Gray, threshold float64) *grid {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := newGrid(w, h)
	v := func(x, y int) float64 { return float64(img.Pix[y*img.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -v(x-1, y-1) + v(x+1, y-1) - 2*v(x-1, y) + 2*v(x+1, y) - v(x-1, y+1) + v(x+1, y+1)
			gy := -v(x-1, y-1) - 2*v(x, y-1) - v(x+1, y-1) + v(x-1, y+1) + 2*v(x, y+1) + v(x+1, y+1)
			out.px[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return out
}

// dilate grows every marked pixel into a square of the given radius.
func (g *grid) dilate(radius int) *grid {
	out := newGrid(g.w, g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			if !g.at(x, y) {
				continue
			}
			for yy := max(0, y-radius); yy <= min(g.h-1, y+radius); yy++ {
				for xx := max(0, x-radius); xx <= min(g.w-1, x+radius); xx++ {
					out.px[yy*g.w+xx] = true
				}
			}
		}
	}
	return out
}

// components returns the bounding box of every 4-connected marked area in
// scan order.
func (g *grid) components() []image.Rectangle {
	visited := make([]bool, len(g.px))
	var rects []image.Rectangle

	for start := range g.px {
		if !g.px[start] || visited[start] {
			continue
		}
		visited[start] = true
		r := image.Rect(start%g.w, start/g.w, start%g.w+1, start/g.w+1)
		stack := []int{start}

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%g.w, i/g.w
			r = r.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[0] >= g.w || n[1] < 0 || n[1] >= g.h {
					continue
				}
				j := n[1]*g.w + n[0]
				if g.px[j] && !visited[j] {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		rects = append(rects, r)
	}
	return rects
}

func (g *grid) density(r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if g.at(x, y) {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy())
}

func scaleRect(r image.Rectangle, f float64) image.Rectangle {
	if f == 1 {
		return r
	}
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*f)), int(math.Floor(float64(r.Min.Y)*f)),
		int(math.Ceil(float64(r.Max.X)*f)), int(math.Ceil(float64(r.Max.Y)*f)),
	)
}
