package system

import (
	"image"
	"sync"
)

// DefaultIdleSurfaces is how many released surfaces of one size are kept.
const DefaultIdleSurfaces = 2

// SurfacePool хранит освобожденные кадровые поверхности по размеру, чтобы
// повторный рендер того же разрешения не выделял 8-33 МБ заново.
type SurfacePool struct {
	MaxIdle int

	mu   sync.Mutex
	idle map[image.Point][]*image.RGBA
}

var surfaces = NewSurfacePool(DefaultIdleSurfaces)

func NewSurfacePool(maxIdle int) *SurfacePool {
	return &SurfacePool{MaxIdle: maxIdle, idle: make(map[image.Point][]*image.RGBA)}
}

// AcquireSurface takes a w×h surface from the shared pool.
func AcquireSurface(w, h int) *image.RGBA {
	return surfaces.Acquire(image.Pt(w, h))
}

// ReleaseSurface returns a surface to the shared pool.
func ReleaseSurface(img *image.RGBA) {
	surfaces.Release(img)
}

// Acquire returns a surface of the given size anchored at the origin. Its
// contents are whatever the previous user left.
func (p *SurfacePool) Acquire(size image.Point) *image.RGBA {
	p.mu.Lock()
	free := p.idle[size]
	if n := len(free); n > 0 {
		img := free[n-1]
		free[n-1] = nil
		p.idle[size] = free[:n-1]
		p.mu.Unlock()
		return img
	}
	p.mu.Unlock()
	return image.NewRGBA(image.Rectangle{Max: size})
}

// Release keeps img for reuse unless MaxIdle surfaces of its size are
// already idle. Sub-images are dropped.
func (p *SurfacePool) Release(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) || img.Stride != img.Rect.Dx()*4 {
		return
	}
	size := img.Rect.Size()

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[size]) >= p.MaxIdle {
		return
	}
	p.idle[size] = append(p.idle[size], img)
}

// Idle reports how many surfaces of size are waiting for reuse.
func (p *SurfacePool) Idle(size image.Point) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle[size])
}
