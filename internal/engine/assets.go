package engine

import (
	"context"
	"image"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/beat2video/internal/system"
	"github.com/ivlev/beat2video/internal/timeline"
)

// assetQueue decodes beat assets a fixed number of beats ahead of the frame
// loop. A decoded image is handed over once and the queue keeps no
// reference to it, so at most ahead+1 beat images are alive at a time and
// no more than that many decodes run at once.
type assetQueue struct {
	d     *Driver
	g     *errgroup.Group
	gctx  context.Context
	beats []timeline.Beat
	slots []chan image.Image
	ahead int
}

func (d *Driver) newAssetQueue(ctx context.Context, beats []timeline.Beat) *assetQueue {
	g, gctx := errgroup.WithContext(ctx)
	ahead := d.Config.Prefetch
	if ahead <= 0 {
		ahead = 1
	}
	return &assetQueue{
		d:     d,
		g:     g,
		gctx:  gctx,
		beats: beats,
		slots: make([]chan image.Image, len(beats)),
		ahead: ahead,
	}
}

// fetch starts decoding beat i unless it has no asset or is already queued.
func (q *assetQueue) fetch(i int) {
	if i >= len(q.beats) || q.slots[i] != nil || q.d.Loader == nil || q.beats[i].AssetURL == "" {
		return
	}
	slot := make(chan image.Image, 1)
	q.slots[i] = slot
	beat := q.beats[i]
	q.g.Go(func() error {
		slot <- q.d.load(q.gctx, beat)
		return nil
	})
}

// take returns the image of beat i, waiting for its decode if needed, and
// queues the following beats. Absent or failed assets give nil.
func (q *assetQueue) take(ctx context.Context, i int) (image.Image, error) {
	q.fetch(i)
	for j := i + 1; j <= i+q.ahead; j++ {
		q.fetch(j)
	}
	slot := q.slots[i]
	if slot == nil {
		return nil, nil
	}
	q.slots[i] = nil
	select {
	case img := <-slot:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// wait blocks until every queued decode has finished.
func (q *assetQueue) wait() {
	q.g.Wait()
}

// load decodes one beat asset. Errors are logged and turn into nil so the
// beat renders without an image.
func (d *Driver) load(ctx context.Context, beat timeline.Beat) image.Image {
	img, err := d.Loader.Load(ctx, beat.AssetURL)
	if err != nil {
		if ctx.Err() == nil {
			d.logger().Warn("asset unavailable, rendering without image",
				zap.String("beat", beat.ID),
				zap.String("asset", beat.AssetURL),
				zap.Error(err),
			)
		}
		return nil
	}
	d.checkAsset(beat, img)
	return img
}

// checkAsset warns when the decoded images held during a beat may not fit
// in memory: the current one plus those queued behind it.
func (d *Driver) checkAsset(beat timeline.Beat, img image.Image) {
	size := img.Bounds().Size()
	held := uint64(d.Config.Prefetch+1) * uint64(size.X) * uint64(size.Y) * 4
	check, err := system.CheckMemory(held)
	if err != nil {
		return
	}
	if !check.OK() {
		d.logger().Warn("large asset for available memory",
			zap.String("beat", beat.ID),
			zap.Int("width", size.X),
			zap.Int("height", size.Y),
			zap.String("memory", check.String()),
		)
	}
}
