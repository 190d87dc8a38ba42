package canvas

import (
	"golang.org/x/time/rate"
)

// FlushInterval is the stroke broadcast throttle: pointer samples are
// buffered locally and flushed at roughly 60 Hz to bound message rate
// while local rendering stays smooth.
const FlushInterval = 16 // milliseconds

// Batcher accumulates pointer samples for the in-progress stroke and
// emits partial stroke ops through flush. End always flushes whatever
// remains, so pointer release never loses samples.
type Batcher struct {
	limiter   *rate.Limiter
	flush     func(Op)
	tool      Tool
	color     string
	thickness float64
	buf       []Point
	active    bool
}

func NewBatcher(flush func(Op)) *Batcher {
	return &Batcher{
		limiter: rate.NewLimiter(rate.Limit(1000.0/FlushInterval), 1),
		flush:   flush,
	}
}

// newBatcherWithLimiter lets tests drive the throttle deterministically.
func newBatcherWithLimiter(flush func(Op), limiter *rate.Limiter) *Batcher {
	return &Batcher{limiter: limiter, flush: flush}
}

func (b *Batcher) Begin(tool Tool, color string, thickness float64) {
	b.tool = tool
	b.color = color
	b.thickness = thickness
	b.buf = b.buf[:0]
	b.active = true
}

func (b *Batcher) Add(p Point) {
	if !b.active {
		return
	}
	b.buf = append(b.buf, p)
	if b.limiter.Allow() {
		b.emit()
	}
}

// End flushes remaining buffered points and closes the stroke.
func (b *Batcher) End() {
	if !b.active {
		return
	}
	b.emit()
	b.active = false
}

func (b *Batcher) emit() {
	if len(b.buf) == 0 {
		return
	}
	pts := make([]Point, len(b.buf))
	copy(pts, b.buf)
	b.flush(Op{
		Kind:      OpStroke,
		Tool:      b.tool,
		Color:     b.color,
		Thickness: b.thickness,
		Points:    pts,
	})
	// Keep the last sample so the next partial op joins seamlessly.
	b.buf = append(b.buf[:0], b.buf[len(b.buf)-1])
}
