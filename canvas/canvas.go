package canvas

import (
	"errors"
	"fmt"
	"math"
)

var ErrBadSnapshot = errors.New("snapshot size mismatch")

// Canvas is the local replay target for broadcast drawing ops. Each
// client owns one; it lives in memory only and starts blank on every
// turn boundary.
type Canvas struct {
	w, h int
	pix  []RGBA
}

func New(w, h int) *Canvas {
	c := &Canvas{w: w, h: h, pix: make([]RGBA, w*h)}
	c.Clear()
	return c
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

func (c *Canvas) Clear() {
	for i := range c.pix {
		c.pix[i] = White
	}
}

func (c *Canvas) At(x, y int) RGBA {
	return c.pix[y*c.w+x]
}

func (c *Canvas) set(x, y int, col RGBA) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.pix[y*c.w+x] = col
}

// Apply replays one broadcast op onto the bitmap.
func (c *Canvas) Apply(op Op) error {
	switch op.Kind {
	case OpClear:
		c.Clear()
		return nil
	case OpStroke:
		return c.applyStroke(op)
	case OpFill:
		return c.applyFill(op)
	case OpSnapshot:
		return c.Restore(op.Pixels)
	}
	return fmt.Errorf("unknown op kind %q", op.Kind)
}

func (c *Canvas) applyStroke(op Op) error {
	col := White
	if op.Tool != ToolEraser {
		var err error
		col, err = ParseColor(op.Color)
		if err != nil {
			return err
		}
	}

	radius := int(math.Max(op.Thickness/2, 0.5))
	pts := op.Points
	if len(pts) == 1 {
		x, y := c.denorm(pts[0])
		c.stamp(x, y, radius, col)
		return nil
	}
	for i := 1; i < len(pts); i++ {
		x0, y0 := c.denorm(pts[i-1])
		x1, y1 := c.denorm(pts[i])
		c.line(x0, y0, x1, y1, radius, col)
	}
	return nil
}

func (c *Canvas) applyFill(op Op) error {
	if op.Seed == nil {
		return errors.New("fill op without seed point")
	}
	col, err := ParseColor(op.Color)
	if err != nil {
		return err
	}
	x, y := c.denorm(*op.Seed)
	c.FloodFill(x, y, col)
	return nil
}

func (c *Canvas) denorm(p Point) (int, int) {
	x := int(p.X * float64(c.w))
	y := int(p.Y * float64(c.h))
	return clamp(x, 0, c.w-1), clamp(y, 0, c.h-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// line stamps a disc of the stroke radius along a Bresenham walk
// between two samples.
func (c *Canvas) line(x0, y0, x1, y1, radius int, col RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.stamp(x0, y0, radius, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) stamp(cx, cy, radius int, col RGBA) {
	if radius <= 0 {
		c.set(cx, cy, col)
		return
	}
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				c.set(cx+dx, cy+dy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FloodFill runs a 4-connected stack-based scanline fill over the raw
// pixel buffer. The seed pixel's exact color is the match target; a
// no-op when the target already equals the fill color. Iteration is
// hard-bounded by w*h filled pixels to guard pathological geometries.
func (c *Canvas) FloodFill(x, y int, fill RGBA) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	target := c.At(x, y)
	if target == fill {
		return
	}

	type seed struct{ x, y int }
	stack := []seed{{x, y}}
	budget := c.w * c.h

	for len(stack) > 0 && budget > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if c.At(s.x, s.y) != target {
			continue
		}

		// Expand the span left and right on this row.
		lx := s.x
		for lx > 0 && c.At(lx-1, s.y) == target {
			lx--
		}
		rx := s.x
		for rx < c.w-1 && c.At(rx+1, s.y) == target {
			rx++
		}

		aboveInRun, belowInRun := false, false
		for px := lx; px <= rx; px++ {
			c.set(px, s.y, fill)
			budget--
			if budget <= 0 {
				return
			}

			if s.y > 0 {
				if c.At(px, s.y-1) == target {
					if !aboveInRun {
						stack = append(stack, seed{px, s.y - 1})
						aboveInRun = true
					}
				} else {
					aboveInRun = false
				}
			}
			if s.y < c.h-1 {
				if c.At(px, s.y+1) == target {
					if !belowInRun {
						stack = append(stack, seed{px, s.y + 1})
						belowInRun = true
					}
				} else {
					belowInRun = false
				}
			}
		}
	}
}

// Snapshot copies the raw pixel buffer; Restore loads one back. Used by
// the drawer's undo/redo ring and by snapshot ops on the wire.
func (c *Canvas) Snapshot() []byte {
	out := make([]byte, 0, len(c.pix)*4)
	for _, p := range c.pix {
		out = append(out, p[0], p[1], p[2], p[3])
	}
	return out
}

func (c *Canvas) Restore(raw []byte) error {
	if len(raw) != len(c.pix)*4 {
		return ErrBadSnapshot
	}
	for i := range c.pix {
		copy(c.pix[i][:], raw[i*4:i*4+4])
	}
	return nil
}
