package canvas

// History is the drawer-local undo/redo ring: a depth-bounded list of
// full-canvas snapshots. It is discarded whenever a new turn begins.
type History struct {
	depth int
	snaps [][]byte
	pos   int
}

func NewHistory(depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{depth: depth, pos: -1}
}

// Push records a snapshot, dropping any redo tail and evicting the
// oldest entry once the ring is full.
func (h *History) Push(snap []byte) {
	h.snaps = append(h.snaps[:h.pos+1], snap)
	if len(h.snaps) > h.depth {
		h.snaps = h.snaps[len(h.snaps)-h.depth:]
	}
	h.pos = len(h.snaps) - 1
}

func (h *History) Undo() ([]byte, bool) {
	if h.pos <= 0 {
		return nil, false
	}
	h.pos--
	return h.snaps[h.pos], true
}

func (h *History) Redo() ([]byte, bool) {
	if h.pos < 0 || h.pos >= len(h.snaps)-1 {
		return nil, false
	}
	h.pos++
	return h.snaps[h.pos], true
}

func (h *History) Reset() {
	h.snaps = nil
	h.pos = -1
}

func (h *History) Len() int { return len(h.snaps) }
