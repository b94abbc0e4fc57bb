package linebuf

// History is a linear undo stack of buffer snapshots.
type History struct {
	entries []*LineBuffer
	cur     int
}

func NewHistory() *History { return &History{cur: -1} }

// Push drops every entry after the current one and appends a copy of b.
func (h *History) Push(b *LineBuffer) {
	h.entries = append(h.entries[:h.cur+1], b.Clone())
	h.cur = len(h.entries) - 1
}

// Prev steps back and returns a copy of that snapshot, or nil at the start.
func (h *History) Prev() *LineBuffer {
	if h.cur <= 0 {
		return nil
	}
	h.cur--
	return h.entries[h.cur].Clone()
}

// Next steps forward and returns a copy of that snapshot, or nil at the end.
func (h *History) Next() *LineBuffer {
	if h.cur+1 >= len(h.entries) {
		return nil
	}
	h.cur++
	return h.entries[h.cur].Clone()
}

func (h *History) Len() int { return len(h.entries) }
