package lister

import (
	"slices"
	"strings"

	"ffpopup/internal/item"
)

// SelectedHighlightName names the span drawn over selected rows.
const SelectedHighlightName = "ffpopup-selected"

// RenderOptions controls how rows are drawn.
type RenderOptions struct {
	DisplayTree       bool
	Reversed          bool
	SelectedHighlight string
}

// LineHighlight is an item highlight placed on a popup line. Line and Col
// are 1-based; Col and Width are in bytes.
type LineHighlight struct {
	Name    string
	HlGroup string
	Line    int
	Col     int
	Width   int
}

// TreePrefix is the indentation and expansion marker drawn before an item.
func TreePrefix(it item.Item, displayTree bool) string {
	if !displayTree {
		return ""
	}
	label := "  "
	switch {
	case it.IsTree && it.Expanded:
		label = "- "
	case it.IsTree:
		label = "+ "
	}
	return strings.Repeat(" ", max(it.Level, 0)) + label
}

// Render returns the popup lines for the visible window and the
// highlights to place on them. A reversed list is anchored to the bottom
// of the popup with the cursor-side end nearest the filter.
func (m *Model) Render(o RenderOptions) ([]string, []LineHighlight) {
	end := min(m.first+m.maxDisplay, len(m.items))
	start := min(m.first, end)
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	pad := 0
	if o.Reversed {
		slices.Reverse(idx)
		pad = m.maxDisplay - len(idx)
	}

	lines := make([]string, 0, pad+len(idx))
	for range pad {
		lines = append(lines, "")
	}
	var hls []LineHighlight
	for n, i := range idx {
		it := m.items[i]
		prefix := TreePrefix(it, o.DisplayTree)
		text := prefix + it.Text()
		lines = append(lines, text)
		line := pad + n + 1
		if m.IsSelected(i) {
			hls = append(hls, LineHighlight{
				Name:    SelectedHighlightName,
				HlGroup: o.SelectedHighlight,
				Line:    line,
				Col:     1,
				Width:   len(text),
			})
			continue
		}
		for _, h := range it.Highlights {
			hls = append(hls, LineHighlight{
				Name:    h.Name,
				HlGroup: h.HlGroup,
				Line:    line,
				Col:     h.Col + len(prefix),
				Width:   h.Width,
			})
		}
	}
	return lines, hls
}

// CursorLine is the 1-based popup line the cursor sits on, or 0 when the
// list is empty.
func (m *Model) CursorLine(reversed bool) int {
	if len(m.items) == 0 {
		return 0
	}
	row := m.cursor - m.first
	if reversed {
		return m.maxDisplay - row
	}
	return row + 1
}
