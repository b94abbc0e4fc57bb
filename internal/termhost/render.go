package termhost

import (
	"fmt"
	"slices"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"ffpopup/internal/host"
)

const tabstop = 8

// defaultBorderChars are top, right, bottom, left, topleft, topright,
// botright, botleft.
var defaultBorderChars = []string{"─", "│", "─", "│", "╭", "╮", "╯", "╰"}

// borderChars expands a popup's border characters: one entry is used for
// everything, two are sides and corners.
func borderChars(chars []string) []string {
	switch len(chars) {
	case 0:
		return defaultBorderChars
	case 1:
		return slices.Repeat(chars[:1], 8)
	case 2:
		c := chars[1]
		return []string{chars[0], chars[0], chars[0], chars[0], c, c, c, c}
	}
	out := slices.Clone(defaultBorderChars)
	copy(out, chars)
	return out
}

func mask(border []int) [4]int {
	var m [4]int
	for i := 0; i < len(border) && i < 4; i++ {
		if border[i] != 0 {
			m[i] = 1
		}
	}
	return m
}

// contentSize clamps the buffer's extent to the popup's limits.
func (h *Host) contentSize(w *window) (int, int) {
	lines := h.buffers[w.buf].lines
	width := 0
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(expandTabs(l)))
	}
	height := len(lines)
	a := w.args
	if a.MaxWidth > 0 {
		width = min(width, a.MaxWidth)
	}
	if a.MaxHeight > 0 {
		height = min(height, a.MaxHeight)
	}
	return max(width, a.MinWidth, 1), max(height, a.MinHeight, 1)
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabstop - col%tabstop
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// lineStyles layers, per byte of line: window highlight, syntax, the sign
// line highlight, props, then the first match of every window match.
func (h *Host) lineStyles(w *window, b *buffer, lnum int, line string, base host.Style) ([]host.Style, []host.Prop) {
	st := make([]host.Style, len(line))
	for i := range st {
		st[i] = base
	}
	paint := func(start, end int, s host.Style) {
		start, end = max(start, 0), min(end, len(line))
		for i := start; i < end; i++ {
			st[i] = over(st[i], s)
		}
	}
	if syn := h.syntaxSpans(b); lnum-1 < len(syn) {
		for _, sp := range syn[lnum-1] {
			paint(sp.start, sp.end, sp.style)
		}
	}
	var virt []host.Prop
	for _, p := range b.props {
		if p.Line != lnum {
			continue
		}
		if p.Col == 0 {
			if p.Text != "" {
				virt = append(virt, p)
			}
			continue
		}
		paint(p.Col-1, p.Col-1+p.Length, h.highlights[h.propHighlight(b, p)])
	}
	ids := make([]int, 0, len(w.matches))
	for id := range w.matches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m := w.matches[id]
		s, e, err := h.patterns.MatchStrPos(line, m.pattern)
		if err == nil && s >= 0 && e > s {
			paint(s, e, h.highlights[m.highlight])
		}
	}
	return st, virt
}

func (h *Host) propHighlight(b *buffer, p host.Prop) string {
	if p.Highlight != "" {
		return p.Highlight
	}
	return b.propTypes[p.Type]
}

// renderLine draws line in exactly width cells. Bytes are styled by st,
// virtual text follows the line and fill pads the rest.
func (h *Host) renderLine(line string, st []host.Style, virt []host.Prop, fill host.Style, b *buffer, width int) string {
	var out strings.Builder
	var run strings.Builder
	var runStyle host.Style
	cells := 0
	flush := func() {
		if run.Len() > 0 {
			out.WriteString(h.styles.get(runStyle).Render(run.String()))
			run.Reset()
		}
	}
	put := func(s string, w int, style host.Style) bool {
		if cells+w > width {
			return false
		}
		if style != runStyle {
			flush()
			runStyle = style
		}
		run.WriteString(s)
		cells += w
		return true
	}
	full := false
	for i, r := range line {
		style := st[i]
		if r == '\t' {
			n := tabstop - cells%tabstop
			if !put(strings.Repeat(" ", n), n, style) {
				full = true
				break
			}
			continue
		}
		if !put(string(r), runewidth.RuneWidth(r), style) {
			full = true
			break
		}
	}
	if !full {
		for _, p := range virt {
			style := over(fill, h.highlights[h.propHighlight(b, p)])
			for _, r := range p.Text {
				if !put(string(r), runewidth.RuneWidth(r), style) {
					break
				}
			}
		}
	}
	if cells < width {
		put(strings.Repeat(" ", width-cells), width-cells, fill)
	}
	flush()
	return out.String()
}

// renderWindow draws the popup including its border. Rows are returned
// top to bottom.
func (h *Host) renderWindow(w *window) []string {
	b := h.buffers[w.buf]
	width, height := h.contentSize(w)
	base := h.highlights[w.highlight]
	signLine, sign := h.signLine(w.buf)
	lineHl := h.highlights[sign.lineHighlight]

	rows := make([]string, 0, height+2)
	for r := 0; r < height; r++ {
		lnum := w.firstLine + r
		fill := base
		if signLine > 0 && lnum == signLine {
			fill = over(base, lineHl)
		}
		if lnum > len(b.lines) {
			rows = append(rows, h.renderLine("", nil, nil, fill, b, width))
			continue
		}
		line := b.lines[lnum-1]
		st, virt := h.lineStyles(w, b, lnum, line, fill)
		rows = append(rows, h.renderLine(line, st, virt, fill, b, width))
	}
	return h.frame(w, rows, width)
}

func (h *Host) frame(w *window, rows []string, width int) []string {
	m := mask(w.args.Border)
	if m == [4]int{} {
		return rows
	}
	ch := borderChars(w.args.BorderChars)
	bs := h.styles.get(h.highlights[BorderHighlight])
	corner := func(side1, side2 int, c string, fallback string) string {
		if m[side1] == 1 && m[side2] == 1 {
			return c
		}
		return fallback
	}
	edge := func(left, mid, right string) string {
		var s strings.Builder
		if m[3] == 1 {
			s.WriteString(left)
		}
		s.WriteString(strings.Repeat(mid, width))
		if m[1] == 1 {
			s.WriteString(right)
		}
		return bs.Render(s.String())
	}
	out := make([]string, 0, len(rows)+2)
	if m[0] == 1 {
		out = append(out, edge(corner(0, 3, ch[4], ch[0]), ch[0], corner(0, 1, ch[5], ch[0])))
	}
	for _, r := range rows {
		var s strings.Builder
		if m[3] == 1 {
			s.WriteString(bs.Render(ch[3]))
		}
		s.WriteString(r)
		if m[1] == 1 {
			s.WriteString(bs.Render(ch[1]))
		}
		out = append(out, s.String())
	}
	if m[2] == 1 {
		out = append(out, edge(corner(2, 3, ch[7], ch[2]), ch[2], corner(2, 1, ch[6], ch[2])))
	}
	return out
}

// origin is the 0-based screen cell of the popup's top-left border corner.
func origin(w *window) (row, col int) {
	m := mask(w.args.Border)
	return w.args.Line - 1 - m[0], w.args.Col - 1 - m[3]
}

func windowZone(win host.WinID) string { return fmt.Sprintf("ffpopup.win.%d", win) }

// overlay writes s over base starting at cell col.
func overlay(base, s string, col int) string {
	left := xansi.Truncate(base, col, "")
	if w := xansi.StringWidth(left); w < col {
		left += strings.Repeat(" ", col-w)
	}
	right := xansi.TruncateLeft(base, col+xansi.StringWidth(s), "")
	return left + s + right
}

// sortedWindows returns the windows in stacking order, oldest first.
func (h *Host) sortedWindows() []*window {
	ws := make([]*window, 0, len(h.windows))
	for _, w := range h.windows {
		ws = append(ws, w)
	}
	slices.SortFunc(ws, func(a, b *window) int { return int(a.id - b.id) })
	return ws
}

// screen composes every popup over a blank background and the status line.
func (h *Host) screen() string {
	rows := make([]string, h.height-1)
	blank := h.styles.get(h.highlights["Normal"]).Render(strings.Repeat(" ", h.width))
	for i := range rows {
		rows[i] = blank
	}
	for _, w := range h.sortedWindows() {
		block := h.renderWindow(w)
		marked := strings.Split(zone.Mark(windowZone(w.id), strings.Join(block, "\n")), "\n")
		top, left := origin(w)
		for i, r := range marked {
			y := top + i
			if y < 0 || y >= len(rows) {
				continue
			}
			if left < 0 {
				r = xansi.TruncateLeft(r, -left, "")
			}
			rows[y] = xansi.Truncate(overlay(rows[y], r, max(left, 0)), h.width, "")
		}
	}
	if h.showHelp {
		h.overlayHelp(rows)
	}
	rows = append(rows, h.statusLine())
	return strings.Join(rows, "\n")
}
