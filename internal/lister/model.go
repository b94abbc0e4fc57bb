// Package lister keeps the candidate list shown in the lister popup: items,
// selection, cursor and the visible window.
package lister

import (
	"slices"

	"ffpopup/internal/item"
)

// Model is the state behind the lister popup.
type Model struct {
	items      []item.Item
	selected   map[int]struct{}
	cursor     int
	first      int
	maxDisplay int
	scrolloff  int
}

func New() *Model {
	return &Model{selected: map[int]struct{}{}}
}

// SetMaxDisplay sets the number of rows the popup can show.
func (m *Model) SetMaxDisplay(n int) { m.maxDisplay = max(n, 0) }

func (m *Model) MaxDisplay() int { return m.maxDisplay }

func (m *Model) SetScrolloff(n int) { m.scrolloff = max(n, 0) }

func (m *Model) Len() int { return len(m.items) }

func (m *Model) Items() []item.Item { return m.items }

func (m *Model) Cursor() int { return m.cursor }

func (m *Model) First() int { return m.first }

// DisplayCount is the number of rows actually occupied.
func (m *Model) DisplayCount() int { return min(m.maxDisplay, len(m.items)) }

// viewport clamps scrolloff to half the visible rows the way Vim does, so
// the cursor can never be pushed out of the window.
func (m *Model) viewport() Viewport {
	disp := m.DisplayCount()
	return Viewport{
		ItemCount:    len(m.items),
		Scrolloff:    min(m.scrolloff, max((disp-1)/2, 0)),
		DisplayCount: disp,
	}
}

// Refresh replaces the items and resets selection, cursor and window.
func (m *Model) Refresh(items []item.Item) {
	m.items = items
	clear(m.selected)
	m.cursor, m.first = 0, 0
}

// Move moves the cursor by delta rows. It reports whether the window
// scrolled and whether the cursor moved.
func (m *Model) Move(delta int) (scrolled, moved bool) {
	cursor, first := MoveCursorline(m.cursor, m.first, delta, m.viewport())
	scrolled = first != m.first
	moved = cursor != m.cursor
	m.cursor, m.first = cursor, first
	return scrolled, moved
}

// SearchItem moves the cursor onto the first item deep-equal to target.
// It reports whether the cursor changed.
func (m *Model) SearchItem(target item.Item) bool {
	idx := slices.IndexFunc(m.items, func(it item.Item) bool { return item.Equal(it, target) })
	if idx <= 0 {
		return false
	}
	m.cursor, m.first = MoveCursorline(0, 0, idx, m.viewport())
	return true
}

// CurrentItem returns the item under the cursor.
func (m *Model) CurrentItem() (item.Item, bool) {
	if len(m.items) == 0 {
		return item.Item{}, false
	}
	return m.items[m.cursor], true
}

// ItemsForAction returns the selected items in list order, or the item
// under the cursor when nothing is selected.
func (m *Model) ItemsForAction() []item.Item {
	if len(m.items) == 0 {
		return nil
	}
	if len(m.selected) == 0 {
		return []item.Item{m.items[m.cursor]}
	}
	out := make([]item.Item, 0, len(m.selected))
	for _, i := range m.Selected() {
		out = append(out, m.items[i])
	}
	return out
}

// CollapseItem removes the descendants of the node matching target and
// stores target in its place. It returns how many items were removed.
func (m *Model) CollapseItem(target item.Item) int {
	start := slices.IndexFunc(m.items, func(it item.Item) bool { return item.SameNode(it, target) })
	if start < 0 {
		return 0
	}
	prev := len(m.items)
	end := len(m.items)
	for i := start + 1; i < len(m.items); i++ {
		if m.items[i].Level <= target.Level {
			end = i
			break
		}
	}
	m.items = slices.Delete(m.items, start+1, end)
	m.items[start] = target
	clear(m.selected)
	m.clampCursor()
	return prev - len(m.items)
}

// ExpandItem inserts children after the node matching parent. When grouped,
// the first child replaces the parent instead. Children of an unknown
// parent are appended. It returns the previous length minus the new one.
func (m *Model) ExpandItem(parent item.Item, children []item.Item, grouped bool) int {
	idx := slices.IndexFunc(m.items, func(it item.Item) bool { return item.SameNode(it, parent) })
	prev := len(m.items)
	switch {
	case idx < 0:
		m.items = append(m.items, children...)
	case grouped:
		if len(children) > 0 {
			m.items[idx] = children[0]
		}
	default:
		m.items = slices.Insert(m.items, idx+1, children...)
		m.items[idx] = parent
	}
	clear(m.selected)
	return prev - len(m.items)
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
	if disp := m.DisplayCount(); m.first > len(m.items)-disp {
		m.first = max(len(m.items)-disp, 0)
	}
}

// ToggleSelect flips the selection of the item under the cursor.
func (m *Model) ToggleSelect() bool {
	if len(m.items) == 0 {
		return false
	}
	m.ToggleSelectIndex(m.cursor)
	return true
}

func (m *Model) ToggleSelectIndex(i int) {
	if i < 0 || i >= len(m.items) {
		return
	}
	if _, ok := m.selected[i]; ok {
		delete(m.selected, i)
	} else {
		m.selected[i] = struct{}{}
	}
}

// ToggleSelectAll selects exactly the items that were not selected.
func (m *Model) ToggleSelectAll() {
	next := make(map[int]struct{}, len(m.items)-len(m.selected))
	for i := range m.items {
		if _, ok := m.selected[i]; !ok {
			next[i] = struct{}{}
		}
	}
	m.selected = next
}

func (m *Model) ClearSelection() { clear(m.selected) }

func (m *Model) IsSelected(i int) bool {
	_, ok := m.selected[i]
	return ok
}

// Selected returns the selected indexes in ascending order.
func (m *Model) Selected() []int {
	out := make([]int, 0, len(m.selected))
	for i := range m.selected {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
