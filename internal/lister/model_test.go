package lister

import (
	"fmt"
	"slices"
	"testing"

	"ffpopup/internal/item"
)

func words(ws ...string) []item.Item {
	out := make([]item.Item, len(ws))
	for i, w := range ws {
		out[i] = item.Item{Word: w}
	}
	return out
}

func texts(items []item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Word
	}
	return out
}

func TestModel_SelectLowerScenario(t *testing.T) {
	m := New()
	m.SetMaxDisplay(2)
	m.Refresh(words("a", "b", "c"))
	m.Move(1)
	scrolled, moved := m.Move(1)
	if !scrolled || !moved {
		t.Fatalf("second move should scroll and move, got %v %v", scrolled, moved)
	}
	if m.Cursor() != 2 || m.First() != 1 {
		t.Fatalf("got (%d,%d), want (2,1)", m.Cursor(), m.First())
	}
}

func TestModel_ScrolloffClampedToHalfWindow(t *testing.T) {
	m := New()
	m.SetMaxDisplay(3)
	m.SetScrolloff(99)
	m.Refresh(words("a", "b", "c", "d", "e"))
	for range 5 {
		m.Move(-1)
		if c, f := m.Cursor(), m.First(); c < f || c >= f+3 {
			t.Fatalf("cursor %d outside window starting at %d", c, f)
		}
	}
}

func TestModel_ItemsForAction(t *testing.T) {
	m := New()
	m.SetMaxDisplay(5)
	if got := m.ItemsForAction(); got != nil {
		t.Fatalf("empty list should give nil, got %v", got)
	}
	m.Refresh(words("a", "b", "c", "d"))
	m.Move(2)
	if got := texts(m.ItemsForAction()); !slices.Equal(got, []string{"c"}) {
		t.Fatalf("got %v, want [c]", got)
	}
	m.ToggleSelect()
	m.Move(-2)
	m.ToggleSelect()
	if got := texts(m.ItemsForAction()); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("got %v, want [a c]", got)
	}
	m.ToggleSelect()
	if got := m.Selected(); !slices.Equal(got, []int{2}) {
		t.Fatalf("toggle again should deselect, got %v", got)
	}
	m.ClearSelection()
	if len(m.Selected()) != 0 {
		t.Fatalf("ClearSelection left %v", m.Selected())
	}
}

func TestModel_ToggleSelectAllTwice(t *testing.T) {
	for n := 0; n <= 6; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			m := New()
			m.Refresh(words(make([]string, n)...))
			for i := range n {
				if mask&(1<<i) != 0 {
					m.ToggleSelectIndex(i)
				}
			}
			before := m.Selected()
			m.ToggleSelectAll()
			for i := range n {
				if m.IsSelected(i) == (mask&(1<<i) != 0) {
					t.Fatalf("n=%d mask=%b: index %d not flipped", n, mask, i)
				}
			}
			m.ToggleSelectAll()
			if got := m.Selected(); !slices.Equal(got, before) {
				t.Fatalf("n=%d mask=%b: got %v, want %v", n, mask, got, before)
			}
		}
	}
}

func tree() []item.Item {
	return []item.Item{
		{Word: "root", TreePath: []string{"root"}, IsTree: true, Expanded: true, Level: 0},
		{Word: "a", TreePath: []string{"root", "a"}, IsTree: true, Expanded: true, Level: 1},
		{Word: "a1", TreePath: []string{"root", "a", "a1"}, Level: 2},
		{Word: "a2", TreePath: []string{"root", "a", "a2"}, Level: 2},
		{Word: "b", TreePath: []string{"root", "b"}, Level: 1},
	}
}

func TestModel_CollapseMatchesTargetNode(t *testing.T) {
	m := New()
	m.SetMaxDisplay(10)
	m.Refresh(tree())
	m.ToggleSelectIndex(4)

	target := item.Item{Word: "a", TreePath: []string{"root", "a"}, IsTree: true, Level: 1}
	if d := m.CollapseItem(target); d != 2 {
		t.Fatalf("CollapseItem delta = %d, want 2", d)
	}
	if got := texts(m.Items()); !slices.Equal(got, []string{"root", "a", "b"}) {
		t.Fatalf("items = %v", got)
	}
	if m.Items()[1].Expanded {
		t.Fatalf("collapsed node was not replaced by the target")
	}
	if len(m.Selected()) != 0 {
		t.Fatalf("selection should be cleared")
	}

	// a node from another source with the same path is a different node
	other := target
	other.SourceIndex = 1
	if d := m.CollapseItem(other); d != 0 {
		t.Fatalf("unknown node delta = %d, want 0", d)
	}
}

func TestModel_CollapseLastSubtree(t *testing.T) {
	m := New()
	m.SetMaxDisplay(10)
	m.Refresh(tree()[:4])
	m.Move(3)
	if d := m.CollapseItem(item.Item{Word: "root", TreePath: []string{"root"}, IsTree: true}); d != 3 {
		t.Fatalf("delta = %d, want 3", d)
	}
	if m.Len() != 1 || m.Cursor() != 0 {
		t.Fatalf("len=%d cursor=%d", m.Len(), m.Cursor())
	}
}

func TestModel_ExpandItem(t *testing.T) {
	m := New()
	m.SetMaxDisplay(10)
	items := tree()
	items[1].Expanded = false
	m.Refresh([]item.Item{items[0], items[1], items[4]})
	m.ToggleSelectIndex(0)

	parent := items[1]
	parent.Expanded = true
	if d := m.ExpandItem(parent, []item.Item{items[2], items[3]}, false); d != -2 {
		t.Fatalf("delta = %d, want -2", d)
	}
	if got := texts(m.Items()); !slices.Equal(got, []string{"root", "a", "a1", "a2", "b"}) {
		t.Fatalf("items = %v", got)
	}
	if !m.Items()[1].Expanded || len(m.Selected()) != 0 {
		t.Fatalf("parent not replaced or selection kept")
	}

	grouped := item.Item{Word: "a/a1", TreePath: []string{"root", "a", "a1"}, Level: 1}
	if d := m.ExpandItem(parent, []item.Item{grouped}, true); d != 0 {
		t.Fatalf("grouped delta = %d, want 0", d)
	}
	if m.Items()[1].Word != "a/a1" {
		t.Fatalf("grouped child did not replace parent: %v", texts(m.Items()))
	}

	orphan := item.Item{Word: "x", TreePath: []string{"x"}}
	if d := m.ExpandItem(orphan, words("x1"), false); d != -1 || m.Items()[m.Len()-1].Word != "x1" {
		t.Fatalf("children of unknown parent should be appended, delta=%d", d)
	}
}

func TestModel_SearchItem(t *testing.T) {
	m := New()
	m.SetMaxDisplay(3)
	m.Refresh(words("a", "b", "c", "d", "e"))
	if m.SearchItem(item.Item{Word: "a"}) {
		t.Fatalf("first item should not move the cursor")
	}
	if !m.SearchItem(item.Item{Word: "e"}) || m.Cursor() != 4 || m.First() != 2 {
		t.Fatalf("cursor=%d first=%d", m.Cursor(), m.First())
	}
	if m.SearchItem(item.Item{Word: "zz"}) {
		t.Fatalf("unknown item should not move the cursor")
	}
}

func TestRender(t *testing.T) {
	m := New()
	m.SetMaxDisplay(4)
	items := tree()
	items[2].Highlights = []item.Highlight{{Name: "m", HlGroup: "Match", Col: 1, Width: 1}}
	m.Refresh(items)
	m.ToggleSelectIndex(1)

	lines, hls := m.Render(RenderOptions{DisplayTree: true, SelectedHighlight: "Statement"})
	want := []string{"- root", " - a", "    a1", "    a2"}
	if !slices.Equal(lines, want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	if len(hls) != 2 {
		t.Fatalf("highlights = %+v", hls)
	}
	if h := hls[0]; h.HlGroup != "Statement" || h.Line != 2 || h.Col != 1 || h.Width != len(" - a") {
		t.Fatalf("selected highlight = %+v", h)
	}
	if h := hls[1]; h.Name != "m" || h.Line != 3 || h.Col != 5 || h.Width != 1 {
		t.Fatalf("item highlight = %+v", h)
	}
	if m.CursorLine(false) != 1 {
		t.Fatalf("CursorLine = %d", m.CursorLine(false))
	}
}

func TestRenderReversed(t *testing.T) {
	m := New()
	m.SetMaxDisplay(4)
	m.Refresh(words("a", "b", "c"))
	m.Move(1)
	m.ToggleSelect()

	lines, hls := m.Render(RenderOptions{Reversed: true, SelectedHighlight: "Statement"})
	if !slices.Equal(lines, []string{"", "c", "b", "a"}) {
		t.Fatalf("lines = %q", lines)
	}
	if len(hls) != 1 || hls[0].Line != 3 {
		t.Fatalf("selected highlight should sit on the line of b: %+v", hls)
	}
	if got := m.CursorLine(true); got != 3 {
		t.Fatalf("CursorLine = %d, want 3", got)
	}
}

func TestRenderWindow(t *testing.T) {
	m := New()
	m.SetMaxDisplay(3)
	ws := make([]string, 10)
	for i := range ws {
		ws[i] = fmt.Sprint(i)
	}
	m.Refresh(words(ws...))
	m.Move(-1)
	lines, _ := m.Render(RenderOptions{})
	if !slices.Equal(lines, []string{"7", "8", "9"}) {
		t.Fatalf("lines = %q", lines)
	}
	if m.CursorLine(false) != 3 {
		t.Fatalf("CursorLine = %d", m.CursorLine(false))
	}
}
