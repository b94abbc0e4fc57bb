package linebuf

import (
	"context"
	"testing"

	"github.com/mattn/go-runewidth"

	"ffpopup/internal/pattern"
)

type cellWidth struct{}

func (cellWidth) DisplayWidth(_ context.Context, s string) (int, error) {
	return runewidth.StringWidth(s), nil
}

type vimMatcher struct{ c *pattern.Cache }

func (m vimMatcher) MatchStrPos(_ context.Context, text, pat string) (int, int, error) {
	return m.c.MatchStrPos(text, pat)
}

func newMatcher() vimMatcher { return vimMatcher{c: pattern.NewCache()} }

func TestDeleteChar(t *testing.T) {
	b := &LineBuffer{Text: "hello", CharColumn: 5}
	if err := b.DeleteByPattern(context.Background(), newMatcher(), PatternChar, 1); err != nil {
		t.Fatalf("DeleteByPattern error: %v", err)
	}
	if b.Text != "hell" || b.CharColumn != 4 {
		t.Fatalf("got %q/%d, want \"hell\"/4", b.Text, b.CharColumn)
	}
}

func TestDeleteCharMultibyte(t *testing.T) {
	b := &LineBuffer{Text: "aé漢b", CharColumn: 3}
	if b.ByteColumn() != 6 {
		t.Fatalf("ByteColumn = %d, want 6", b.ByteColumn())
	}
	if err := b.DeleteByPattern(context.Background(), newMatcher(), PatternChar, 2); err != nil {
		t.Fatalf("DeleteByPattern error: %v", err)
	}
	if b.Text != "ab" || b.CharColumn != 1 {
		t.Fatalf("got %q/%d, want \"ab\"/1", b.Text, b.CharColumn)
	}
}

func TestDeleteWordAndNoMatch(t *testing.T) {
	ctx := context.Background()
	b := &LineBuffer{Text: "foo bar  ", CharColumn: 9}
	if err := b.DeleteByPattern(ctx, newMatcher(), PatternWord, 1); err != nil {
		t.Fatalf("DeleteByPattern error: %v", err)
	}
	if b.Text != "foo " || b.CharColumn != 4 {
		t.Fatalf("got %q/%d", b.Text, b.CharColumn)
	}
	// count exceeding available words: extra repetitions are skipped
	if err := b.DeleteByPattern(ctx, newMatcher(), PatternWord, 3); err != nil {
		t.Fatalf("DeleteByPattern error: %v", err)
	}
	if b.Text != "" || b.CharColumn != 0 {
		t.Fatalf("got %q/%d", b.Text, b.CharColumn)
	}
}

func TestInsertThenDeleteRestores(t *testing.T) {
	ctx := context.Background()
	for _, s := range []string{"x", "ab", "日本"} {
		b := &LineBuffer{Text: "hello", CharColumn: 2}
		orig := *b
		b.Insert(s, 3)
		if err := b.DeleteByPattern(ctx, newMatcher(), PatternChar, 3*len([]rune(s))); err != nil {
			t.Fatalf("DeleteByPattern error: %v", err)
		}
		if *b != orig {
			t.Fatalf("insert(%q) then delete gave %+v, want %+v", s, *b, orig)
		}
	}
}

func TestCursorMovesAndDeleteToHead(t *testing.T) {
	b := &LineBuffer{Text: "héllo"}
	b.MoveBackward()
	if b.CharColumn != 0 {
		t.Fatalf("MoveBackward at head moved to %d", b.CharColumn)
	}
	b.MoveToTail()
	b.MoveForward()
	if b.CharColumn != 5 {
		t.Fatalf("MoveForward at tail moved to %d", b.CharColumn)
	}
	b.MoveBackward()
	b.MoveBackward()
	b.DeleteToHead()
	if b.Text != "lo" || b.CharColumn != 0 {
		t.Fatalf("DeleteToHead gave %q/%d", b.Text, b.CharColumn)
	}
	b.MoveToTail()
	b.MoveToHead()
	if b.CharColumn != 0 {
		t.Fatalf("MoveToHead gave %d", b.CharColumn)
	}
}

func TestSplitAnchor(t *testing.T) {
	got := splitAnchor(`a\%#b\\%#c\\\%#d`)
	want := []string{`a`, `b\\%#c\\`, `d`}
	if len(got) != len(want) {
		t.Fatalf("splitAnchor = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitAnchor = %q, want %q", got, want)
		}
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	if h.Prev() != nil || h.Next() != nil {
		t.Fatalf("empty history should return nil")
	}
	a := &LineBuffer{Text: "a", CharColumn: 1}
	b := &LineBuffer{Text: "b", CharColumn: 1}
	h.Push(a)
	h.Push(b)
	got := h.Prev()
	if got == nil || *got != *a {
		t.Fatalf("Prev = %+v, want %+v", got, a)
	}
	got.Text = "mutated"
	if again := h.Next(); again == nil || *again != *b {
		t.Fatalf("Next = %+v, want %+v", again, b)
	}
	if h.Prev().Text != "a" {
		t.Fatalf("snapshot was mutated through a returned clone")
	}

	h = NewHistory()
	h.Push(a)
	h.Prev()
	h.Push(&LineBuffer{Text: "c"})
	if n := h.Next(); n != nil {
		t.Fatalf("Next after branch = %+v, want nil", n)
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}
}

func TestHistoryPushDiscardsRedo(t *testing.T) {
	h := NewHistory()
	h.Push(&LineBuffer{Text: ""})
	h.Push(&LineBuffer{Text: "a"})
	h.Push(&LineBuffer{Text: "ab"})
	h.Prev()
	h.Prev()
	h.Push(&LineBuffer{Text: "x"})
	if h.Len() != 2 || h.Next() != nil {
		t.Fatalf("redo entries were not discarded, len=%d", h.Len())
	}
	if p := h.Prev(); p == nil || p.Text != "" {
		t.Fatalf("Prev = %+v", p)
	}
}
