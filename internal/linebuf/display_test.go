package linebuf

import (
	"context"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func newDisplay(t *testing.T, width int, prompt string) *Display {
	t.Helper()
	d := NewDisplay()
	d.SetMaxWidth(width)
	if err := d.SetPrompt(context.Background(), cellWidth{}, prompt); err != nil {
		t.Fatalf("SetPrompt error: %v", err)
	}
	return d
}

func TestDisplayEmpty(t *testing.T) {
	d := newDisplay(t, 10, ">> ")
	if err := d.Update(context.Background(), cellWidth{}, &LineBuffer{}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	v := d.View()
	if v.Text != ">> " || v.ByteColumn != 3 || v.CharColumn != 3 {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestDisplayScrollsRightThenLeft(t *testing.T) {
	ctx := context.Background()
	d := newDisplay(t, 8, "> ")
	b := &LineBuffer{}
	for _, r := range "abcdefghij" {
		b.Insert(string(r), 1)
		if err := d.Update(ctx, cellWidth{}, b); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	}
	v := d.View()
	// budget is 6 cells; the text before the cursor must stay narrower
	// than that so the cursor cell fits
	if v.Text != "> fghij" || v.CharColumn != 7 || v.ByteColumn != 7 {
		t.Fatalf("unexpected view after typing: %+v", v)
	}
	if d.First() != 5 {
		t.Fatalf("First = %d, want 5", d.First())
	}

	// moving left inside the window keeps it
	b.CharColumn = 6
	if err := d.Update(ctx, cellWidth{}, b); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if d.First() != 5 {
		t.Fatalf("First = %d after small move, want 5", d.First())
	}

	// moving past the left edge re-anchors the window at the cursor
	b.CharColumn = 2
	if err := d.Update(ctx, cellWidth{}, b); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	v = d.View()
	if d.First() != 0 || v.Text != "> abcdef" || v.CharColumn != 4 {
		t.Fatalf("unexpected view after jump left: first=%d %+v", d.First(), v)
	}
}

func TestDisplayWidthBound(t *testing.T) {
	ctx := context.Background()
	texts := []string{"", "a", "hello world", "日本語のテキスト", "mixed 日本 text ✓ here"}
	for _, width := range []int{4, 7, 12} {
		for _, text := range texts {
			n := len([]rune(text))
			for _, order := range [][]int{ascending(n), descending(n)} {
				d := newDisplay(t, width, ">")
				b := &LineBuffer{Text: text}
				for _, col := range order {
					b.CharColumn = col
					if err := d.Update(ctx, cellWidth{}, b); err != nil {
						t.Fatalf("Update error: %v", err)
					}
					v := d.View()
					if w := runewidth.StringWidth(v.Text); w > width {
						t.Fatalf("width %d > %d for %q col %d: %q", w, width, text, col, v.Text)
					}
					pre := string([]rune(v.Text)[:v.CharColumn])
					if len(pre) != v.ByteColumn {
						t.Fatalf("byte column %d disagrees with char column %d in %q", v.ByteColumn, v.CharColumn, v.Text)
					}
					if !strings.HasSuffix(">"+string([]rune(text)[:col]), pre[1:]) {
						t.Fatalf("visible text before cursor %q is not a suffix of %q", pre, string([]rune(text)[:col]))
					}
				}
			}
		}
	}
}

func ascending(n int) []int {
	out := make([]int, n+1)
	for i := range out {
		out[i] = i
	}
	return out
}

func descending(n int) []int {
	out := ascending(n)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
