package pattern

import (
	"errors"
	"testing"
)

func TestFindIndex(t *testing.T) {
	cases := []struct {
		pat        string
		text       string
		start, end int
	}{
		{`.\%6c`, "hello", 4, 5},
		{`.\%1c`, "hello", -1, -1},
		{`.\%7c`, "aé漢b", 3, 6},
		{`.\%6c`, "aé漢b", -1, -1}, // column inside a character
		{`\w\+\s*\%9c`, "foo bar  baz", 4, 8},
		{`\w\+\s*\%13c`, "foo bar  baz", 9, 12},
		{`a\+`, "xaaay", 1, 4},
		{`colou\=r`, "my color", 3, 8},
		{`\<is\>`, "this is it", 5, 7},
		{`\(ab\)\{2}`, "xababab", 1, 5},
		{`a\{-1,}`, "aaa", 0, 1},
		{`a|b`, "b a|b", 2, 5},
		{`1+1`, "x 1+1", 2, 5},
		{`\cHELLO`, "say hello", 4, 9},
		{`[0-9]\+`, "abc 123", 4, 7},
		{`\%(foo\|bar\)baz`, "xbarbaz", 1, 7},
		{`^\s*$`, "   ", 0, 3},
		{`本`, "日本語", 3, 6},
	}
	for _, c := range cases {
		p, err := Compile(c.pat)
		if err != nil {
			t.Fatalf("Compile(%q) error: %v", c.pat, err)
		}
		s, e, err := p.FindIndex(c.text)
		if err != nil {
			t.Fatalf("FindIndex(%q) error: %v", c.pat, err)
		}
		if s != c.start || e != c.end {
			t.Errorf("%q on %q = (%d,%d), want (%d,%d)", c.pat, c.text, s, e, c.start, c.end)
		}
	}
}

func TestColumnAnchorInMiddle(t *testing.T) {
	p, err := Compile(`o\%3cb`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if s, e, _ := p.FindIndex("fobar"); s != 1 || e != 3 {
		t.Fatalf("got (%d,%d), want (1,3)", s, e)
	}
	if s, _, _ := p.FindIndex("foo"); s != -1 {
		t.Fatalf("expected no match, got start %d", s)
	}
}

func TestUnsupported(t *testing.T) {
	for _, pat := range []string{`\v(a)`, `a\%`, `\zs`, `a\{2`} {
		if _, err := Compile(pat); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Compile(%q) error = %v, want ErrUnsupported", pat, err)
		}
	}
}

func TestCacheSearch(t *testing.T) {
	c := NewCache()
	lines := []string{"package main", "", "func main() {", "}"}
	n, err := c.Search(lines, `^func\s`)
	if err != nil || n != 3 {
		t.Fatalf("Search = %d, %v; want 3", n, err)
	}
	n, err = c.Search(lines, `nothing`)
	if err != nil || n != 0 {
		t.Fatalf("Search = %d, %v; want 0", n, err)
	}
	s, e, err := c.MatchStrPos("hello", `l\+`)
	if err != nil || s != 2 || e != 4 {
		t.Fatalf("MatchStrPos = (%d,%d,%v)", s, e, err)
	}
	p1, _ := c.Get(`l\+`)
	p2, _ := c.Get(`l\+`)
	if p1 != p2 {
		t.Fatalf("cache returned a different pattern")
	}
}
