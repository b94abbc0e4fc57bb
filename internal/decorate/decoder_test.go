package decorate

import (
	"slices"
	"strings"
	"testing"
)

func TestDecoder_BoldThenPlain(t *testing.T) {
	d := NewDecoder(Palette{})
	d.Feed("\x1b[1mbold\x1b[0m plain")

	if got := d.Lines(); !slices.Equal(got, []string{"bold plain"}) {
		t.Fatalf("lines = %q", got)
	}
	decos := d.Decorations()
	if len(decos) != 1 {
		t.Fatalf("decorations = %+v", decos)
	}
	if got := decos[0]; got.Line != 1 || got.Col != 1 || got.Length != 4 {
		t.Fatalf("decoration = %+v, want line 1 bytes 0-3", got)
	}
	styles := d.Styles()
	if len(styles) != 1 || !styles[0].Style.Bold || styles[0].Name != decos[0].Highlight {
		t.Fatalf("styles = %+v", styles)
	}
}

func TestDecoder_SplitChunks(t *testing.T) {
	whole := "\x1b[31mred\x1b[0m 日本\r\n\x1b[1;4mx\x1b[m\n"
	ref := NewDecoder(Palette{})
	ref.Feed(whole)

	for cut := 1; cut < len(whole); cut++ {
		d := NewDecoder(Palette{})
		d.Feed(whole[:cut])
		d.Feed(whole[cut:])
		if !slices.Equal(d.Lines(), ref.Lines()) {
			t.Fatalf("cut %d: lines %q, want %q", cut, d.Lines(), ref.Lines())
		}
		if !slices.Equal(d.Decorations(), ref.Decorations()) {
			t.Fatalf("cut %d: decorations %+v, want %+v", cut, d.Decorations(), ref.Decorations())
		}
	}
	if got := ref.Lines(); !slices.Equal(got, []string{"red 日本", "x"}) {
		t.Fatalf("lines = %q", got)
	}
}

func TestDecoder_ByteColumnsAfterWideText(t *testing.T) {
	d := NewDecoder(Palette{})
	d.Feed("日本\x1b[4mgo\x1b[24m")
	decos := d.Decorations()
	if len(decos) != 1 || decos[0].Col != 7 || decos[0].Length != 2 {
		t.Fatalf("decorations = %+v", decos)
	}
}

func TestDecoder_StyleSpansLines(t *testing.T) {
	d := NewDecoder(Palette{})
	d.Feed("\x1b[32mone\ntwo\x1b[0m\nthree")
	decos := d.Decorations()
	if len(decos) != 2 || decos[0].Line != 1 || decos[1].Line != 2 || decos[1].Length != 3 {
		t.Fatalf("decorations = %+v", decos)
	}
	if decos[0].Highlight != decos[1].Highlight || len(d.Styles()) != 1 {
		t.Fatalf("same style should share one highlight: %+v", d.Styles())
	}
}

func TestDecoder_ColorsAndPalette(t *testing.T) {
	pal := Palette{}
	pal[1] = "#aa0000"
	d := NewDecoder(pal)
	d.Feed("\x1b[31ma\x1b[38;5;196mb\x1b[38;2;1;2;3;48:5:21mc\x1b[38:2::10:20:30md\x1b[0m")
	styles := d.Styles()
	want := []Style{
		{Fg: "#aa0000"},
		{Fg: "#ff0000"},
		{Fg: "#010203", Bg: "#0000ff"},
		{Fg: "#0a141e", Bg: "#0000ff"},
	}
	if len(styles) != len(want) {
		t.Fatalf("styles = %+v", styles)
	}
	for i, w := range want {
		if styles[i].Style != w {
			t.Errorf("style %d = %+v, want %+v", i, styles[i].Style, w)
		}
	}
}

func TestDecoder_IgnoresOtherSequences(t *testing.T) {
	d := NewDecoder(Palette{})
	d.Feed("\x1b]0;title\x07a\x1b[2Kb\x1b[?25lc\x1b7d\x00\b")
	if got := d.Lines(); !slices.Equal(got, []string{"abc"}) {
		t.Fatalf("lines = %q", got)
	}
	if len(d.Decorations()) != 0 {
		t.Fatalf("unexpected decorations %+v", d.Decorations())
	}
}

func TestStyleName(t *testing.T) {
	a := Style{Bold: true, Fg: "#ff0000"}
	b := Style{Bold: true, Fg: "#ff0000"}
	if a.Name() != b.Name() {
		t.Fatalf("names differ for equal styles")
	}
	if a.Name() == (Style{Bold: true}).Name() {
		t.Fatalf("names equal for different styles")
	}
	if !strings.HasPrefix(a.Name(), HighlightPrefix) || strings.ContainsAny(a.Name(), "#- ") {
		t.Fatalf("bad highlight name %q", a.Name())
	}
}

func TestFlushKeepsTrailingText(t *testing.T) {
	d := NewDecoder(Palette{})
	d.Feed("ab\xe6\x97")
	if got := d.Lines(); !slices.Equal(got, []string{"ab"}) {
		t.Fatalf("incomplete rune should wait, got %q", got)
	}
	d.Feed("\xa5")
	d.Flush()
	if got := d.Lines(); !slices.Equal(got, []string{"ab日"}) {
		t.Fatalf("lines = %q", got)
	}
}
