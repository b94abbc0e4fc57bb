package layout

import (
	"errors"
	"testing"
)

func fullBorders() Options {
	all := Border{Mask: []int{1, 1, 1, 1}}
	return Options{ListerBorder: all, FilterBorder: all, PreviewBorder: all, FilterOnTop: true, PopupHighlight: "Normal"}
}

func TestCalc_FilterOnTop(t *testing.T) {
	b := Params{
		Finder:  Bounds{Line: 2, Col: 4, Width: 40, Height: 20},
		Preview: Bounds{Line: 2, Col: 44, Width: 40, Height: 20},
	}
	l := Calc(b, fullBorders())

	if l.Preview.Line != 3 || l.Preview.Col != 45 || l.Preview.MaxWidth != 38 || l.Preview.MaxHeight != 18 {
		t.Fatalf("unexpected preview args: %+v", l.Preview)
	}
	if l.Filter.Line != 3 || l.Filter.Col != 5 || l.Filter.MaxWidth != 38 || l.Filter.MaxHeight != 1 {
		t.Fatalf("unexpected filter args: %+v", l.Filter)
	}
	// filter takes 3 rows (1 + 2 borders); lister starts right below it
	if l.Lister.Line != 6 || l.Lister.MaxHeight != 15 || l.Lister.MinHeight != 15 {
		t.Fatalf("unexpected lister args: %+v", l.Lister)
	}
	if l.Lister.Highlight != "Normal" {
		t.Fatalf("highlight not propagated: %q", l.Lister.Highlight)
	}
}

func TestCalc_FilterAtBottomAndMaskNormalization(t *testing.T) {
	o := fullBorders()
	o.FilterOnTop = false
	o.FilterBorder = Border{Mask: []int{2, 0, 5, 0}}
	b := Params{Finder: Bounds{Line: 0, Col: 0, Width: 30, Height: 10}}
	l := Calc(b, o)

	if got := l.Filter.Border; got[0] != 1 || got[1] != 0 || got[2] != 1 || got[3] != 0 {
		t.Fatalf("mask not normalized: %v", got)
	}
	if l.Filter.Line != 8 {
		t.Fatalf("filter line = %d, want 8", l.Filter.Line)
	}
	if l.Lister.Line != 1 || l.Lister.MaxHeight != 5 {
		t.Fatalf("unexpected lister args: %+v", l.Lister)
	}
}

func TestDefault(t *testing.T) {
	p := Default(100, 50)
	if p.Finder.Width != 40 || p.Preview.Width != 40 || p.Finder.Height != 40 {
		t.Fatalf("unexpected default bounds: %+v", p)
	}
	if p.Finder.Line != 5 || p.Finder.Col != 10 || p.Preview.Col != 50 {
		t.Fatalf("unexpected placement: %+v", p)
	}

	small := Default(30, 10)
	if small.Finder.Width+small.Preview.Width != 30 || small.Finder.Height != 10 {
		t.Fatalf("small screen should use the whole screen: %+v", small)
	}
}

func TestParse(t *testing.T) {
	v := map[string]any{
		"finder":  map[string]any{"line": float64(1), "col": 2, "width": 3, "height": 4},
		"preview": map[string]any{"line": 5, "col": 6, "width": 7, "height": int64(8)},
	}
	p, err := Parse(v)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Finder.Line != 1 || p.Preview.Height != 8 {
		t.Fatalf("unexpected params: %+v", p)
	}

	bad := []any{
		nil,
		"center",
		map[string]any{"finder": map[string]any{}},
		map[string]any{
			"finder":  map[string]any{"line": 1, "col": 2, "width": 3, "height": 4},
			"preview": map[string]any{"line": "x", "col": 2, "width": 3, "height": 4},
		},
	}
	for _, b := range bad {
		if _, err := Parse(b); !errors.Is(err, ErrInvalidBounds) {
			t.Errorf("Parse(%v) error = %v, want ErrInvalidBounds", b, err)
		}
	}
}
