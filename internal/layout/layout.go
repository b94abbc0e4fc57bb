package layout

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidBounds is returned when a host-provided layout has the wrong shape.
var ErrInvalidBounds = errors.New("invalid layout bounds")

// Bounds is an outer rectangle including borders. Line and Col are 0-based.
type Bounds struct {
	Line   int `yaml:"line" json:"line"`
	Col    int `yaml:"col" json:"col"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Params places the finder (filter + lister) and the preview.
type Params struct {
	Finder  Bounds `yaml:"finder" json:"finder"`
	Preview Bounds `yaml:"preview" json:"preview"`
}

// Provider computes Params at open time.
type Provider func(ctx context.Context) (Params, error)

// Border selects the sides to draw (top, right, bottom, left) and the
// characters to draw them with.
type Border struct {
	Mask  []int    `yaml:"mask" json:"mask"`
	Chars []string `yaml:"chars" json:"chars"`
}

// PopupCreateArgs is the geometry handed to the host. Line and Col are
// 1-based screen positions of the content area.
type PopupCreateArgs struct {
	Line        int      `json:"line"`
	Col         int      `json:"col"`
	MinWidth    int      `json:"minwidth"`
	MaxWidth    int      `json:"maxwidth"`
	MinHeight   int      `json:"minheight"`
	MaxHeight   int      `json:"maxheight"`
	Highlight   string   `json:"highlight"`
	Border      []int    `json:"border"`
	BorderChars []string `json:"borderchars"`
	Wrap        bool     `json:"wrap"`
	Scrollbar   bool     `json:"scrollbar"`
}

// Layout is the geometry of the three popups of a session.
type Layout struct {
	Lister  PopupCreateArgs
	Filter  PopupCreateArgs
	Preview PopupCreateArgs
}

// Options are the inputs of Calc beyond the bounds.
type Options struct {
	ListerBorder   Border
	FilterBorder   Border
	PreviewBorder  Border
	FilterOnTop    bool
	PopupHighlight string
}

func normalizeMask(mask []int) []int {
	out := []int{0, 0, 0, 0}
	for i := 0; i < len(mask) && i < 4; i++ {
		if mask[i] != 0 {
			out[i] = 1
		}
	}
	return out
}

// Calc derives popup geometry from bounds.
func Calc(b Params, o Options) Layout {
	pb := normalizeMask(o.PreviewBorder.Mask)
	preview := PopupCreateArgs{
		Line:        b.Preview.Line + 1,
		Col:         b.Preview.Col + 1,
		MinWidth:    b.Preview.Width - 2,
		MaxWidth:    b.Preview.Width - 2,
		MinHeight:   b.Preview.Height - 2,
		MaxHeight:   b.Preview.Height - 2,
		Highlight:   o.PopupHighlight,
		Border:      pb,
		BorderChars: o.PreviewBorder.Chars,
	}

	fb := normalizeMask(o.FilterBorder.Mask)
	filterLine := b.Finder.Line + fb[0]
	if !o.FilterOnTop {
		filterLine = b.Finder.Line + b.Finder.Height - (fb[0] + fb[2])
	}
	filter := PopupCreateArgs{
		Line:        filterLine,
		Col:         b.Finder.Col + fb[3],
		MinWidth:    b.Finder.Width - (fb[1] + fb[3]),
		MaxWidth:    b.Finder.Width - (fb[1] + fb[3]),
		MinHeight:   1,
		MaxHeight:   1,
		Highlight:   o.PopupHighlight,
		Border:      fb,
		BorderChars: o.FilterBorder.Chars,
	}

	filterHeight := 1 + fb[0] + fb[2]
	lb := normalizeMask(o.ListerBorder.Mask)
	listerLine := b.Finder.Line + lb[0]
	if o.FilterOnTop {
		listerLine += filterHeight
	}
	listerHeight := b.Finder.Height - filterHeight - (lb[0] + lb[2])
	lister := PopupCreateArgs{
		Line:        listerLine,
		Col:         b.Finder.Col + lb[3],
		MinWidth:    b.Finder.Width - (lb[1] + lb[3]),
		MaxWidth:    b.Finder.Width - (lb[1] + lb[3]),
		MinHeight:   listerHeight,
		MaxHeight:   listerHeight,
		Highlight:   o.PopupHighlight,
		Border:      lb,
		BorderChars: o.ListerBorder.Chars,
	}
	return Layout{Lister: lister, Filter: filter, Preview: preview}
}

// Default centers a finder/preview pair taking four fifths of the screen.
func Default(cols, lines int) Params {
	width := max(cols*4/5, min(50, cols))
	height := max(lines*4/5, min(20, lines))
	finder := Bounds{
		Line:   (lines - height) / 2,
		Col:    (cols - width) / 2,
		Width:  width / 2,
		Height: height,
	}
	preview := Bounds{
		Line:   finder.Line,
		Col:    finder.Col + finder.Width,
		Width:  width - finder.Width,
		Height: height,
	}
	return Params{Finder: finder, Preview: preview}
}

// Parse validates a dynamically typed value returned by a host callback.
func Parse(v any) (Params, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Params{}, fmt.Errorf("%w: expected object, got %T", ErrInvalidBounds, v)
	}
	finder, err := parseBounds(m, "finder")
	if err != nil {
		return Params{}, err
	}
	preview, err := parseBounds(m, "preview")
	if err != nil {
		return Params{}, err
	}
	return Params{Finder: finder, Preview: preview}, nil
}

func parseBounds(m map[string]any, key string) (Bounds, error) {
	raw, ok := m[key].(map[string]any)
	if !ok {
		return Bounds{}, fmt.Errorf("%w: %q must be an object", ErrInvalidBounds, key)
	}
	var b Bounds
	fields := []struct {
		name string
		dst  *int
	}{
		{"line", &b.Line}, {"col", &b.Col}, {"width", &b.Width}, {"height", &b.Height},
	}
	for _, f := range fields {
		n, ok := toInt(raw[f.name])
		if !ok {
			return Bounds{}, fmt.Errorf("%w: %s.%s must be a number", ErrInvalidBounds, key, f.name)
		}
		*f.dst = n
	}
	return b, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
