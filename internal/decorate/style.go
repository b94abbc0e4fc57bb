package decorate

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// HighlightPrefix starts every generated highlight name.
const HighlightPrefix = "DduUiFfVimPopupAnsi"

// Palette overrides the 16 basic terminal colors with "#rrggbb" values.
// Empty entries use the xterm defaults.
type Palette [16]string

// Style is the SGR state of a span. Colors are "#rrggbb" or empty for the
// terminal default.
type Style struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Reverse       bool
	Fg            string
	Bg            string
}

func (s Style) IsZero() bool { return s == Style{} }

// Name derives a highlight group name from the style. Equal styles always
// get equal names.
func (s Style) Name() string {
	var b strings.Builder
	b.WriteString(HighlightPrefix)
	b.WriteByte('_')
	flags := []struct {
		on bool
		c  byte
	}{
		{s.Bold, 'b'}, {s.Italic, 'i'}, {s.Underline, 'u'}, {s.Strikethrough, 's'}, {s.Reverse, 'r'},
	}
	n := 0
	for _, f := range flags {
		if f.on {
			b.WriteByte(f.c)
			n++
		}
	}
	if n == 0 {
		b.WriteByte('n')
	}
	b.WriteString("_")
	b.WriteString(colorKey(s.Fg))
	b.WriteString("_")
	b.WriteString(colorKey(s.Bg))
	return b.String()
}

func colorKey(c string) string {
	if c == "" {
		return "none"
	}
	return strings.TrimPrefix(c, "#")
}

// Indexed resolves a 256-color index.
func (p Palette) Indexed(i int) string {
	if i < 0 || i > 255 {
		return ""
	}
	if i < 16 && p[i] != "" {
		return p[i]
	}
	c, _ := colorful.MakeColor(ansi.IndexedColor(uint8(i)))
	return c.Hex()
}

func rgb(r, g, b int) string {
	clamp := func(v int) float64 { return float64(min(max(v, 0), 255)) / 255 }
	return colorful.Color{R: clamp(r), G: clamp(g), B: clamp(b)}.Hex()
}

// applySGR returns s updated by one SGR parameter list.
func applySGR(s Style, params ansi.Params, pal Palette) Style {
	if len(params) == 0 {
		return Style{}
	}
	for i := 0; i < len(params); i++ {
		code := params[i].Param(0)
		switch {
		case code == 0:
			s = Style{}
		case code == 1:
			s.Bold = true
		case code == 3:
			s.Italic = true
		case code == 4:
			s.Underline = true
		case code == 7:
			s.Reverse = true
		case code == 9:
			s.Strikethrough = true
		case code == 21 || code == 22:
			s.Bold = false
		case code == 23:
			s.Italic = false
		case code == 24:
			s.Underline = false
		case code == 27:
			s.Reverse = false
		case code == 29:
			s.Strikethrough = false
		case code >= 30 && code <= 37:
			s.Fg = pal.Indexed(code - 30)
		case code == 39:
			s.Fg = ""
		case code >= 40 && code <= 47:
			s.Bg = pal.Indexed(code - 40)
		case code == 49:
			s.Bg = ""
		case code >= 90 && code <= 97:
			s.Fg = pal.Indexed(code - 90 + 8)
		case code >= 100 && code <= 107:
			s.Bg = pal.Indexed(code - 100 + 8)
		case code == 38 || code == 48:
			var c string
			c, i = extendedColor(params, i, pal)
			if code == 38 {
				s.Fg = c
			} else {
				s.Bg = c
			}
		}
	}
	return s
}

// extendedColor reads a 38/48 color starting at params[i] and returns the
// color and the index of the last parameter consumed. Both the
// semicolon form (38;5;n, 38;2;r;g;b) and the colon form (38:5:n,
// 38:2::r:g:b) are accepted.
func extendedColor(params ansi.Params, i int, pal Palette) (string, int) {
	if params[i].HasMore() {
		j := i
		for j < len(params)-1 && params[j].HasMore() {
			j++
		}
		sub := make([]int, 0, j-i)
		for k := i + 1; k <= j; k++ {
			sub = append(sub, params[k].Param(0))
		}
		switch {
		case len(sub) >= 2 && sub[0] == 5:
			return pal.Indexed(sub[1]), j
		case len(sub) >= 4 && sub[0] == 2:
			n := len(sub)
			return rgb(sub[n-3], sub[n-2], sub[n-1]), j
		}
		return "", j
	}
	mode, _, ok := params.Param(i+1, -1)
	if !ok {
		return "", i
	}
	switch mode {
	case 5:
		n, _, ok := params.Param(i+2, 0)
		if !ok {
			return "", i + 1
		}
		return pal.Indexed(n), i + 2
	case 2:
		r, _, _ := params.Param(i+2, 0)
		g, _, _ := params.Param(i+3, 0)
		b, _, ok := params.Param(i+4, 0)
		if !ok {
			return "", min(i+4, len(params)-1)
		}
		return rgb(r, g, b), i + 4
	}
	return "", i + 1
}
