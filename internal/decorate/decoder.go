// Package decorate turns terminal output with SGR escape sequences into
// plain lines plus byte-addressed highlight spans.
package decorate

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Decoration is a highlighted byte span. Line and Col are 1-based and
// relative to the decoder's own lines.
type Decoration struct {
	Line      int
	Col       int
	Length    int
	Highlight string
}

// Decoder incrementally decodes terminal output. Chunks may split escape
// sequences and multi-byte characters anywhere.
type Decoder struct {
	palette Palette
	parser  *ansi.Parser
	pending string

	lines []string
	decos []Decoration
	table *orderedmap.OrderedMap[string, Style]

	cur       []byte
	style     Style
	spanStart int
	afterCR   bool
}

func NewDecoder(p Palette) *Decoder {
	return &Decoder{
		palette: p,
		parser:  ansi.NewParser(),
		table:   orderedmap.New[string, Style](),
	}
}

// Reset drops all decoded output but keeps the palette.
func (d *Decoder) Reset() {
	*d = *NewDecoder(d.palette)
}

// Write implements io.Writer.
func (d *Decoder) Write(p []byte) (int, error) {
	d.Feed(string(p))
	return len(p), nil
}

// Feed decodes a chunk of output.
func (d *Decoder) Feed(chunk string) {
	data := d.pending + chunk
	d.pending = ""
	var state byte
	for len(data) > 0 {
		if c := data[0]; c >= 0xC0 && !utf8.FullRuneInString(data) {
			d.pending = data
			return
		}
		seq, width, n, next := ansi.DecodeSequence(data, state, d.parser)
		if n == len(data) && next != ansi.NormalState {
			d.pending = data
			return
		}
		state = next
		data = data[n:]

		switch {
		case width > 0 || (len(seq) > 0 && seq[0] >= 0xC0):
			d.text(seq)
		case len(seq) == 1 && seq[0] < 0x80:
			d.control(seq[0])
		case ansi.HasCsiPrefix(seq):
			cmd := ansi.Cmd(d.parser.Command())
			if cmd.Final() == 'm' && cmd.Prefix() == 0 && cmd.Intermediate() == 0 {
				d.setStyle(applySGR(d.style, d.parser.Params(), d.palette))
			}
		}
		if len(seq) != 1 || seq[0] != '\r' {
			d.afterCR = false
		}
	}
}

// Flush ends decoding, keeping any incomplete trailing character as text.
func (d *Decoder) Flush() {
	if d.pending != "" && !strings.HasPrefix(d.pending, "\x1b") && d.pending[0] >= 0xC0 {
		d.text(d.pending)
	}
	d.pending = ""
}

func (d *Decoder) text(s string) {
	d.cur = append(d.cur, s...)
}

func (d *Decoder) control(c byte) {
	switch c {
	case '\n':
		if d.afterCR {
			return
		}
		d.newline()
	case '\r':
		d.newline()
		d.afterCR = true
	case '\t':
		d.cur = append(d.cur, '\t')
	case '\b':
		if len(d.cur) > d.spanStart {
			_, size := utf8.DecodeLastRune(d.cur)
			d.cur = d.cur[:len(d.cur)-size]
		}
	}
}

func (d *Decoder) newline() {
	d.closeSpan()
	d.lines = append(d.lines, string(d.cur))
	d.cur = d.cur[:0]
	d.spanStart = 0
}

func (d *Decoder) setStyle(s Style) {
	if s == d.style {
		return
	}
	d.closeSpan()
	d.style = s
	d.spanStart = len(d.cur)
}

func (d *Decoder) closeSpan() {
	if deco, ok := d.openSpan(); ok {
		d.decos = append(d.decos, deco)
		d.register(deco.Highlight, d.style)
	}
	d.spanStart = len(d.cur)
}

// openSpan is the decoration of the current style over the unfinished
// span, if any.
func (d *Decoder) openSpan() (Decoration, bool) {
	if d.style.IsZero() || len(d.cur) <= d.spanStart {
		return Decoration{}, false
	}
	return Decoration{
		Line:      len(d.lines) + 1,
		Col:       d.spanStart + 1,
		Length:    len(d.cur) - d.spanStart,
		Highlight: d.style.Name(),
	}, true
}

func (d *Decoder) register(name string, s Style) {
	if _, ok := d.table.Get(name); ok {
		return
	}
	d.table.Set(name, s)
}

// Lines returns the decoded lines, including an unterminated last line.
func (d *Decoder) Lines() []string {
	out := append([]string(nil), d.lines...)
	if len(d.cur) > 0 {
		out = append(out, string(d.cur))
	}
	return out
}

// Decorations returns every highlighted span, in output order.
func (d *Decoder) Decorations() []Decoration {
	out := append([]Decoration(nil), d.decos...)
	if deco, ok := d.openSpan(); ok {
		out = append(out, deco)
	}
	return out
}

// NamedStyle is a highlight name with its style.
type NamedStyle struct {
	Name  string
	Style Style
}

// Styles returns the distinct styles used by Decorations, in first-use order.
func (d *Decoder) Styles() []NamedStyle {
	out := make([]NamedStyle, 0, d.table.Len()+1)
	for p := d.table.Oldest(); p != nil; p = p.Next() {
		out = append(out, NamedStyle{Name: p.Key, Style: p.Value})
	}
	if deco, ok := d.openSpan(); ok {
		if _, seen := d.table.Get(deco.Highlight); !seen {
			out = append(out, NamedStyle{Name: deco.Highlight, Style: d.style})
		}
	}
	return out
}
