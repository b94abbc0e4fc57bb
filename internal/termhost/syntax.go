package termhost

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"ffpopup/internal/host"
	"ffpopup/internal/system"
)

const defaultSyntaxStyle = "github-dark"

// span styles the bytes [start, end) of one line.
type span struct {
	start, end int
	style      host.Style
}

// detectFiletype guesses a lexer name from a buffer name.
func detectFiletype(name string) string {
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	if l := lexers.Match(path.Base(name)); l != nil {
		return l.Config().Name
	}
	return ""
}

func tokenStyle(st *chroma.Style, t chroma.TokenType) host.Style {
	e := st.Get(t)
	var s host.Style
	if e.Colour.IsSet() {
		s.Fg = e.Colour.String()
	}
	s.Bold = e.Bold == chroma.Yes
	s.Italic = e.Italic == chroma.Yes
	s.Underline = e.Underline == chroma.Yes
	return s
}

// highlightLines tokenizes lines as one document and returns the styled
// spans of every line. The style's background is left to the window.
func highlightLines(filetype, styleName string, lines []string) [][]span {
	lexer := lexers.Get(filetype)
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)
	st := styles.Get(styleName)
	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		system.Logger.Debug("tokenise", "filetype", filetype, "err", err)
		return nil
	}
	out := make([][]span, len(lines))
	row, col := 0, 0
	add := func(n int, s host.Style) {
		if n == 0 || row >= len(out) || s == (host.Style{}) {
			return
		}
		out[row] = append(out[row], span{start: col, end: col + n, style: s})
	}
	for tok := it(); tok != chroma.EOF; tok = it() {
		s := tokenStyle(st, tok.Type)
		v := tok.Value
		for {
			i := strings.IndexByte(v, '\n')
			if i < 0 {
				add(len(v), s)
				col += len(v)
				break
			}
			add(i, s)
			row, col = row+1, 0
			v = v[i+1:]
		}
	}
	return out
}

// syntaxSpans computes the buffer's spans once per text change.
func (h *Host) syntaxSpans(b *buffer) [][]span {
	if b.filetype == "" {
		return nil
	}
	if b.syntax == nil {
		b.syntax = highlightLines(b.filetype, h.opts.SyntaxStyle, b.lines)
		if b.syntax == nil {
			b.syntax = make([][]span, len(b.lines))
		}
	}
	return b.syntax
}
