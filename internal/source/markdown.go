package source

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	xansi "github.com/charmbracelet/x/ansi"
)

// vitesseGlamour is the markdown style of previews.
func vitesseGlamour() ansi.StyleConfig {
	sp := func(s string) *string { return &s }
	bp := func(b bool) *bool { return &b }

	const (
		text      = "#dbd7ca"
		secondary = "#bfbaaa"
		muted     = "#758575"
		primary   = "#4d9375"
		blue      = "#6394bf"
		yellow    = "#e6cc77"
		magenta   = "#d9739f"
		red       = "#cb7676"
		bgSoft    = "#292929"
	)
	heading := ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(blue), Bold: bp(true)}}

	return ansi.StyleConfig{
		Document:   ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
		Paragraph:  ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
		BlockQuote: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(secondary), Italic: bp(true)}},
		Heading:    heading,
		H1:         heading,
		H2:         heading,
		H3:         heading,
		H4:         heading,
		H5:         heading,
		H6:         heading,

		Text:           ansi.StylePrimitive{Color: sp(text)},
		Emph:           ansi.StylePrimitive{Italic: bp(true)},
		Strong:         ansi.StylePrimitive{Bold: bp(true)},
		Strikethrough:  ansi.StylePrimitive{CrossedOut: bp(true)},
		HorizontalRule: ansi.StylePrimitive{Color: sp(secondary)},
		Link:           ansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},
		LinkText:       ansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},

		Code: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(yellow), BackgroundColor: sp(bgSoft)}},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
			Chroma: &ansi.Chroma{
				Text:            ansi.StylePrimitive{Color: sp(text)},
				Comment:         ansi.StylePrimitive{Color: sp(muted), Italic: bp(true)},
				Keyword:         ansi.StylePrimitive{Color: sp(primary), Bold: bp(true)},
				NameFunction:    ansi.StylePrimitive{Color: sp(blue)},
				NameBuiltin:     ansi.StylePrimitive{Color: sp(magenta)},
				LiteralString:   ansi.StylePrimitive{Color: sp(yellow)},
				LiteralNumber:   ansi.StylePrimitive{Color: sp(magenta)},
				Operator:        ansi.StylePrimitive{Color: sp(secondary)},
				Punctuation:     ansi.StylePrimitive{Color: sp(secondary)},
				GenericDeleted:  ansi.StylePrimitive{Color: sp(red)},
				GenericInserted: ansi.StylePrimitive{Color: sp(primary)},
			},
		},
		Table: ansi.StyleTable{
			StyleBlock:      ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
			CenterSeparator: sp("│"),
			ColumnSeparator: sp("│"),
			RowSeparator:    sp("─"),
		},
	}
}

// renderMarkdown renders src for a popup width columns wide. The result
// carries SGR sequences.
func renderMarkdown(src string, width int) ([]string, error) {
	const gutter = 2
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(vitesseGlamour()),
		glamour.WithWordWrap(max(width-gutter, 10)),
	)
	if err != nil {
		return nil, err
	}
	out, err := r.Render(src)
	if err != nil {
		return nil, err
	}
	return trimBlankEdges(strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")), nil
}

func trimBlankEdges(lines []string) []string {
	blank := func(s string) bool { return strings.TrimSpace(xansi.Strip(s)) == "" }
	i, j := 0, len(lines)
	for i < j && blank(lines[i]) {
		i++
	}
	for j > i && blank(lines[j-1]) {
		j--
	}
	return lines[i:j]
}
