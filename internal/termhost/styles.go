package termhost

import (
	"github.com/charmbracelet/lipgloss"

	"ffpopup/internal/host"
)

// Vitesse dark palette.
const (
	colorPrimary   = "#4d9375"
	colorBlue      = "#6394bf"
	colorYellow    = "#e6cc77"
	colorMagenta   = "#d9739f"
	colorCyan      = "#5eaab5"
	colorRed       = "#cb7676"
	colorText      = "#dbd7ca"
	colorSecondary = "#bfbaaa"
	colorMuted     = "#758575"
	colorBg        = "#181818"
	colorBgSoft    = "#292929"
	colorBorder    = "#4b4b4b"
	colorOnAccent  = "#222222"
)

// ansiPalette answers PaletteColor for the 16 basic terminal colors.
var ansiPalette = [16]string{
	colorBg, colorRed, colorPrimary, colorYellow, colorBlue, colorMagenta, colorCyan, colorText,
	colorMuted, colorRed, colorPrimary, colorYellow, colorBlue, colorMagenta, colorCyan, "#eeeeee",
}

// BorderHighlight styles popup borders.
const BorderHighlight = "PopupBorder"

// builtinHighlights are defined before any client call. Clients may
// redefine them.
func builtinHighlights() map[string]host.Style {
	return map[string]host.Style{
		"Normal":          {Fg: colorText, Bg: colorBg},
		"Cursor":          {Reverse: true},
		"Cursorline":      {Bg: colorBgSoft, Bold: true},
		"CursorLine":      {Bg: colorBgSoft},
		"Statement":       {Fg: colorPrimary, Bold: true},
		"Search":          {Fg: colorOnAccent, Bg: colorYellow},
		"Visual":          {Bg: "#33373a"},
		"Error":           {Fg: colorRed, Bold: true},
		"ErrorMsg":        {Fg: colorRed},
		"Comment":         {Fg: colorMuted, Italic: true},
		"Directory":       {Fg: colorBlue, Bold: true},
		"Identifier":      {Fg: colorCyan},
		"Special":         {Fg: colorYellow, Bold: true},
		"Title":           {Fg: colorPrimary, Bold: true},
		"LineNr":          {Fg: colorMuted},
		"PmenuSel":        {Fg: colorOnAccent, Bg: colorPrimary},
		BorderHighlight:   {Fg: colorBorder, Bg: colorBg},
		"StatusLine":      {Fg: colorSecondary, Bg: "#222222"},
		"StatusLineError": {Fg: colorRed, Bg: "#222222"},
	}
}

// over layers o on top of s: set colors win, attributes accumulate.
func over(s, o host.Style) host.Style {
	if o.Fg != "" {
		s.Fg = o.Fg
	}
	if o.Bg != "" {
		s.Bg = o.Bg
	}
	s.Bold = s.Bold || o.Bold
	s.Italic = s.Italic || o.Italic
	s.Underline = s.Underline || o.Underline
	s.Strikethrough = s.Strikethrough || o.Strikethrough
	s.Reverse = s.Reverse || o.Reverse
	return s
}

// styleCache memoizes the lipgloss rendition of host styles.
type styleCache map[host.Style]lipgloss.Style

func (c styleCache) get(s host.Style) lipgloss.Style {
	if ls, ok := c[s]; ok {
		return ls
	}
	ls := lipgloss.NewStyle()
	if s.Fg != "" {
		ls = ls.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		ls = ls.Background(lipgloss.Color(s.Bg))
	}
	if s.Bold {
		ls = ls.Bold(true)
	}
	if s.Italic {
		ls = ls.Italic(true)
	}
	if s.Underline {
		ls = ls.Underline(true)
	}
	if s.Strikethrough {
		ls = ls.Strikethrough(true)
	}
	if s.Reverse {
		ls = ls.Reverse(true)
	}
	c[s] = ls
	return ls
}

// chipStyle renders status bar nuggets.
func chipStyle(bg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorOnAccent)).Background(lipgloss.Color(bg)).Padding(0, 1)
}
