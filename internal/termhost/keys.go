package termhost

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// binding maps keys to an action call.
type binding struct {
	key.Binding
	action string
	params map[string]any
}

func bind(action string, params map[string]any, keys []string, desc string) binding {
	return binding{
		Binding: key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(keys, "/"), desc)),
		action:  action,
		params:  params,
	}
}

var (
	helpKey  = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help"))
	ctrlCKey = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
)

var normalKeys = []binding{
	bind("moveToInsertMode", nil, []string{"i", "a", "/"}, "filter"),
	bind("selectLowerItem", nil, []string{"j", "down", "ctrl+n"}, "down"),
	bind("selectUpperItem", nil, []string{"k", "up", "ctrl+p"}, "up"),
	bind("itemAction", nil, []string{"enter"}, "open"),
	bind("toggleSelectItem", nil, []string{" "}, "select"),
	bind("toggleAllItems", nil, []string{"*"}, "select all"),
	bind("clearSelectAllItems", nil, []string{"x"}, "clear selection"),
	bind("expandItem", map[string]any{"mode": "toggle"}, []string{"l", "right"}, "expand"),
	bind("collapseItem", nil, []string{"h", "left"}, "collapse"),
	bind("previewItem", nil, []string{"p"}, "preview"),
	bind("chooseAction", nil, []string{"tab"}, "actions"),
	bind("itemAction", map[string]any{"name": "narrow"}, []string{"o"}, "narrow"),
	bind("undoInput", nil, []string{"u"}, "undo"),
	bind("redoInput", nil, []string{"ctrl+r"}, "redo"),
	bind("quit", nil, []string{"q", "esc"}, "quit"),
	bind("expandItem", map[string]any{"isGrouped": true}, []string{"L"}, "expand chain"),
	bind("itemAction", map[string]any{"name": "gitroot"}, []string{"g"}, "repo root"),
}

var insertKeys = []binding{
	bind("moveToNormalMode", nil, []string{"esc"}, "normal mode"),
	bind("itemAction", nil, []string{"enter"}, "open"),
	bind("selectLowerItem", nil, []string{"down", "ctrl+n"}, "down"),
	bind("selectUpperItem", nil, []string{"up", "ctrl+p"}, "up"),
	bind("deleteChar", nil, []string{"backspace", "ctrl+h"}, "delete char"),
	bind("deleteWord", nil, []string{"ctrl+w"}, "delete word"),
	bind("deleteToHead", nil, []string{"ctrl+u"}, "delete to head"),
	bind("moveBackward", nil, []string{"left", "ctrl+b"}, "left"),
	bind("moveForward", nil, []string{"right", "ctrl+f"}, "right"),
	bind("moveToHead", nil, []string{"home", "ctrl+a"}, "head"),
	bind("moveToTail", nil, []string{"end", "ctrl+e"}, "tail"),
	bind("previewItem", nil, []string{"ctrl+v"}, "preview"),
	bind("toggleSelectItem", nil, []string{"ctrl+s"}, "select"),
	bind("chooseAction", nil, []string{"tab"}, "actions"),
}

// lookup resolves a key press in mode to an action call.
func lookup(mode string, msg tea.KeyMsg) (string, map[string]any, bool) {
	keys := normalKeys
	if mode == "i" {
		keys = insertKeys
	}
	for _, b := range keys {
		if key.Matches(msg, b.Binding) {
			return b.action, b.params, true
		}
	}
	if mode == "i" && (msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace) && len(msg.Runes) > 0 {
		return "addChar", map[string]any{"char": string(msg.Runes)}, true
	}
	return "", nil, false
}

// modeKeys shows the bindings of one mode in bubbles/help.
type modeKeys struct{ mode string }

func (k modeKeys) ShortHelp() []key.Binding {
	if k.mode == "i" {
		return []key.Binding{insertKeys[0].Binding, insertKeys[1].Binding, insertKeys[2].Binding, insertKeys[3].Binding}
	}
	return []key.Binding{normalKeys[0].Binding, normalKeys[3].Binding, normalKeys[4].Binding, normalKeys[14].Binding, helpKey}
}

func (k modeKeys) FullHelp() [][]key.Binding {
	keys := normalKeys
	if k.mode == "i" {
		keys = insertKeys
	}
	var cols [][]key.Binding
	var col []key.Binding
	for _, b := range keys {
		col = append(col, b.Binding)
		if len(col) == 5 {
			cols = append(cols, col)
			col = nil
		}
	}
	if len(col) > 0 {
		cols = append(cols, col)
	}
	return cols
}

func newHelp() help.Model {
	m := help.New()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorSecondary))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	m.Styles.ShortKey, m.Styles.FullKey = keyStyle, keyStyle
	m.Styles.ShortDesc, m.Styles.FullDesc = descStyle, descStyle
	m.Styles.ShortSeparator, m.Styles.FullSeparator = sepStyle, sepStyle
	return m
}

// handleKey routes a key press to the focused key handler.
func (h *Host) handleKey(ctx context.Context, msg tea.KeyMsg) {
	kh := h.focused()
	mode := "n"
	if kh != nil {
		mode = kh.mode
	}
	if key.Matches(msg, ctrlCKey) {
		if kh == nil || !h.opts.HandleCtrlC {
			h.Quit()
			return
		}
		h.runAction(ctx, kh, "quit", nil)
		return
	}
	if mode != "i" && key.Matches(msg, helpKey) {
		h.showHelp = !h.showHelp
		return
	}
	if kh == nil {
		if msg.String() == "q" || msg.String() == "esc" {
			h.Quit()
		}
		return
	}
	name, params, ok := lookup(mode, msg)
	if !ok {
		return
	}
	h.runAction(ctx, kh, name, params)
}

func (h *Host) runAction(ctx context.Context, kh *keyHandler, name string, params map[string]any) {
	if h.handler == nil {
		return
	}
	p := make(map[string]any, len(params))
	for k, v := range params {
		p[k] = v
	}
	if err := h.handler.Action(ctx, kh.uiName, name, p); err != nil {
		_ = h.EchoError(ctx, err.Error())
	}
}

// statusLine renders the mode chip, the last message and the short help.
func (h *Host) statusLine() string {
	mode := "n"
	if kh := h.focused(); kh != nil {
		mode = kh.mode
	}
	chip := chipStyle(colorPrimary).Render("NORMAL")
	if mode == "i" {
		chip = chipStyle(colorBlue).Render("INSERT")
	}
	bar := h.styles.get(h.highlights["StatusLine"])
	msgStyle := bar
	if h.messageErr {
		msgStyle = h.styles.get(h.highlights["StatusLineError"])
	}
	left := chip
	if h.title != "" {
		left += h.styles.get(over(h.highlights["StatusLine"], h.highlights["Title"])).Render(" " + h.title)
	}
	left += msgStyle.Render(" " + h.message)
	h.help.Width = max(h.width-xansi.StringWidth(left)-1, 0)
	right := h.help.ShortHelpView(modeKeys{mode}.ShortHelp())
	pad := h.width - xansi.StringWidth(left) - xansi.StringWidth(right)
	if pad < 0 {
		right, pad = "", max(h.width-xansi.StringWidth(left), 0)
	}
	return xansi.Truncate(left+bar.Render(strings.Repeat(" ", pad))+right, h.width, "")
}

// overlayHelp draws the full help of the focused mode in a box near the
// bottom of the screen.
func (h *Host) overlayHelp(rows []string) {
	mode := "n"
	if kh := h.focused(); kh != nil {
		mode = kh.mode
	}
	h.help.Width = max(h.width-4, 0)
	body := h.help.FullHelpView(modeKeys{mode}.FullHelp())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorPrimary)).
		Padding(0, 1).
		Render(body)
	lines := strings.Split(box, "\n")
	top := max(len(rows)-len(lines), 0)
	for i, l := range lines {
		if top+i < len(rows) {
			rows[top+i] = xansi.Truncate(overlay(rows[top+i], l, 1), h.width, "")
		}
	}
}
