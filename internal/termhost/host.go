// Package termhost is a full-screen terminal implementation of host.Host
// built on bubbletea. Popups are drawn as bordered boxes over a blank
// screen, keys are routed to the newest key handler, and every host call
// and callback runs on the bubbletea update goroutine.
package termhost

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/pattern"
	"ffpopup/internal/system"
)

var (
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidBuffer = errors.New("invalid buffer")
	ErrNoHandler     = errors.New("no handler installed")
)

// Handler receives what the host cannot answer itself: item source
// requests and actions bound to keys.
type Handler interface {
	host.Dispatcher
	Action(ctx context.Context, uiName, name string, params map[string]any) error
}

// Callback is a host callback invoked through Call.
type Callback func(ctx context.Context, args ...any) (any, error)

// Options configure a Host.
type Options struct {
	Scrolloff int
	// HandleCtrlC turns ctrl+c into the quit action of the focused UI
	// instead of exiting the program.
	HandleCtrlC bool
	Callbacks   map[string]Callback
	// SyntaxStyle names the chroma style used for previews.
	SyntaxStyle string
}

type buffer struct {
	name      string
	lines     []string
	propTypes map[string]string
	props     []host.Prop
	filetype  string
	syntax    [][]span
}

type match struct {
	highlight string
	pattern   string
}

type window struct {
	id        host.WinID
	args      layout.PopupCreateArgs
	buf       host.BufNr
	highlight string
	firstLine int
	onClose   host.CloseFunc
	matches   map[int]match
}

type signDef struct {
	lineHighlight string
	text          string
}

type placedSign struct {
	group, name string
	buf         host.BufNr
	line        int
}

type keyHandler struct {
	id     string
	uiName string
	mode   string
}

// Host keeps the screen model. It is not safe for concurrent use; the
// bubbletea program serializes access.
type Host struct {
	opts    Options
	handler Handler

	windows map[host.WinID]*window
	buffers map[host.BufNr]*buffer
	named   map[string]host.BufNr

	highlights map[string]host.Style
	styles     styleCache
	signDefs   map[string]signDef
	signs      map[int]placedSign
	patterns   *pattern.Cache
	keys       []*keyHandler
	procs      map[*process]struct{}

	width, height int
	title         string
	message       string
	messageErr    bool
	help          help.Model
	showHelp      bool

	program  atomic.Pointer[tea.Program]
	quitting bool
	exitErr  error

	nextWin host.WinID
	nextBuf host.BufNr
	nextID  int
}

var _ host.Host = (*Host)(nil)

func New(opts Options) *Host {
	if opts.SyntaxStyle == "" {
		opts.SyntaxStyle = defaultSyntaxStyle
	}
	return &Host{
		opts:       opts,
		windows:    map[host.WinID]*window{},
		buffers:    map[host.BufNr]*buffer{},
		named:      map[string]host.BufNr{},
		highlights: builtinHighlights(),
		styles:     styleCache{},
		signDefs:   map[string]signDef{},
		signs:      map[int]placedSign{},
		patterns:   pattern.NewCache(),
		procs:      map[*process]struct{}{},
		help:       newHelp(),
		width:      80,
		height:     24,
		nextWin:    1000,
		nextBuf:    1,
	}
}

// SetHandler installs the receiver of dispatcher requests and key actions.
func (h *Host) SetHandler(hd Handler) { h.handler = hd }

// SetTitle sets the text shown after the mode on the status line.
func (h *Host) SetTitle(title string) { h.title = title }

// SetCallbacks replaces the callbacks served by Call.
func (h *Host) SetCallbacks(cbs map[string]Callback) { h.opts.Callbacks = cbs }

// Resize sets the terminal size.
func (h *Host) Resize(width, height int) {
	h.width, h.height = max(width, 1), max(height, 2)
}

// Quit asks the program to exit after the current update.
func (h *Host) Quit() { h.quitting = true }

// Fail records err as the program's result and quits.
func (h *Host) Fail(err error) {
	h.exitErr = err
	h.quitting = true
}

func (h *Host) newBuf(name string) host.BufNr {
	b := h.nextBuf
	h.nextBuf++
	h.buffers[b] = &buffer{name: name, lines: []string{""}, propTypes: map[string]string{}}
	if name != "" {
		h.named[name] = b
	}
	return b
}

func (h *Host) window(win host.WinID) (*window, error) {
	w, ok := h.windows[win]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, win)
	}
	return w, nil
}

func (h *Host) buffer(buf host.BufNr) (*buffer, error) {
	b, ok := h.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBuffer, buf)
	}
	return b, nil
}

func (h *Host) OpenPopup(_ context.Context, args layout.PopupCreateArgs, onClose host.CloseFunc) (host.WinID, error) {
	h.nextWin++
	h.windows[h.nextWin] = &window{
		id:        h.nextWin,
		args:      args,
		buf:       h.newBuf(""),
		highlight: args.Highlight,
		firstLine: 1,
		onClose:   onClose,
		matches:   map[int]match{},
	}
	return h.nextWin, nil
}

// ClosePopup removes win and fires its close callback. Closing a closed
// window is not an error.
func (h *Host) ClosePopup(ctx context.Context, win host.WinID) error {
	w, ok := h.windows[win]
	if !ok {
		return nil
	}
	delete(h.windows, win)
	h.dropBuffer(w.buf)
	if w.onClose != nil {
		w.onClose(ctx, win)
	}
	return nil
}

// dropBuffer forgets an unnamed buffer no window shows.
func (h *Host) dropBuffer(buf host.BufNr) {
	b, ok := h.buffers[buf]
	if !ok || b.name != "" {
		return
	}
	for _, w := range h.windows {
		if w.buf == buf {
			return
		}
	}
	delete(h.buffers, buf)
	for id, s := range h.signs {
		if s.buf == buf {
			delete(h.signs, id)
		}
	}
}

func (h *Host) SetText(_ context.Context, win host.WinID, lines []string) error {
	w, err := h.window(win)
	if err != nil {
		return err
	}
	b := h.buffers[w.buf]
	if len(lines) == 0 {
		lines = []string{""}
	}
	b.lines = slices.Clone(lines)
	b.syntax = nil
	return nil
}

func (h *Host) SetBuffer(_ context.Context, win host.WinID, buf host.BufNr, highlight string) error {
	w, err := h.window(win)
	if err != nil {
		return err
	}
	if _, err := h.buffer(buf); err != nil {
		return err
	}
	old := w.buf
	w.buf, w.highlight, w.firstLine = buf, highlight, 1
	h.dropBuffer(old)
	return nil
}

// WinBufNr returns -1 for a closed window.
func (h *Host) WinBufNr(_ context.Context, win host.WinID) (host.BufNr, error) {
	w, ok := h.windows[win]
	if !ok {
		return -1, nil
	}
	return w.buf, nil
}

// GetPos returns the zero position for a closed window.
func (h *Host) GetPos(_ context.Context, win host.WinID) (host.PopupPos, error) {
	w, ok := h.windows[win]
	if !ok {
		return host.PopupPos{}, nil
	}
	width, height := h.contentSize(w)
	return host.PopupPos{Col: w.args.Col, Line: w.args.Line, Width: width, Height: height}, nil
}

func (h *Host) SetFirstLine(_ context.Context, win host.WinID, line int) error {
	w, err := h.window(win)
	if err != nil {
		return err
	}
	w.firstLine = max(line, 1)
	return nil
}

func (h *Host) DefineHighlight(_ context.Context, name string, style host.Style) error {
	h.highlights[name] = style
	return nil
}

func (h *Host) HasPropType(_ context.Context, buf host.BufNr, name string) (bool, error) {
	b, err := h.buffer(buf)
	if err != nil {
		return false, err
	}
	_, ok := b.propTypes[name]
	return ok, nil
}

func (h *Host) AddPropType(_ context.Context, buf host.BufNr, name, highlight string) error {
	b, err := h.buffer(buf)
	if err != nil {
		return err
	}
	if _, ok := b.propTypes[name]; ok {
		return fmt.Errorf("property type %s already defined", name)
	}
	b.propTypes[name] = highlight
	return nil
}

func (h *Host) AddProp(_ context.Context, buf host.BufNr, p host.Prop) error {
	b, err := h.buffer(buf)
	if err != nil {
		return err
	}
	if _, ok := b.propTypes[p.Type]; !ok {
		return fmt.Errorf("unknown property type %s", p.Type)
	}
	b.props = append(b.props, p)
	return nil
}

func (h *Host) ClearProps(_ context.Context, buf host.BufNr) error {
	b, err := h.buffer(buf)
	if err != nil {
		return err
	}
	b.props = nil
	return nil
}

func (h *Host) AddMatch(_ context.Context, win host.WinID, highlight, pat string) (int, error) {
	w, err := h.window(win)
	if err != nil {
		return 0, err
	}
	if _, err := h.patterns.Get(pat); err != nil {
		return 0, err
	}
	h.nextID++
	w.matches[h.nextID] = match{highlight: highlight, pattern: pat}
	return h.nextID, nil
}

func (h *Host) DeleteMatch(_ context.Context, win host.WinID, id int) error {
	w, err := h.window(win)
	if err != nil {
		return err
	}
	delete(w.matches, id)
	return nil
}

func (h *Host) DefineSign(_ context.Context, name, lineHighlight, text string) error {
	h.signDefs[name] = signDef{lineHighlight: lineHighlight, text: text}
	return nil
}

// UndefineSign also removes the placed signs of name.
func (h *Host) UndefineSign(_ context.Context, name string) error {
	delete(h.signDefs, name)
	for id, s := range h.signs {
		if s.name == name {
			delete(h.signs, id)
		}
	}
	return nil
}

func (h *Host) PlaceSign(_ context.Context, group, name string, buf host.BufNr, line int) (int, error) {
	if _, ok := h.signDefs[name]; !ok {
		return -1, nil
	}
	if _, ok := h.buffers[buf]; !ok {
		return -1, nil
	}
	h.nextID++
	h.signs[h.nextID] = placedSign{group: group, name: name, buf: buf, line: line}
	return h.nextID, nil
}

func (h *Host) UnplaceSign(_ context.Context, group string, buf host.BufNr, id int) error {
	if s, ok := h.signs[id]; ok && s.group == group && s.buf == buf {
		delete(h.signs, id)
	}
	return nil
}

// signLine returns the line of the first sign placed in buf, or 0.
func (h *Host) signLine(buf host.BufNr) (int, signDef) {
	best, id := 0, 0
	for i, s := range h.signs {
		if s.buf == buf && (id == 0 || i < id) {
			best, id = s.line, i
		}
	}
	if id == 0 {
		return 0, signDef{}
	}
	return best, h.signDefs[h.signs[id].name]
}

func (h *Host) MatchStrPos(_ context.Context, text, pat string) (int, int, error) {
	return h.patterns.MatchStrPos(text, pat)
}

func (h *Host) Search(_ context.Context, win host.WinID, pat string) (int, error) {
	w, err := h.window(win)
	if err != nil {
		return 0, err
	}
	return h.patterns.Search(h.buffers[w.buf].lines, pat)
}

func (h *Host) dispatcher() (Handler, error) {
	if h.handler == nil {
		return nil, ErrNoHandler
	}
	return h.handler, nil
}

func (h *Host) ItemAction(ctx context.Context, uiName, action string, items []item.Item, params map[string]any) error {
	d, err := h.dispatcher()
	if err != nil {
		return err
	}
	return d.ItemAction(ctx, uiName, action, items, params)
}

func (h *Host) RedrawTree(ctx context.Context, uiName, mode string, targets []host.TreeTarget) error {
	d, err := h.dispatcher()
	if err != nil {
		return err
	}
	return d.RedrawTree(ctx, uiName, mode, targets)
}

func (h *Host) Redraw(ctx context.Context, uiName, input string) error {
	d, err := h.dispatcher()
	if err != nil {
		return err
	}
	return d.Redraw(ctx, uiName, input)
}

func (h *Host) ChooseAction(ctx context.Context, uiName string, items []item.Item) error {
	d, err := h.dispatcher()
	if err != nil {
		return err
	}
	return d.ChooseAction(ctx, uiName, items)
}

func (h *Host) Pop(ctx context.Context, uiName string) error {
	d, err := h.dispatcher()
	if err != nil {
		return err
	}
	return d.Pop(ctx, uiName)
}

func (h *Host) DisplayWidth(_ context.Context, s string) (int, error) {
	return runewidth.StringWidth(s), nil
}

func (h *Host) PaletteColor(_ context.Context, index int) (string, error) {
	if index < 0 || index >= len(ansiPalette) {
		return "", nil
	}
	return ansiPalette[index], nil
}

// ScreenSize leaves the last terminal row to the status line.
func (h *Host) ScreenSize(context.Context) (int, int, error) {
	return h.width, h.height - 1, nil
}

func (h *Host) Scrolloff(context.Context) (int, error) { return h.opts.Scrolloff, nil }

// CreateKeyHandler focuses a new handler. The terminal cursor is never
// shown, so hideCursor needs no work.
func (h *Host) CreateKeyHandler(_ context.Context, uiName string, _ bool) (string, error) {
	h.nextID++
	kh := &keyHandler{id: fmt.Sprintf("keys-%d", h.nextID), uiName: uiName, mode: "n"}
	h.keys = append(h.keys, kh)
	return kh.id, nil
}

func (h *Host) SetMode(_ context.Context, id, mode string) error {
	for _, kh := range h.keys {
		if kh.id == id {
			kh.mode = mode
			return nil
		}
	}
	return fmt.Errorf("unknown key handler %s", id)
}

func (h *Host) DisposeKeyHandler(_ context.Context, id string) error {
	h.keys = slices.DeleteFunc(h.keys, func(kh *keyHandler) bool { return kh.id == id })
	return nil
}

// focused is the newest key handler, or nil.
func (h *Host) focused() *keyHandler {
	if len(h.keys) == 0 {
		return nil
	}
	return h.keys[len(h.keys)-1]
}

func (h *Host) PreviewBuffer(_ context.Context, name string) (host.BufNr, error) {
	if b, ok := h.named[name]; ok {
		return b, nil
	}
	return h.newBuf(name), nil
}

// BufferLines looks buffers up by name.
func (h *Host) BufferLines(_ context.Context, expr string) ([]string, bool, error) {
	b, ok := h.named[expr]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(h.buffers[b].lines), true, nil
}

func (h *Host) SetFiletype(_ context.Context, buf host.BufNr, filetype, syntax string) error {
	b, err := h.buffer(buf)
	if err != nil {
		return err
	}
	switch {
	case filetype != "":
		b.filetype = filetype
	case syntax != "":
		b.filetype = syntax
	default:
		b.filetype = detectFiletype(b.name)
	}
	b.syntax = nil
	return nil
}

func (h *Host) EchoError(_ context.Context, msg string) error {
	system.Logger.Error("echo", "msg", msg)
	h.message, h.messageErr = strings.TrimSpace(msg), true
	return nil
}

// Echo shows an informational message on the status line.
func (h *Host) Echo(msg string) {
	h.message, h.messageErr = msg, false
}

func (h *Host) Call(ctx context.Context, id string, args ...any) (any, error) {
	fn, ok := h.opts.Callbacks[id]
	if !ok {
		return nil, fmt.Errorf("unknown callback %q", id)
	}
	return fn(ctx, args...)
}
