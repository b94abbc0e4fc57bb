package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/pattern"
)

// FakeWindow is a popup opened on a FakeHost.
type FakeWindow struct {
	Args      layout.PopupCreateArgs
	Buf       host.BufNr
	Highlight string
	FirstLine int
	onClose   host.CloseFunc
}

// FakeSign is a placed sign.
type FakeSign struct {
	Group, Name string
	Buf         host.BufNr
	Line        int
}

// FakeProcess records Kill calls. Tests drive output through the spawn
// options kept in FakeSpawn.
type FakeProcess struct {
	Killed bool
}

func (p *FakeProcess) Kill(context.Context) error {
	p.Killed = true
	return nil
}

// FakeSpawn is one Spawn call.
type FakeSpawn struct {
	Cmd  []string
	Opts host.ProcessOptions
	Proc *FakeProcess
}

// FakeItemAction is one Dispatcher.ItemAction call.
type FakeItemAction struct {
	UI, Action string
	Items      []item.Item
	Params     map[string]any
}

// FakeRedrawTree is one Dispatcher.RedrawTree call.
type FakeRedrawTree struct {
	UI, Mode string
	Targets  []host.TreeTarget
}

// FakeHost is an in-memory host.Host that records what the core asks of it.
type FakeHost struct {
	Calls []string

	Windows map[host.WinID]*FakeWindow
	Buffers map[host.BufNr][]string
	Named   map[string]host.BufNr
	// Existing maps buffer expressions to lines for BufferLines.
	Existing  map[string][]string
	Filetypes map[host.BufNr]string

	Highlights map[string]host.Style
	PropTypes  map[host.BufNr]map[string]string
	Props      map[host.BufNr][]host.Prop
	Matches    map[host.WinID]map[int]string

	SignDefs map[string]string
	Signs    map[int]FakeSign

	Spawns []*FakeSpawn

	ItemActions   []FakeItemAction
	RedrawTrees   []FakeRedrawTree
	Redraws       []string
	ChooseActions [][]item.Item
	Pops          int

	Cols, Lines int
	Scroll      int
	Palette     map[int]string

	KeyHandlers map[string]string // id -> mode
	Errors      []string
	Funcs       map[string]func(args ...any) (any, error)

	// Fail makes the named method return an error.
	Fail map[string]error

	patterns *pattern.Cache
	nextWin  host.WinID
	nextBuf  host.BufNr
	nextID   int
}

var _ host.Host = (*FakeHost)(nil)

func NewFakeHost() *FakeHost {
	return &FakeHost{
		Windows:     map[host.WinID]*FakeWindow{},
		Buffers:     map[host.BufNr][]string{},
		Named:       map[string]host.BufNr{},
		Existing:    map[string][]string{},
		Filetypes:   map[host.BufNr]string{},
		Highlights:  map[string]host.Style{},
		PropTypes:   map[host.BufNr]map[string]string{},
		Props:       map[host.BufNr][]host.Prop{},
		Matches:     map[host.WinID]map[int]string{},
		SignDefs:    map[string]string{},
		Signs:       map[int]FakeSign{},
		Cols:        120,
		Lines:       40,
		Palette:     map[int]string{},
		KeyHandlers: map[string]string{},
		Funcs:       map[string]func(args ...any) (any, error){},
		Fail:        map[string]error{},
		patterns:    pattern.NewCache(),
		nextWin:     1000,
		nextBuf:     1,
	}
}

func (f *FakeHost) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	f.Calls = append(f.Calls, call)
	name, _, _ := strings.Cut(call, " ")
	return f.Fail[name]
}

// CallCount counts recorded calls whose method name is name.
func (f *FakeHost) CallCount(name string) int {
	n := 0
	for _, c := range f.Calls {
		if m, _, _ := strings.Cut(c, " "); m == name {
			n++
		}
	}
	return n
}

func (f *FakeHost) newBuf() host.BufNr {
	b := f.nextBuf
	f.nextBuf++
	f.Buffers[b] = []string{""}
	return b
}

// UserClose closes win the way a user would, firing its close callback.
func (f *FakeHost) UserClose(ctx context.Context, win host.WinID) {
	w, ok := f.Windows[win]
	if !ok {
		return
	}
	delete(f.Windows, win)
	if w.onClose != nil {
		w.onClose(ctx, win)
	}
}

// WindowLines returns the lines shown in win.
func (f *FakeHost) WindowLines(win host.WinID) []string {
	w, ok := f.Windows[win]
	if !ok {
		return nil
	}
	return f.Buffers[w.Buf]
}

// PlacedSigns returns the placed signs of group in buf.
func (f *FakeHost) PlacedSigns(group string, buf host.BufNr) []FakeSign {
	var out []FakeSign
	for _, s := range f.Signs {
		if s.Group == group && s.Buf == buf {
			out = append(out, s)
		}
	}
	return out
}

func (f *FakeHost) OpenPopup(_ context.Context, args layout.PopupCreateArgs, onClose host.CloseFunc) (host.WinID, error) {
	if err := f.record("OpenPopup"); err != nil {
		return 0, err
	}
	f.nextWin++
	f.Windows[f.nextWin] = &FakeWindow{Args: args, Buf: f.newBuf(), Highlight: args.Highlight, FirstLine: 1, onClose: onClose}
	return f.nextWin, nil
}

func (f *FakeHost) ClosePopup(ctx context.Context, win host.WinID) error {
	if err := f.record("ClosePopup %d", win); err != nil {
		return err
	}
	f.UserClose(ctx, win)
	return nil
}

func (f *FakeHost) SetText(_ context.Context, win host.WinID, lines []string) error {
	if err := f.record("SetText %d", win); err != nil {
		return err
	}
	w, ok := f.Windows[win]
	if !ok {
		return fmt.Errorf("invalid window %d", win)
	}
	f.Buffers[w.Buf] = slices.Clone(lines)
	return nil
}

func (f *FakeHost) SetBuffer(_ context.Context, win host.WinID, buf host.BufNr, hl string) error {
	if err := f.record("SetBuffer %d %d", win, buf); err != nil {
		return err
	}
	w, ok := f.Windows[win]
	if !ok {
		return fmt.Errorf("invalid window %d", win)
	}
	w.Buf, w.Highlight = buf, hl
	return nil
}

func (f *FakeHost) WinBufNr(_ context.Context, win host.WinID) (host.BufNr, error) {
	w, ok := f.Windows[win]
	if !ok {
		return -1, nil
	}
	return w.Buf, nil
}

func (f *FakeHost) GetPos(_ context.Context, win host.WinID) (host.PopupPos, error) {
	w, ok := f.Windows[win]
	if !ok {
		return host.PopupPos{}, nil
	}
	return host.PopupPos{Col: w.Args.Col, Line: w.Args.Line, Width: w.Args.MinWidth, Height: w.Args.MinHeight}, nil
}

func (f *FakeHost) SetFirstLine(_ context.Context, win host.WinID, line int) error {
	if err := f.record("SetFirstLine %d %d", win, line); err != nil {
		return err
	}
	if w, ok := f.Windows[win]; ok {
		w.FirstLine = line
	}
	return nil
}

func (f *FakeHost) DefineHighlight(_ context.Context, name string, style host.Style) error {
	if err := f.record("DefineHighlight %s", name); err != nil {
		return err
	}
	f.Highlights[name] = style
	return nil
}

func (f *FakeHost) HasPropType(_ context.Context, buf host.BufNr, name string) (bool, error) {
	_, ok := f.PropTypes[buf][name]
	return ok, nil
}

func (f *FakeHost) AddPropType(_ context.Context, buf host.BufNr, name, hl string) error {
	if err := f.record("AddPropType %d %s", buf, name); err != nil {
		return err
	}
	if _, ok := f.PropTypes[buf][name]; ok {
		return fmt.Errorf("property type %s already defined", name)
	}
	if f.PropTypes[buf] == nil {
		f.PropTypes[buf] = map[string]string{}
	}
	f.PropTypes[buf][name] = hl
	return nil
}

func (f *FakeHost) AddProp(_ context.Context, buf host.BufNr, p host.Prop) error {
	if err := f.record("AddProp %d %s", buf, p.Type); err != nil {
		return err
	}
	f.Props[buf] = append(f.Props[buf], p)
	return nil
}

func (f *FakeHost) ClearProps(_ context.Context, buf host.BufNr) error {
	if err := f.record("ClearProps %d", buf); err != nil {
		return err
	}
	delete(f.Props, buf)
	return nil
}

func (f *FakeHost) AddMatch(_ context.Context, win host.WinID, hl, pat string) (int, error) {
	if err := f.record("AddMatch %d %s", win, pat); err != nil {
		return 0, err
	}
	f.nextID++
	if f.Matches[win] == nil {
		f.Matches[win] = map[int]string{}
	}
	f.Matches[win][f.nextID] = pat
	return f.nextID, nil
}

func (f *FakeHost) DeleteMatch(_ context.Context, win host.WinID, id int) error {
	if err := f.record("DeleteMatch %d %d", win, id); err != nil {
		return err
	}
	delete(f.Matches[win], id)
	return nil
}

func (f *FakeHost) DefineSign(_ context.Context, name, linehl, text string) error {
	if err := f.record("DefineSign %s", name); err != nil {
		return err
	}
	f.SignDefs[name] = linehl
	return nil
}

func (f *FakeHost) UndefineSign(_ context.Context, name string) error {
	if err := f.record("UndefineSign %s", name); err != nil {
		return err
	}
	delete(f.SignDefs, name)
	return nil
}

func (f *FakeHost) PlaceSign(_ context.Context, group, name string, buf host.BufNr, line int) (int, error) {
	if err := f.record("PlaceSign %s %d", name, line); err != nil {
		return -1, err
	}
	if _, ok := f.SignDefs[name]; !ok {
		return -1, nil
	}
	f.nextID++
	f.Signs[f.nextID] = FakeSign{Group: group, Name: name, Buf: buf, Line: line}
	return f.nextID, nil
}

func (f *FakeHost) UnplaceSign(_ context.Context, group string, buf host.BufNr, id int) error {
	if err := f.record("UnplaceSign %d", id); err != nil {
		return err
	}
	delete(f.Signs, id)
	return nil
}

func (f *FakeHost) MatchStrPos(_ context.Context, text, pat string) (int, int, error) {
	return f.patterns.MatchStrPos(text, pat)
}

func (f *FakeHost) Search(_ context.Context, win host.WinID, pat string) (int, error) {
	return f.patterns.Search(f.WindowLines(win), pat)
}

func (f *FakeHost) Spawn(_ context.Context, cmd []string, opts host.ProcessOptions) (host.Process, error) {
	if err := f.record("Spawn %v", cmd); err != nil {
		return nil, err
	}
	s := &FakeSpawn{Cmd: cmd, Opts: opts, Proc: &FakeProcess{}}
	f.Spawns = append(f.Spawns, s)
	return s.Proc, nil
}

func (f *FakeHost) ItemAction(_ context.Context, ui, action string, items []item.Item, params map[string]any) error {
	if err := f.record("ItemAction %s", action); err != nil {
		return err
	}
	f.ItemActions = append(f.ItemActions, FakeItemAction{UI: ui, Action: action, Items: items, Params: params})
	return nil
}

func (f *FakeHost) RedrawTree(_ context.Context, ui, mode string, targets []host.TreeTarget) error {
	if err := f.record("RedrawTree %s", mode); err != nil {
		return err
	}
	f.RedrawTrees = append(f.RedrawTrees, FakeRedrawTree{UI: ui, Mode: mode, Targets: targets})
	return nil
}

func (f *FakeHost) Redraw(_ context.Context, ui, input string) error {
	if err := f.record("Redraw %s", input); err != nil {
		return err
	}
	f.Redraws = append(f.Redraws, input)
	return nil
}

func (f *FakeHost) ChooseAction(_ context.Context, ui string, items []item.Item) error {
	if err := f.record("ChooseAction"); err != nil {
		return err
	}
	f.ChooseActions = append(f.ChooseActions, items)
	return nil
}

func (f *FakeHost) Pop(_ context.Context, ui string) error {
	if err := f.record("Pop"); err != nil {
		return err
	}
	f.Pops++
	return nil
}

func (f *FakeHost) DisplayWidth(_ context.Context, s string) (int, error) {
	return runewidth.StringWidth(s), nil
}

func (f *FakeHost) PaletteColor(_ context.Context, i int) (string, error) {
	return f.Palette[i], nil
}

func (f *FakeHost) ScreenSize(context.Context) (int, int, error) {
	return f.Cols, f.Lines, nil
}

func (f *FakeHost) Scrolloff(context.Context) (int, error) { return f.Scroll, nil }

func (f *FakeHost) CreateKeyHandler(_ context.Context, ui string, hideCursor bool) (string, error) {
	if err := f.record("CreateKeyHandler %s", ui); err != nil {
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("keys-%d", f.nextID)
	f.KeyHandlers[id] = "normal"
	return id, nil
}

func (f *FakeHost) SetMode(_ context.Context, id, mode string) error {
	if err := f.record("SetMode %s", mode); err != nil {
		return err
	}
	f.KeyHandlers[id] = mode
	return nil
}

func (f *FakeHost) DisposeKeyHandler(_ context.Context, id string) error {
	if err := f.record("DisposeKeyHandler"); err != nil {
		return err
	}
	delete(f.KeyHandlers, id)
	return nil
}

func (f *FakeHost) PreviewBuffer(_ context.Context, name string) (host.BufNr, error) {
	if err := f.record("PreviewBuffer %s", name); err != nil {
		return -1, err
	}
	if b, ok := f.Named[name]; ok {
		return b, nil
	}
	b := f.newBuf()
	f.Named[name] = b
	return b, nil
}

func (f *FakeHost) BufferLines(_ context.Context, expr string) ([]string, bool, error) {
	lines, ok := f.Existing[expr]
	return slices.Clone(lines), ok, nil
}

func (f *FakeHost) SetFiletype(_ context.Context, buf host.BufNr, ft, syntax string) error {
	if err := f.record("SetFiletype %d %s", buf, ft); err != nil {
		return err
	}
	f.Filetypes[buf] = ft
	return nil
}

func (f *FakeHost) EchoError(_ context.Context, msg string) error {
	f.Errors = append(f.Errors, msg)
	return nil
}

func (f *FakeHost) Call(_ context.Context, id string, args ...any) (any, error) {
	fn, ok := f.Funcs[id]
	if !ok {
		return nil, fmt.Errorf("unknown callback %q", id)
	}
	return fn(args...)
}
