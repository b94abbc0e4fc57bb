// Package host declares the editor capabilities the picker core consumes.
// Every call is a request/response round trip to the host; callers issue them
// in order and treat a returned error as a user-visible failure.
package host

import (
	"context"

	"ffpopup/internal/item"
	"ffpopup/internal/layout"
)

// WinID is a popup window handle.
type WinID int

// BufNr is a buffer handle.
type BufNr int

// CloseFunc is invoked once when a popup window is closed, by the user or
// by ClosePopup.
type CloseFunc func(ctx context.Context, win WinID)

// PopupPos is the screen geometry of a popup's content area.
type PopupPos struct {
	Col    int `json:"core_col"`
	Line   int `json:"core_line"`
	Width  int `json:"core_width"`
	Height int `json:"core_height"`
}

// Popups creates and drives floating windows.
type Popups interface {
	OpenPopup(ctx context.Context, opts layout.PopupCreateArgs, onClose CloseFunc) (WinID, error)
	ClosePopup(ctx context.Context, win WinID) error
	SetText(ctx context.Context, win WinID, lines []string) error
	// SetBuffer rebinds the window to buf and reapplies the popup highlight.
	SetBuffer(ctx context.Context, win WinID, buf BufNr, highlight string) error
	WinBufNr(ctx context.Context, win WinID) (BufNr, error)
	GetPos(ctx context.Context, win WinID) (PopupPos, error)
	SetFirstLine(ctx context.Context, win WinID, line int) error
}

// Style is a highlight definition. Colors are "#rrggbb" or empty.
type Style struct {
	Fg, Bg        string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Reverse       bool
}

// Prop is a byte-range text decoration on one buffer line. Line and Col are
// 1-based. A zero Col with Text set adds virtual text at the end of the line.
type Prop struct {
	Type      string
	Highlight string
	Line      int
	Col       int
	Length    int
	Text      string
}

// Decorations manages highlight groups, text properties and window matches.
type Decorations interface {
	DefineHighlight(ctx context.Context, name string, style Style) error
	HasPropType(ctx context.Context, buf BufNr, name string) (bool, error)
	AddPropType(ctx context.Context, buf BufNr, name, highlight string) error
	AddProp(ctx context.Context, buf BufNr, p Prop) error
	ClearProps(ctx context.Context, buf BufNr) error
	AddMatch(ctx context.Context, win WinID, highlight, pattern string) (int, error)
	DeleteMatch(ctx context.Context, win WinID, id int) error
}

// Signs manages gutter markers.
type Signs interface {
	DefineSign(ctx context.Context, name, lineHighlight, text string) error
	UndefineSign(ctx context.Context, name string) error
	// PlaceSign returns the placed sign id, or -1 when it was not placed.
	PlaceSign(ctx context.Context, group, name string, buf BufNr, line int) (int, error)
	UnplaceSign(ctx context.Context, group string, buf BufNr, id int) error
}

// Patterns evaluates host-native patterns.
type Patterns interface {
	// MatchStrPos returns the byte range of the first match of pattern in
	// text, or (-1, -1) when there is none.
	MatchStrPos(ctx context.Context, text, pattern string) (start, end int, err error)
	// Search returns the first line (1-based) of the window's buffer
	// matching pattern, or 0.
	Search(ctx context.Context, win WinID, pattern string) (int, error)
}

// ProcessOptions configures Spawn. Callbacks are delivered on the host's
// single action queue.
type ProcessOptions struct {
	Cwd      string
	Rows     int
	Cols     int
	OnStdout func(ctx context.Context, chunk string)
	OnStderr func(ctx context.Context, chunk string)
	OnClose  func(ctx context.Context)
}

// Process is a running command.
type Process interface {
	Kill(ctx context.Context) error
}

// Processes spawns commands.
type Processes interface {
	Spawn(ctx context.Context, cmd []string, opts ProcessOptions) (Process, error)
}

// TreeTarget is one tree mutation request.
type TreeTarget struct {
	Item      item.Item
	MaxLevel  int
	IsGrouped bool
}

// Dispatcher forwards requests to the item source.
type Dispatcher interface {
	ItemAction(ctx context.Context, uiName, action string, items []item.Item, params map[string]any) error
	RedrawTree(ctx context.Context, uiName, mode string, targets []TreeTarget) error
	Redraw(ctx context.Context, uiName, input string) error
	ChooseAction(ctx context.Context, uiName string, items []item.Item) error
	Pop(ctx context.Context, uiName string) error
}

// Metrics exposes display measurements and editor settings.
type Metrics interface {
	DisplayWidth(ctx context.Context, s string) (int, error)
	// PaletteColor resolves a 16-color terminal palette index to "#rrggbb";
	// an empty result means the host has no opinion.
	PaletteColor(ctx context.Context, index int) (string, error)
	ScreenSize(ctx context.Context) (cols, lines int, err error)
	Scrolloff(ctx context.Context) (int, error)
}

// KeyHandlers installs the key handler that turns keys in the filter popup
// into actions. The core owns the mode; the host is told about changes.
type KeyHandlers interface {
	CreateKeyHandler(ctx context.Context, uiName string, hideCursor bool) (string, error)
	SetMode(ctx context.Context, id, mode string) error
	DisposeKeyHandler(ctx context.Context, id string) error
}

// Buffers gives access to preview buffers and existing buffer contents.
type Buffers interface {
	// PreviewBuffer returns the buffer named name, creating a scratch
	// buffer when it does not exist.
	PreviewBuffer(ctx context.Context, name string) (BufNr, error)
	// BufferLines returns the lines of the buffer matching expr; ok is false
	// when no such buffer exists.
	BufferLines(ctx context.Context, expr string) (lines []string, ok bool, err error)
	// SetFiletype sets the buffer's filetype and syntax. When both are empty
	// the host detects the filetype from the buffer name.
	SetFiletype(ctx context.Context, buf BufNr, filetype, syntax string) error
}

// Messages reports errors to the user.
type Messages interface {
	EchoError(ctx context.Context, msg string) error
}

// Callbacks invokes user-registered host callbacks by id.
type Callbacks interface {
	Call(ctx context.Context, id string, args ...any) (any, error)
}

// Host is the full capability surface.
type Host interface {
	Popups
	Decorations
	Signs
	Patterns
	Processes
	Dispatcher
	Metrics
	KeyHandlers
	Buffers
	Messages
	Callbacks
}
