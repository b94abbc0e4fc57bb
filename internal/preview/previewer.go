// Package preview renders item previews into the preview popup.
package preview

import (
	"context"

	"ffpopup/internal/item"
)

// Kind selects how a previewer's content is produced.
type Kind string

const (
	// KindBuffer shows a file or an existing buffer.
	KindBuffer Kind = "buffer"
	// KindNoFile shows lines supplied by the previewer.
	KindNoFile Kind = "nofile"
	// KindTerminal runs a command and shows its decorated output.
	KindTerminal Kind = "terminal"
)

// Highlight is a previewer-supplied span. Row and Col are 1-based, Col and
// Width are bytes.
type Highlight struct {
	Name    string `json:"name"`
	HlGroup string `json:"hl_group"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Width   int    `json:"width"`
}

// Previewer describes what to show for an item.
type Previewer struct {
	Kind Kind

	// buffer
	Path        string
	Expr        string
	UseExisting bool

	// nofile; Ansi contents are decoded for SGR sequences first.
	Contents []string
	Ansi     bool

	// terminal
	Cmd []string
	Cwd string

	Filetype string
	Syntax   string

	// Target line: LineNr wins over Pattern.
	LineNr     int
	Pattern    string
	Highlights []Highlight
}

// Context is the geometry of the preview popup's content area.
type Context struct {
	Col, Row      int
	Width, Height int
}

// Provider resolves the previewer for an item. A nil previewer means the
// item has nothing to preview.
type Provider func(ctx context.Context, it item.Item, params map[string]any, pc Context) (*Previewer, error)
