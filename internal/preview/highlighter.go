package preview

import (
	"context"
	"errors"

	"ffpopup/internal/host"
)

// HighlighterHost is the host surface a Highlighter draws on.
type HighlighterHost interface {
	host.Decorations
	WinBufNr(ctx context.Context, win host.WinID) (host.BufNr, error)
}

// Highlighter remembers the props and matches it adds so they can be
// removed together.
type Highlighter struct {
	h        HighlighterHost
	win      host.WinID
	buf      host.BufNr
	matchIDs []int
}

func NewHighlighter(h HighlighterHost, win host.WinID, buf host.BufNr) *Highlighter {
	return &Highlighter{h: h, win: win, buf: buf}
}

func (hl *Highlighter) BufNr() host.BufNr { return hl.buf }

// AddProp adds a byte-range property, creating its type on first use.
func (hl *Highlighter) AddProp(ctx context.Context, propType, highlight string, line, col, length int) error {
	ok, err := hl.h.HasPropType(ctx, hl.buf, propType)
	if err != nil {
		return err
	}
	if !ok {
		if err := hl.h.AddPropType(ctx, hl.buf, propType, highlight); err != nil {
			return err
		}
	}
	return hl.h.AddProp(ctx, hl.buf, host.Prop{
		Type:      propType,
		Highlight: highlight,
		Line:      line,
		Col:       col,
		Length:    length,
	})
}

// AddMatch highlights every match of pattern in the window.
func (hl *Highlighter) AddMatch(ctx context.Context, highlight, pattern string) error {
	id, err := hl.h.AddMatch(ctx, hl.win, highlight, pattern)
	if err != nil {
		return err
	}
	hl.matchIDs = append(hl.matchIDs, id)
	return nil
}

// ClearAll removes every prop of the buffer and the recorded matches. Matches
// are skipped when the window is gone.
func (hl *Highlighter) ClearAll(ctx context.Context) error {
	errs := []error{hl.h.ClearProps(ctx, hl.buf)}
	if buf, err := hl.h.WinBufNr(ctx, hl.win); err == nil && buf > 0 {
		for _, id := range hl.matchIDs {
			errs = append(errs, hl.h.DeleteMatch(ctx, hl.win, id))
		}
	}
	hl.matchIDs = nil
	return errors.Join(errs...)
}
