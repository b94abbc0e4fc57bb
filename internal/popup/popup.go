// Package popup wraps one host popup window and its close notification.
package popup

import (
	"context"
	"errors"

	"ffpopup/internal/host"
	"ffpopup/internal/layout"
)

// ErrAlreadyOpen is returned by Open on a popup that is still open.
var ErrAlreadyOpen = errors.New("internal error: popup is already opened")

// Host is what a popup needs from the editor.
type Host interface {
	host.Popups
	host.Messages
}

// CloseFunc runs after the window is gone.
type CloseFunc func(ctx context.Context, win host.WinID)

// Popup is a floating window handle. The zero value is closed.
type Popup struct {
	h         Host
	win       host.WinID
	buf       host.BufNr
	highlight string
	open      bool
	gen       int
}

func New(h Host) *Popup { return &Popup{h: h} }

func (p *Popup) Exists() bool { return p.open }

func (p *Popup) WinID() host.WinID { return p.win }

func (p *Popup) BufNr() host.BufNr { return p.buf }

// Open creates the window. onClose runs once when the window closes, no
// matter who closed it.
func (p *Popup) Open(ctx context.Context, args layout.PopupCreateArgs, onClose CloseFunc) error {
	if p.open {
		if err := p.h.EchoError(ctx, ErrAlreadyOpen.Error()); err != nil {
			return errors.Join(ErrAlreadyOpen, err)
		}
		return ErrAlreadyOpen
	}
	p.gen++
	gen := p.gen
	win, err := p.h.OpenPopup(ctx, args, func(ctx context.Context, win host.WinID) {
		if gen != p.gen || !p.open {
			return
		}
		p.open = false
		p.win, p.buf, p.highlight = 0, 0, ""
		if onClose != nil {
			onClose(ctx, win)
		}
	})
	if err != nil {
		return err
	}
	p.win, p.open, p.highlight = win, true, args.Highlight
	buf, err := p.h.WinBufNr(ctx, win)
	if err != nil {
		return err
	}
	p.buf = buf
	return nil
}

// Close asks the host to close the window. Closing a closed popup is a
// no-op.
func (p *Popup) Close(ctx context.Context) error {
	if !p.open {
		return nil
	}
	return p.h.ClosePopup(ctx, p.win)
}

func (p *Popup) SetText(ctx context.Context, lines []string) error {
	if !p.open {
		return nil
	}
	return p.h.SetText(ctx, p.win, lines)
}

// SetBuffer shows buf in the window.
func (p *Popup) SetBuffer(ctx context.Context, buf host.BufNr) error {
	if !p.open {
		return nil
	}
	if err := p.h.SetBuffer(ctx, p.win, buf, p.highlight); err != nil {
		return err
	}
	p.buf = buf
	return nil
}

// RefreshBufNr re-reads the buffer shown in the window.
func (p *Popup) RefreshBufNr(ctx context.Context) error {
	if !p.open {
		return nil
	}
	buf, err := p.h.WinBufNr(ctx, p.win)
	if err != nil {
		return err
	}
	p.buf = buf
	return nil
}

func (p *Popup) Pos(ctx context.Context) (host.PopupPos, error) {
	if !p.open {
		return host.PopupPos{}, nil
	}
	return p.h.GetPos(ctx, p.win)
}

// SetFirstLine scrolls the window so line is at the top.
func (p *Popup) SetFirstLine(ctx context.Context, line int) error {
	if !p.open {
		return nil
	}
	return p.h.SetFirstLine(ctx, p.win, line)
}
