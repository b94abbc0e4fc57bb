package termhost

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"ffpopup/internal/system"
)

// postMsg runs fn on the update goroutine.
type postMsg struct{ fn func(ctx context.Context) }

// StartFunc opens the first UI. It runs once the terminal size is known.
type StartFunc func(ctx context.Context) error

type model struct {
	h       *Host
	ctx     context.Context
	start   StartFunc
	started bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	h := m.h
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.Resize(msg.Width, msg.Height)
		if !m.started {
			m.started = true
			if err := m.start(m.ctx); err != nil {
				h.Fail(err)
			}
		}
	case postMsg:
		msg.fn(m.ctx)
	case tea.KeyMsg:
		h.message = ""
		h.handleKey(m.ctx, msg)
	case tea.MouseMsg:
		h.handleMouse(m.ctx, msg)
	}
	if h.quitting {
		h.killAll(m.ctx)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.h.quitting || !m.started {
		return ""
	}
	return zone.Scan(m.h.screen())
}

// post hands fn to the update goroutine. It must not be called from it:
// the program's message channel is unbuffered.
func (h *Host) post(fn func(ctx context.Context)) {
	if p := h.program.Load(); p != nil {
		p.Send(postMsg{fn: fn})
	}
}

// Post runs fn on the update goroutine. Use it from other goroutines only.
func (h *Host) Post(fn func(ctx context.Context)) { h.post(fn) }

// Run shows the screen until Quit. start opens the first UI; its error, or
// the one passed to Fail, is returned.
func (h *Host) Run(ctx context.Context, start StartFunc) error {
	p := tea.NewProgram(model{h: h, ctx: ctx, start: start},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	h.program.Store(p)
	_, err := p.Run()
	h.program.Store(nil)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if h.exitErr != nil {
		system.Logger.Error("exit", "err", h.exitErr)
	}
	return h.exitErr
}

// handleMouse scrolls popups with the wheel and moves the cursor of a
// list popup to the clicked row. A list popup is one with a sign.
func (h *Host) handleMouse(ctx context.Context, msg tea.MouseMsg) {
	kh := h.focused()
	ws := h.sortedWindows()
	for i := len(ws) - 1; i >= 0; i-- {
		w := ws[i]
		z := zone.Get(windowZone(w.id))
		if z == nil || !z.InBounds(msg) {
			continue
		}
		signLine, _ := h.signLine(w.buf)
		switch {
		case msg.Button == tea.MouseButtonWheelDown && msg.Action == tea.MouseActionPress:
			if signLine > 0 && kh != nil {
				h.runAction(ctx, kh, "selectLowerItem", nil)
			} else {
				w.firstLine = min(w.firstLine+3, max(len(h.buffers[w.buf].lines), 1))
			}
		case msg.Button == tea.MouseButtonWheelUp && msg.Action == tea.MouseActionPress:
			if signLine > 0 && kh != nil {
				h.runAction(ctx, kh, "selectUpperItem", nil)
			} else {
				w.firstLine = max(w.firstLine-3, 1)
			}
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease:
			if signLine == 0 || kh == nil {
				return
			}
			_, y := z.Pos(msg)
			target := w.firstLine + y - mask(w.args.Border)[0]
			switch d := target - signLine; {
			case d > 0:
				h.runAction(ctx, kh, "selectLowerItem", map[string]any{"count1": d})
			case d < 0:
				h.runAction(ctx, kh, "selectUpperItem", map[string]any{"count1": -d})
			}
		}
		return
	}
}
