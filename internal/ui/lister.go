package ui

import (
	"context"
	"errors"

	"ffpopup/internal/config"
	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/lister"
	"ffpopup/internal/popup"
	"ffpopup/internal/preview"
)

// CursorlineSignGroup is the sign group of the lister cursorline.
const CursorlineSignGroup = "ffpopupCursorline"

// CursorlineSignName returns the cursorline sign name of a session.
func CursorlineSignName(session string) string {
	return "ffpopup-cursorline-" + session
}

// listerView is the candidate list popup.
type listerView struct {
	h      host.Host
	pop    *popup.Popup
	model  *lister.Model
	params *config.Params
	uiName string

	sign   string
	signID int
}

func newListerView(h host.Host, p *config.Params, uiName string) *listerView {
	return &listerView{h: h, pop: popup.New(h), model: lister.New(), params: p, uiName: uiName}
}

func (l *listerView) open(ctx context.Context, args layout.PopupCreateArgs, session string) error {
	l.model.SetMaxDisplay(args.MaxHeight)
	l.sign, l.signID = CursorlineSignName(session), 0
	if err := l.pop.Open(ctx, args, nil); err != nil {
		return err
	}
	return l.h.DefineSign(ctx, l.sign, l.params.Highlights.Cursorline, ">")
}

func (l *listerView) onClose(ctx context.Context) error {
	name := l.sign
	l.model.ClearSelection()
	l.sign, l.signID = "", 0
	if name == "" {
		return nil
	}
	return l.h.UndefineSign(ctx, name)
}

func (l *listerView) close(ctx context.Context) error { return l.pop.Close(ctx) }

func (l *listerView) redraw(ctx context.Context) error {
	if err := l.drawItems(ctx); err != nil {
		return err
	}
	return l.drawCursorline(ctx)
}

func (l *listerView) drawItems(ctx context.Context) error {
	lines, hls := l.model.Render(lister.RenderOptions{
		DisplayTree:       l.params.DisplayTree,
		Reversed:          l.params.Reversed,
		SelectedHighlight: l.params.Highlights.Selected,
	})
	if err := l.pop.SetText(ctx, lines); err != nil {
		return err
	}
	hl := preview.NewHighlighter(l.h, l.pop.WinID(), l.pop.BufNr())
	if err := hl.ClearAll(ctx); err != nil {
		return err
	}
	for _, h := range hls {
		if err := hl.AddProp(ctx, h.Name, h.HlGroup, h.Line, h.Col, h.Width); err != nil {
			return err
		}
	}
	return nil
}

func (l *listerView) drawCursorline(ctx context.Context) error {
	if l.sign == "" {
		return nil
	}
	buf := l.pop.BufNr()
	if l.signID > 0 {
		if err := l.h.UnplaceSign(ctx, CursorlineSignGroup, buf, l.signID); err != nil {
			return err
		}
		l.signID = 0
	}
	line := l.model.CursorLine(l.params.Reversed)
	if line == 0 {
		return nil
	}
	id, err := l.h.PlaceSign(ctx, CursorlineSignGroup, l.sign, buf, line)
	if err != nil {
		return err
	}
	if id != -1 {
		l.signID = id
	}
	return nil
}

func (l *listerView) searchItem(ctx context.Context, target item.Item) error {
	if !l.model.SearchItem(target) || !l.pop.Exists() {
		return nil
	}
	return l.redraw(ctx)
}

func (l *listerView) move(ctx context.Context, delta int) (ActionFlags, error) {
	if l.params.Reversed {
		delta = -delta
	}
	scrolled, moved := l.model.Move(delta)
	switch {
	case scrolled:
		return FlagPersist, l.redraw(ctx)
	case moved:
		return FlagPersist, l.drawCursorline(ctx)
	}
	return FlagPersist, nil
}

func (l *listerView) SelectUpperItem(ctx context.Context, p Params) (ActionFlags, error) {
	return l.move(ctx, -p.Count1())
}

func (l *listerView) SelectLowerItem(ctx context.Context, p Params) (ActionFlags, error) {
	return l.move(ctx, p.Count1())
}

func (l *listerView) CollapseItem(ctx context.Context, _ Params) (ActionFlags, error) {
	it, ok := l.model.CurrentItem()
	if !ok || !it.IsTree || it.Level < 0 {
		return FlagNone, nil
	}
	return FlagNone, l.h.RedrawTree(ctx, l.uiName, "collapse", []host.TreeTarget{{Item: it}})
}

// ExpandItem expands the tree item under the cursor. With mode "toggle" an
// expanded item is collapsed instead.
func (l *listerView) ExpandItem(ctx context.Context, p Params) (ActionFlags, error) {
	it, ok := l.model.CurrentItem()
	if !ok {
		return FlagNone, nil
	}
	mode := p.String("mode")
	if mode != "" && mode != "toggle" {
		return FlagNone, errors.New(`expandItem: mode must be "toggle"`)
	}
	if it.Expanded {
		if mode == "toggle" {
			return l.CollapseItem(ctx, p)
		}
		return FlagNone, nil
	}
	maxLevel, _ := p.Int("maxLevel")
	return FlagNone, l.h.RedrawTree(ctx, l.uiName, "expand", []host.TreeTarget{{
		Item:      it,
		MaxLevel:  maxLevel,
		IsGrouped: p.Bool("isGrouped"),
	}})
}

func (l *listerView) ToggleSelectItem(context.Context, Params) (ActionFlags, error) {
	if !l.model.ToggleSelect() {
		return FlagNone, nil
	}
	return FlagRedraw, nil
}

func (l *listerView) ToggleAllItems(context.Context, Params) (ActionFlags, error) {
	l.model.ToggleSelectAll()
	return FlagRedraw, nil
}

func (l *listerView) ClearSelectAllItems(context.Context, Params) (ActionFlags, error) {
	l.model.ClearSelection()
	return FlagRedraw, nil
}

// ChooseAction asks the item source to offer the actions of the target
// items.
func (l *listerView) ChooseAction(ctx context.Context, _ Params) (ActionFlags, error) {
	items := l.model.ItemsForAction()
	if len(items) == 0 {
		return FlagPersist, nil
	}
	return FlagNone, l.h.ChooseAction(ctx, l.uiName, items)
}
