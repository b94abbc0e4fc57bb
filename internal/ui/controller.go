// Package ui drives one picker session: the filter, lister and preview
// popups, the action table and the open/close lifecycle.
package ui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"ffpopup/internal/config"
	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/preview"
	"ffpopup/internal/system"
)

var (
	// ErrNoSession is returned by Do when no session is open. Callers treat
	// it as a no-op.
	ErrNoSession = errors.New("no open session")
	// ErrUnknownAction is returned by Do for an action name not in the table.
	ErrUnknownAction = errors.New("unknown action")
)

// RedrawContext is the state of the item gathering a redraw belongs to.
type RedrawContext struct {
	// Sync defers opening until gathering is Done.
	Sync bool
	Done bool
}

// Controller is the session state machine. A session opens on the first
// Redraw and ends on quit or when the filter popup is closed.
type Controller struct {
	h        host.Host
	name     string
	params   config.Params
	provider preview.Provider

	session string
	filter  *filter
	lister  *listerView
	preview *preview.Surface
	actions map[string]Action
}

// New builds a controller for the UI called name. provider may be nil, in
// which case previewItem previews nothing.
func New(h host.Host, name string, p config.Params, provider preview.Provider) *Controller {
	if name == "" {
		name = "default"
	}
	c := &Controller{h: h, name: name, params: p, provider: provider}
	c.filter = newFilter(h)
	c.lister = newListerView(h, &c.params, name)
	c.preview = preview.NewSurface(h)
	c.actions = map[string]Action{
		"quit":        c.quit,
		"itemAction":  c.itemAction,
		"previewItem": c.previewItem,

		"selectUpperItem":     c.lister.SelectUpperItem,
		"selectLowerItem":     c.lister.SelectLowerItem,
		"collapseItem":        c.lister.CollapseItem,
		"expandItem":          c.lister.ExpandItem,
		"toggleSelectItem":    c.lister.ToggleSelectItem,
		"toggleAllItems":      c.lister.ToggleAllItems,
		"clearSelectAllItems": c.lister.ClearSelectAllItems,
		"chooseAction":        c.lister.ChooseAction,

		"moveToInsertMode": c.filter.MoveToInsertMode,
		"undoInput":        c.filter.UndoInput,
		"redoInput":        c.filter.RedoInput,

		"moveToNormalMode": c.filter.MoveToNormalMode,
		"addChar":          c.filter.AddChar,
		"deleteByRegex":    c.filter.DeleteByRegex,
		"deleteChar":       c.filter.DeleteChar,
		"deleteWord":       c.filter.DeleteWord,
		"deleteToHead":     c.filter.DeleteToHead,
		"moveForward":      c.filter.MoveForward,
		"moveBackward":     c.filter.MoveBackward,
		"moveToHead":       c.filter.MoveToHead,
		"moveToTail":       c.filter.MoveToTail,
	}
	return c
}

// Init reads host options. It runs once before the first session.
func (c *Controller) Init(ctx context.Context) error {
	so, err := c.h.Scrolloff(ctx)
	if err != nil {
		return err
	}
	c.lister.model.SetScrolloff(so)
	return nil
}

func (c *Controller) Name() string { return c.name }

func (c *Controller) Params() config.Params { return c.params }

// Actions lists the action names in sorted order.
func (c *Controller) Actions() []string {
	return slices.Sorted(maps.Keys(c.actions))
}

// Session is the id of the open session, or "".
func (c *Controller) Session() string { return c.session }

// Input is the filter text.
func (c *Controller) Input() string { return c.filter.Input() }

// Mode is the filter mode, ModeNormal or ModeInsert.
func (c *Controller) Mode() string { return c.filter.mode }

// Visible reports whether the session's filter popup exists.
func (c *Controller) Visible() bool { return c.filter.pop.Exists() }

// WinIDs returns the live popup windows.
func (c *Controller) WinIDs() []host.WinID {
	var ids []host.WinID
	if c.lister.pop.Exists() {
		ids = append(ids, c.lister.pop.WinID())
	}
	if c.filter.pop.Exists() {
		ids = append(ids, c.filter.pop.WinID())
	}
	if pop := c.preview.Popup(); pop.Exists() {
		ids = append(ids, pop.WinID())
	}
	return ids
}

// Windows returns the lister, filter and preview window ids; zero for a
// closed popup.
func (c *Controller) Windows() (lister, filter, preview host.WinID) {
	return c.lister.pop.WinID(), c.filter.pop.WinID(), c.preview.Popup().WinID()
}

// Cursor returns the index of the item under the cursor and the first
// visible index.
func (c *Controller) Cursor() (cursor, first int) {
	return c.lister.model.Cursor(), c.lister.model.First()
}

// Items returns the items the lister holds.
func (c *Controller) Items() []item.Item { return c.lister.model.Items() }

// CurrentItem returns the item under the cursor.
func (c *Controller) CurrentItem() (item.Item, bool) { return c.lister.model.CurrentItem() }

// ItemsForAction returns the selected items, or the item under the cursor.
func (c *Controller) ItemsForAction() []item.Item { return c.lister.model.ItemsForAction() }

// RefreshItems replaces the list. It does not redraw.
func (c *Controller) RefreshItems(items []item.Item) { c.lister.model.Refresh(items) }

// CollapseItem removes the descendants of it and returns how many items
// went away.
func (c *Controller) CollapseItem(it item.Item) int { return c.lister.model.CollapseItem(it) }

// ExpandItem splices children after parent. The result is the previous
// length minus the new one.
func (c *Controller) ExpandItem(parent item.Item, children []item.Item, grouped bool) int {
	return c.lister.model.ExpandItem(parent, children, grouped)
}

// SearchItem puts the cursor on the item equal to it and redraws the list.
func (c *Controller) SearchItem(ctx context.Context, it item.Item) error {
	return c.lister.searchItem(ctx, it)
}

func (c *Controller) ClearSelectedItems() { c.lister.model.ClearSelection() }

// Redraw opens the session when needed and redraws the list. While a sync
// gathering is not done nothing happens.
func (c *Controller) Redraw(ctx context.Context, rc RedrawContext) error {
	if rc.Sync && !rc.Done {
		return nil
	}
	if !c.Visible() {
		if err := c.openWindows(ctx); err != nil {
			return err
		}
	}
	return c.lister.redraw(ctx)
}

// Quit ends the session.
func (c *Controller) Quit(ctx context.Context) error { return c.onClose(ctx) }

// Do runs the named action. When the action asks for a redraw the list is
// redrawn before Do returns; the flags are returned unchanged.
func (c *Controller) Do(ctx context.Context, name string, p Params) (ActionFlags, error) {
	if c.session == "" {
		return FlagNone, ErrNoSession
	}
	act, ok := c.actions[name]
	if !ok {
		return FlagNone, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if p == nil {
		p = Params{}
	}
	flags, err := act(ctx, p)
	if err != nil {
		return flags, fmt.Errorf("%s: %w", name, err)
	}
	system.Logger.Debug("action", "name", name, "flags", flags, "session", c.session)
	if flags&FlagRedraw != 0 && c.session != "" {
		return flags, c.lister.redraw(ctx)
	}
	return flags, nil
}

func (c *Controller) bounds(ctx context.Context) (layout.Params, error) {
	switch {
	case c.params.BoundsProvider != nil:
		return c.params.BoundsProvider(ctx)
	case c.params.BoundsCallback != "":
		v, err := c.h.Call(ctx, c.params.BoundsCallback)
		if err != nil {
			return layout.Params{}, err
		}
		return layout.Parse(v)
	case c.params.Bounds != nil:
		return *c.params.Bounds, nil
	}
	cols, lines, err := c.h.ScreenSize(ctx)
	if err != nil {
		return layout.Params{}, err
	}
	return layout.Default(cols, lines), nil
}

func (c *Controller) openWindows(ctx context.Context) error {
	b, err := c.bounds(ctx)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	lay := layout.Calc(b, c.params.LayoutOptions())
	c.session = uuid.NewString()
	system.Logger.Info("session opened", "session", c.session, "ui", c.name)
	if err := c.openPopups(ctx, lay); err != nil {
		return errors.Join(err, c.onClose(ctx))
	}
	return nil
}

// openPopups opens the session's windows. Whatever it opened before an
// error is left for onClose.
func (c *Controller) openPopups(ctx context.Context, lay layout.Layout) error {
	if err := c.preview.Open(ctx, lay.Preview); err != nil {
		return err
	}
	err := c.filter.open(ctx, lay.Filter, c.params, c.name, func(ctx context.Context, _ host.WinID) {
		if err := c.onClose(ctx); err != nil {
			system.Logger.Error("close session", "err", err)
		}
	})
	if err != nil {
		return err
	}
	if err := c.lister.open(ctx, lay.Lister, c.session); err != nil {
		return err
	}
	if c.params.StartFilter {
		if _, err := c.filter.MoveToInsertMode(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

// onClose tears the session down once; later calls are no-ops.
func (c *Controller) onClose(ctx context.Context) error {
	if c.session == "" {
		return nil
	}
	system.Logger.Info("session closed", "session", c.session)
	c.session = ""
	return errors.Join(
		c.filter.onClose(ctx),
		c.lister.onClose(ctx),
		c.lister.close(ctx),
		c.filter.close(ctx),
		c.preview.Close(ctx),
	)
}

func (c *Controller) quit(ctx context.Context, _ Params) (ActionFlags, error) {
	if err := c.onClose(ctx); err != nil {
		return FlagNone, err
	}
	return FlagNone, c.h.Pop(ctx, c.name)
}

// itemAction runs action "name" (default "default") of the item source on
// the given items, or on the selected ones.
func (c *Controller) itemAction(ctx context.Context, p Params) (ActionFlags, error) {
	items, ok := p.Items()
	if !ok {
		items = c.lister.model.ItemsForAction()
	}
	if len(items) == 0 {
		return FlagPersist, nil
	}
	name := p.String("name")
	if name == "" {
		name = "default"
	}
	return FlagNone, c.h.ItemAction(ctx, c.name, name, items, p.Map("params"))
}

func (c *Controller) previewItem(ctx context.Context, p Params) (ActionFlags, error) {
	it, ok := c.lister.model.CurrentItem()
	if !ok {
		return FlagNone, nil
	}
	params := make(map[string]any, len(p)+1)
	maps.Copy(params, p)
	if _, set := params["syntaxLimitChars"]; !set && c.params.SyntaxLimitChars > 0 {
		params["syntaxLimitChars"] = c.params.SyntaxLimitChars
	}
	shown, err := c.preview.DoPreview(ctx, it, params, c.params.Highlights.Previewline, c.provider)
	if err != nil || !shown {
		return FlagNone, err
	}
	return FlagPersist, nil
}
