// Package app wires the file source to the popup UI and runs it in the
// terminal host.
package app

import (
	"context"
	"errors"
	"fmt"

	zone "github.com/lrstanley/bubblezone"
	"github.com/sahilm/fuzzy"

	"ffpopup/internal/config"
	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/source"
	"ffpopup/internal/system"
	"ffpopup/internal/termhost"
	"ffpopup/internal/ui"
)

// UIName is the name the picker UI registers under.
const UIName = "files"

// Options configure a picker run.
type Options struct {
	Root   string
	Params config.Params
	// PreviewCmd replaces the built-in previews with a terminal command.
	PreviewCmd string
	// AutoPreview previews the item under the cursor after every action.
	AutoPreview bool
	// Watch re-lists the root when files change.
	Watch bool
}

// Start runs the picker until it quits and returns the opened paths.
func Start(ctx context.Context, opts Options) ([]string, error) {
	zone.NewGlobal()
	h := termhost.New(termhost.Options{
		Scrolloff:   opts.Params.Scrolloff,
		HandleCtrlC: opts.Params.HandleCtrlC,
	})
	d, err := newDriver(h, opts)
	if err != nil {
		return nil, err
	}
	h.SetHandler(d)
	h.SetCallbacks(Callbacks(h))
	defer d.close()
	if err := h.Run(ctx, d.start); err != nil {
		return nil, err
	}
	return d.src.Picked(), nil
}

// Callbacks are the bounds callbacks a config may name in boundsCallback.
func Callbacks(m host.Metrics) map[string]termhost.Callback {
	return map[string]termhost.Callback{
		"fullscreen": func(ctx context.Context, _ ...any) (any, error) {
			cols, lines, err := m.ScreenSize(ctx)
			if err != nil {
				return nil, err
			}
			half := cols / 2
			return boundsValue(layout.Params{
				Finder:  layout.Bounds{Width: half, Height: lines},
				Preview: layout.Bounds{Col: half, Width: cols - half, Height: lines},
			}), nil
		},
		"stacked": func(ctx context.Context, _ ...any) (any, error) {
			cols, lines, err := m.ScreenSize(ctx)
			if err != nil {
				return nil, err
			}
			top := lines / 2
			return boundsValue(layout.Params{
				Finder:  layout.Bounds{Width: cols, Height: top},
				Preview: layout.Bounds{Line: top, Width: cols, Height: lines - top},
			}), nil
		},
	}
}

func boundsValue(p layout.Params) map[string]any {
	b := func(b layout.Bounds) map[string]any {
		return map[string]any{"line": b.Line, "col": b.Col, "width": b.Width, "height": b.Height}
	}
	return map[string]any{"finder": b(p.Finder), "preview": b(p.Preview)}
}

// driver answers the requests of the UI from the file source. While an
// action is being chosen the list holds action names and targets holds the
// items the action will run on.
type driver struct {
	h       *termhost.Host
	src     *source.Source
	ctrl    *ui.Controller
	opts    Options
	watcher *source.Watcher

	choosing bool
	targets  []item.Item
}

func newDriver(h *termhost.Host, opts Options) (*driver, error) {
	src, err := source.New(source.Options{Root: opts.Root, Tree: opts.Params.DisplayTree})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", opts.Root, err)
	}
	previews := source.NewPreviews(src, opts.PreviewCmd)
	return &driver{
		h:    h,
		src:  src,
		ctrl: ui.New(h, UIName, opts.Params, previews.Provider()),
		opts: opts,
	}, nil
}

func (d *driver) start(ctx context.Context) error {
	if err := d.ctrl.Init(ctx); err != nil {
		return err
	}
	d.watch()
	d.title(ctx)
	return d.show(ctx)
}

// title shows the listed directory on the status line and adds the git
// state once it is known.
func (d *driver) title(ctx context.Context) {
	root := d.src.Root()
	d.h.SetTitle(root)
	go func() {
		gi := system.GetGitInfo(ctx, root)
		if gi.InRepo {
			d.h.Post(func(context.Context) {
				if d.src.Root() == root {
					d.h.SetTitle(root + " " + gi.String())
				}
			})
		}
	}()
}

// show lists the current items and opens the session when it is closed.
func (d *driver) show(ctx context.Context) error {
	if d.choosing {
		d.ctrl.RefreshItems(actionItems())
	} else {
		d.ctrl.RefreshItems(d.src.Items())
	}
	if err := d.ctrl.Redraw(ctx, ui.RedrawContext{}); err != nil {
		return err
	}
	d.autoPreview(ctx)
	return nil
}

// reopen starts a fresh session, dropping the filter input.
func (d *driver) reopen(ctx context.Context) error {
	if err := d.ctrl.Quit(ctx); err != nil {
		return err
	}
	return d.show(ctx)
}

func (d *driver) autoPreview(ctx context.Context) {
	if !d.opts.AutoPreview || d.choosing || d.ctrl.Session() == "" {
		return
	}
	if _, err := d.ctrl.Do(ctx, "previewItem", nil); err != nil {
		system.Logger.Debug("auto preview", "err", err)
	}
}

func (d *driver) watch() {
	if !d.opts.Watch {
		return
	}
	d.watcher.Close()
	w, err := source.Watch(d.src.Dirs(), func() { d.h.Post(d.changed) })
	if err != nil {
		system.Logger.Warn("watch disabled", "err", err)
		d.watcher = nil
		return
	}
	d.watcher = w
}

// changed re-walks the root after files changed on disk.
func (d *driver) changed(ctx context.Context) {
	if err := d.src.Gather(); err != nil {
		system.Logger.Error("gather", "err", err)
		return
	}
	if d.choosing || d.ctrl.Session() == "" {
		return
	}
	d.ctrl.RefreshItems(d.src.Items())
	if err := d.ctrl.Redraw(ctx, ui.RedrawContext{}); err != nil {
		system.Logger.Error("redraw", "err", err)
	}
}

func (d *driver) close() {
	if err := d.watcher.Close(); err != nil {
		system.Logger.Debug("close watcher", "err", err)
	}
}

// Action runs a key-bound UI action.
func (d *driver) Action(ctx context.Context, _ string, name string, params map[string]any) error {
	_, err := d.ctrl.Do(ctx, name, ui.Params(params))
	if errors.Is(err, ui.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if name != "previewItem" {
		d.autoPreview(ctx)
	}
	return nil
}

func (d *driver) Redraw(ctx context.Context, _ string, input string) error {
	if d.choosing {
		d.ctrl.RefreshItems(filterActions(input))
	} else {
		d.src.SetInput(input)
		d.ctrl.RefreshItems(d.src.Items())
	}
	return d.ctrl.Redraw(ctx, ui.RedrawContext{})
}

func (d *driver) RedrawTree(ctx context.Context, _ string, mode string, targets []host.TreeTarget) error {
	for _, t := range targets {
		switch mode {
		case "collapse":
			d.ctrl.CollapseItem(d.src.Collapse(t.Item))
		case "expand":
			d.expand(t)
		default:
			return fmt.Errorf("unknown tree mode %q", mode)
		}
	}
	return d.ctrl.Redraw(ctx, ui.RedrawContext{})
}

// expand inserts the children of t. A grouped expansion first replaces the
// item with the merged directory chain and then expands the chain's end.
func (d *driver) expand(t host.TreeTarget) {
	if !t.Item.IsTree {
		return
	}
	children, grouped := d.src.Expand(t.Item, t.MaxLevel, t.IsGrouped)
	if !grouped {
		d.ctrl.ExpandItem(source.Expanded(t.Item), children, false)
		return
	}
	d.ctrl.ExpandItem(t.Item, children, true)
	merged := children[0]
	more, _ := d.src.Expand(merged, t.MaxLevel, false)
	d.ctrl.ExpandItem(source.Expanded(merged), more, false)
}

func (d *driver) ItemAction(ctx context.Context, _ string, action string, items []item.Item, params map[string]any) error {
	chose := d.choosing
	if chose {
		if len(items) == 0 {
			return nil
		}
		action = items[0].Word
		items, params = d.targets, nil
		d.choosing, d.targets = false, nil
	}
	out, err := d.src.Do(ctx, action, items, params)
	if err != nil {
		if chose {
			return errors.Join(err, d.reopen(ctx))
		}
		return err
	}
	switch out {
	case source.Quit:
		if err := d.ctrl.Quit(ctx); err != nil {
			system.Logger.Error("close session", "err", err)
		}
		d.h.Quit()
	case source.Refresh:
		d.watch()
		d.title(ctx)
		return d.reopen(ctx)
	case source.Stay:
		if chose {
			return d.reopen(ctx)
		}
	}
	return nil
}

func (d *driver) ChooseAction(ctx context.Context, _ string, items []item.Item) error {
	d.choosing, d.targets = true, items
	if err := d.reopen(ctx); err != nil {
		return err
	}
	d.h.Echo(fmt.Sprintf("choose an action for %d item(s)", len(items)))
	return nil
}

// Pop leaves the action list, or ends the program.
func (d *driver) Pop(ctx context.Context, _ string) error {
	if d.choosing {
		d.choosing, d.targets = false, nil
		return d.show(ctx)
	}
	d.h.Quit()
	return nil
}

func actionItems() []item.Item {
	return filterActions("")
}

func filterActions(input string) []item.Item {
	var out []item.Item
	if input == "" {
		for _, name := range source.ActionNames {
			out = append(out, item.Item{Word: name})
		}
		return out
	}
	for _, m := range fuzzy.Find(input, source.ActionNames) {
		out = append(out, item.Item{Word: m.Str})
	}
	return out
}
