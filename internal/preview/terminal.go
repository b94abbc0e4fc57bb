package preview

import (
	"context"
	"errors"
	"slices"

	"ffpopup/internal/decorate"
	"ffpopup/internal/host"
	"ffpopup/internal/system"
)

// Target receives the drawer's text.
type Target interface {
	SetText(ctx context.Context, lines []string) error
}

// DrawerHost is what a Drawer needs from the host.
type DrawerHost interface {
	host.Processes
	HighlighterHost
}

// Drawer runs a command and renders its output into a Target. stdout and
// stderr are decoded separately. While the command runs only the text is
// redrawn; when it exits the two streams are joined (stderr, a blank line,
// stdout) and the decorations are placed.
type Drawer struct {
	h       DrawerHost
	target  Target
	palette decorate.Palette

	stdout *decorate.Decoder
	stderr *decorate.Decoder

	proc    host.Process
	hl      *Highlighter
	gen     int
	running bool
}

func NewDrawer(h DrawerHost, target Target, palette decorate.Palette) *Drawer {
	return &Drawer{
		h:       h,
		target:  target,
		palette: palette,
		stdout:  decorate.NewDecoder(palette),
		stderr:  decorate.NewDecoder(palette),
	}
}

func (d *Drawer) Running() bool { return d.running }

// Start aborts any running command and spawns cmd. Decorations are added
// through hl.
func (d *Drawer) Start(ctx context.Context, cmd []string, cwd string, pc Context, hl *Highlighter) error {
	if err := d.Abort(ctx); err != nil {
		return err
	}
	d.stdout.Reset()
	d.stderr.Reset()
	d.gen++
	gen := d.gen
	live := func() bool { return gen == d.gen && d.running }

	d.running, d.hl = true, hl
	proc, err := d.h.Spawn(ctx, cmd, host.ProcessOptions{
		Cwd:  cwd,
		Rows: pc.Height,
		Cols: pc.Width,
		OnStdout: func(ctx context.Context, chunk string) {
			if !live() {
				return
			}
			d.stdout.Feed(chunk)
			d.logErr(d.redraw(ctx))
		},
		OnStderr: func(ctx context.Context, chunk string) {
			if !live() {
				return
			}
			d.stderr.Feed(chunk)
			d.logErr(d.redraw(ctx))
		},
		OnClose: func(ctx context.Context) {
			if !live() {
				return
			}
			d.running, d.proc = false, nil
			d.logErr(d.finish(ctx))
		},
	})
	if err != nil {
		d.running = false
		return err
	}
	if d.running {
		d.proc = proc
	}
	system.Logger.Debug("terminal preview started", "cmd", cmd, "cwd", cwd)
	return nil
}

// Abort kills the running command and drops its pending output.
func (d *Drawer) Abort(ctx context.Context) error {
	if !d.running {
		return nil
	}
	d.running = false
	d.gen++
	p := d.proc
	d.proc = nil
	if p == nil {
		return nil
	}
	system.Logger.Debug("terminal preview aborted")
	return p.Kill(ctx)
}

// Lines returns the joined output and the line offset of stdout in it.
func (d *Drawer) Lines() ([]string, int) {
	out, errl := d.stdout.Lines(), d.stderr.Lines()
	if len(errl) == 0 {
		return out, 0
	}
	lines := append(slices.Clone(errl), "")
	return append(lines, out...), len(errl) + 1
}

func (d *Drawer) redraw(ctx context.Context) error {
	lines := d.stdout.Lines()
	if len(lines) == 0 {
		lines = d.stderr.Lines()
	}
	return d.target.SetText(ctx, lines)
}

func (d *Drawer) finish(ctx context.Context) error {
	d.stdout.Flush()
	d.stderr.Flush()
	lines, offset := d.Lines()
	if err := d.target.SetText(ctx, lines); err != nil {
		return err
	}
	if d.hl == nil {
		return nil
	}
	defined := map[string]bool{}
	for _, dec := range []*decorate.Decoder{d.stderr, d.stdout} {
		for _, ns := range dec.Styles() {
			if defined[ns.Name] {
				continue
			}
			defined[ns.Name] = true
			if err := d.h.DefineHighlight(ctx, ns.Name, HostStyle(ns.Style)); err != nil {
				return err
			}
		}
	}
	var errs []error
	for _, deco := range d.stderr.Decorations() {
		errs = append(errs, d.hl.AddProp(ctx, deco.Highlight, deco.Highlight, deco.Line, deco.Col, deco.Length))
	}
	for _, deco := range d.stdout.Decorations() {
		errs = append(errs, d.hl.AddProp(ctx, deco.Highlight, deco.Highlight, deco.Line+offset, deco.Col, deco.Length))
	}
	system.Logger.Debug("terminal preview finished", "lines", len(lines), "styles", len(defined))
	return errors.Join(errs...)
}

func (d *Drawer) logErr(err error) {
	if err != nil {
		system.Logger.Error("terminal preview", "err", err)
	}
}

// HostStyle converts a decoded SGR style to a host highlight definition.
func HostStyle(s decorate.Style) host.Style {
	return host.Style{
		Fg:            s.Fg,
		Bg:            s.Bg,
		Bold:          s.Bold,
		Italic:        s.Italic,
		Underline:     s.Underline,
		Strikethrough: s.Strikethrough,
		Reverse:       s.Reverse,
	}
}

// ResolvePalette asks the host for the 16 basic terminal colors.
func ResolvePalette(ctx context.Context, m host.Metrics) (decorate.Palette, error) {
	var p decorate.Palette
	for i := range p {
		c, err := m.PaletteColor(ctx, i)
		if err != nil {
			return p, err
		}
		p[i] = c
	}
	return p, nil
}
