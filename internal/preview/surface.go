package preview

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/hashstructure/v2"

	"ffpopup/internal/decorate"
	"ffpopup/internal/host"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/popup"
	"ffpopup/internal/system"
)

const (
	// BufferScheme prefixes the names of preview buffers.
	BufferScheme = "ffpopup://"
	// LinePropType marks the previewed target line.
	LinePropType = "ffpopup-preview-highlight"

	bufferSyntaxLimit = 400000
	nofileSyntaxLimit = 40000
)

// Host is the host surface used by previews.
type Host interface {
	host.Popups
	host.Decorations
	host.Patterns
	host.Processes
	host.Metrics
	host.Buffers
	host.Messages
}

// Surface owns the preview popup and what is currently drawn in it.
type Surface struct {
	h      Host
	pop    *popup.Popup
	hl     *Highlighter
	drawer *Drawer

	last    uint64
	hasLast bool
}

func NewSurface(h Host) *Surface {
	return &Surface{h: h, pop: popup.New(h)}
}

func (s *Surface) Popup() *popup.Popup { return s.pop }

func (s *Surface) Open(ctx context.Context, args layout.PopupCreateArgs) error {
	return s.pop.Open(ctx, args, nil)
}

// Close aborts a running terminal preview and closes the popup.
func (s *Surface) Close(ctx context.Context) error {
	var errs []error
	if s.drawer != nil {
		errs = append(errs, s.drawer.Abort(ctx))
	}
	s.hasLast, s.hl = false, nil
	errs = append(errs, s.pop.Close(ctx))
	return errors.Join(errs...)
}

// Drawer returns the terminal drawer, or nil before the first terminal
// preview.
func (s *Surface) Drawer() *Drawer { return s.drawer }

// DoPreview shows it in the popup. It reports whether anything was
// previewed. Previewing the item shown last is a no-op.
func (s *Surface) DoPreview(ctx context.Context, it item.Item, params map[string]any, lineHighlight string, provider Provider) (bool, error) {
	key, err := hashstructure.Hash(it, hashstructure.FormatV2, nil)
	if err != nil {
		return false, fmt.Errorf("hash item: %w", err)
	}
	if (s.hasLast && key == s.last) || provider == nil || !s.pop.Exists() {
		return false, nil
	}

	if s.drawer != nil {
		if err := s.drawer.Abort(ctx); err != nil {
			return false, err
		}
	}
	if s.hl != nil {
		err := s.hl.ClearAll(ctx)
		s.hl = nil
		if err != nil {
			return false, err
		}
	}

	pos, err := s.pop.Pos(ctx)
	if err != nil {
		return false, err
	}
	pc := Context{Col: pos.Col, Row: pos.Line, Width: pos.Width, Height: pos.Height}
	pv, err := provider(ctx, it, params, pc)
	if err != nil || pv == nil {
		return false, err
	}

	var shown bool
	switch pv.Kind {
	case KindTerminal:
		shown, err = s.showTerminal(ctx, pv, it, pc)
	case KindNoFile:
		shown, err = s.showNoFile(ctx, pv, it, params, lineHighlight)
	default:
		shown, err = s.showBuffer(ctx, pv, it, params, lineHighlight)
	}
	if err != nil || !shown {
		return false, err
	}
	s.last, s.hasLast = key, true
	system.Logger.Debug("previewed", "kind", pv.Kind, "word", it.Word)
	return true, s.jump(ctx, pv, pc)
}

func (s *Surface) showNoFile(ctx context.Context, pv *Previewer, it item.Item, params map[string]any, lineHighlight string) (bool, error) {
	if len(pv.Contents) == 0 {
		return false, nil
	}
	buf, err := s.previewBuffer(ctx, pv, it)
	if err != nil {
		return false, err
	}
	if err := s.pop.SetBuffer(ctx, buf); err != nil {
		return false, err
	}
	lines := pv.Contents
	var dec *decorate.Decoder
	if pv.Ansi {
		dec = decorate.NewDecoder(decorate.Palette{})
		dec.Feed(strings.Join(pv.Contents, "\n"))
		dec.Flush()
		lines = dec.Lines()
	}
	if err := s.pop.SetText(ctx, lines); err != nil {
		return false, err
	}
	if charCount(lines) < syntaxLimit(params, nofileSyntaxLimit) && (pv.Filetype != "" || pv.Syntax != "") {
		if err := s.h.SetFiletype(ctx, buf, pv.Filetype, pv.Syntax); err != nil {
			return false, err
		}
	}
	if err := s.highlight(ctx, pv, buf, lineHighlight); err != nil {
		return false, err
	}
	if dec != nil {
		if err := s.decorate(ctx, dec); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Surface) showBuffer(ctx context.Context, pv *Previewer, it item.Item, params map[string]any, lineHighlight string) (bool, error) {
	if pv.Expr == "" && pv.Path == "" {
		return false, nil
	}
	buf, err := s.previewBuffer(ctx, pv, it)
	if err != nil {
		return false, err
	}
	lines, cerr := s.contents(ctx, pv)
	if cerr != nil {
		lines = []string{"Error", cerr.Error()}
	}
	if err := s.pop.SetBuffer(ctx, buf); err != nil {
		return false, err
	}
	if err := s.pop.SetText(ctx, lines); err != nil {
		return false, err
	}
	if cerr != nil {
		return true, nil
	}
	if charCount(lines) < syntaxLimit(params, bufferSyntaxLimit) {
		// Empty filetype and syntax ask the host to detect one.
		if err := s.h.SetFiletype(ctx, buf, pv.Filetype, pv.Syntax); err != nil {
			return false, err
		}
	}
	return true, s.highlight(ctx, pv, buf, lineHighlight)
}

func (s *Surface) showTerminal(ctx context.Context, pv *Previewer, it item.Item, pc Context) (bool, error) {
	buf, err := s.previewBuffer(ctx, pv, it)
	if err != nil {
		return false, err
	}
	if err := s.pop.SetBuffer(ctx, buf); err != nil {
		return false, err
	}
	if s.drawer == nil {
		pal, err := ResolvePalette(ctx, s.h)
		if err != nil {
			return false, err
		}
		s.drawer = NewDrawer(s.h, s.pop, pal)
	}
	s.hl = NewHighlighter(s.h, s.pop.WinID(), buf)
	if err := s.drawer.Start(ctx, pv.Cmd, pv.Cwd, pc, s.hl); err != nil {
		return false, err
	}
	return true, nil
}

// previewBuffer returns the buffer to show, created by the host on demand.
func (s *Surface) previewBuffer(ctx context.Context, pv *Previewer, it item.Item) (host.BufNr, error) {
	if pv.Kind == KindBuffer && pv.Expr != "" && pv.UseExisting {
		return s.h.PreviewBuffer(ctx, pv.Expr)
	}
	return s.h.PreviewBuffer(ctx, BufferName(pv, it))
}

// BufferName is the name of the scratch buffer a previewer is shown in.
func BufferName(pv *Previewer, it item.Item) string {
	switch pv.Kind {
	case KindBuffer:
		if pv.Expr != "" {
			return BufferScheme + pv.Expr
		}
		return BufferScheme + pv.Path
	case KindNoFile, KindTerminal:
		return BufferScheme + "preview"
	}
	return BufferScheme + it.Word
}

func (s *Surface) contents(ctx context.Context, pv *Previewer) ([]string, error) {
	if pv.Path != "" {
		if fi, err := os.Stat(pv.Path); err == nil && !fi.IsDir() {
			data, err := os.ReadFile(pv.Path)
			if err != nil {
				return nil, err
			}
			return strings.Split(string(data), "\n"), nil
		}
	}
	if expr := cmp.Or(pv.Expr, pv.Path); expr != "" {
		lines, ok, err := s.h.BufferLines(ctx, expr)
		if err != nil {
			return nil, err
		}
		if ok {
			return lines, nil
		}
	}
	return nil, fmt.Errorf("%q cannot be opened.", pv.Path)
}

func (s *Surface) highlight(ctx context.Context, pv *Previewer, buf host.BufNr, lineHighlight string) error {
	s.hl = NewHighlighter(s.h, s.pop.WinID(), buf)
	switch {
	case pv.LineNr > 0:
		cols, _, err := s.h.ScreenSize(ctx)
		if err != nil {
			return err
		}
		if err := s.hl.AddProp(ctx, LinePropType, lineHighlight, pv.LineNr, 1, cols); err != nil {
			return err
		}
	case pv.Pattern != "":
		if err := s.hl.AddMatch(ctx, lineHighlight, pv.Pattern); err != nil {
			return err
		}
	}
	for _, h := range pv.Highlights {
		if err := s.hl.AddProp(ctx, h.Name, h.HlGroup, h.Row, h.Col, h.Width); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) decorate(ctx context.Context, dec *decorate.Decoder) error {
	for _, ns := range dec.Styles() {
		if err := s.h.DefineHighlight(ctx, ns.Name, HostStyle(ns.Style)); err != nil {
			return err
		}
	}
	for _, d := range dec.Decorations() {
		if err := s.hl.AddProp(ctx, d.Highlight, d.Highlight, d.Line, d.Col, d.Length); err != nil {
			return err
		}
	}
	return nil
}

// jump scrolls the target line to the middle of the popup.
func (s *Surface) jump(ctx context.Context, pv *Previewer, pc Context) error {
	line := pv.LineNr
	if line == 0 && pv.Pattern != "" {
		var err error
		if line, err = s.h.Search(ctx, s.pop.WinID(), pv.Pattern); err != nil {
			return err
		}
	}
	if line <= 0 {
		return nil
	}
	return s.pop.SetFirstLine(ctx, max(1, line-pc.Height/2))
}

func charCount(lines []string) int {
	n := 0
	for _, l := range lines {
		n += utf8.RuneCountInString(l)
	}
	return n
}

func syntaxLimit(params map[string]any, def int) int {
	switch v := params["syntaxLimitChars"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
