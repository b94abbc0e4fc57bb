package ui

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"ffpopup/internal/config"
	"ffpopup/internal/host"
	"ffpopup/internal/layout"
	"ffpopup/internal/linebuf"
	"ffpopup/internal/popup"
)

// CursorPropType marks the insert-mode cursor in the filter popup.
const CursorPropType = "ffpopup-prop-type-cursor"

// Filter modes, as handed to the key handler.
const (
	ModeNormal = "n"
	ModeInsert = "i"
)

// filter is the single-line input popup.
type filter struct {
	h      host.Host
	pop    *popup.Popup
	uiName string
	keys   string
	mode   string

	buf     *linebuf.LineBuffer
	display *linebuf.Display
	history *linebuf.History
}

func newFilter(h host.Host) *filter {
	f := &filter{h: h, pop: popup.New(h)}
	f.reset()
	return f
}

func (f *filter) reset() {
	f.buf = &linebuf.LineBuffer{}
	f.display = linebuf.NewDisplay()
	f.history = linebuf.NewHistory()
	f.history.Push(f.buf)
	f.mode = ModeNormal
}

func (f *filter) open(ctx context.Context, args layout.PopupCreateArgs, p config.Params, uiName string, onClose popup.CloseFunc) error {
	keys, err := f.h.CreateKeyHandler(ctx, uiName, p.HideCursor)
	if err != nil {
		return fmt.Errorf("create key handler: %w", err)
	}
	f.keys, f.uiName, f.mode = keys, uiName, ModeNormal

	f.display.SetMaxWidth(args.MaxWidth)
	if err := f.display.SetPrompt(ctx, f.h, p.Prompt); err != nil {
		return err
	}
	if err := f.pop.Open(ctx, args, onClose); err != nil {
		return err
	}
	if err := f.h.AddPropType(ctx, f.pop.BufNr(), CursorPropType, p.Highlights.Cursor); err != nil {
		return err
	}
	return f.updatePrompt(ctx)
}

// onClose drops the input and releases the key handler.
func (f *filter) onClose(ctx context.Context) error {
	id := f.keys
	f.reset()
	f.keys, f.uiName = "", ""
	if id == "" {
		return nil
	}
	return f.h.DisposeKeyHandler(ctx, id)
}

func (f *filter) close(ctx context.Context) error { return f.pop.Close(ctx) }

// Input is the current filter text.
func (f *filter) Input() string { return f.buf.Text }

func (f *filter) updatePrompt(ctx context.Context) error {
	if err := f.display.Update(ctx, f.h, f.buf); err != nil {
		return err
	}
	view := f.display.View()
	if err := f.pop.SetText(ctx, []string{view.Text}); err != nil {
		return err
	}
	buf := f.pop.BufNr()
	if err := f.h.ClearProps(ctx, buf); err != nil {
		return err
	}
	if f.mode != ModeInsert {
		return nil
	}
	if view.CharColumn < utf8.RuneCountInString(view.Text) {
		_, size := utf8.DecodeRuneInString(view.Text[view.ByteColumn:])
		return f.h.AddProp(ctx, buf, host.Prop{Type: CursorPropType, Line: 1, Col: view.ByteColumn + 1, Length: size})
	}
	return f.h.AddProp(ctx, buf, host.Prop{Type: CursorPropType, Line: 1, Text: " "})
}

func (f *filter) notify(ctx context.Context) error {
	return f.h.Redraw(ctx, f.uiName, f.buf.Text)
}

// edited redraws the prompt and tells the item source about the new input.
func (f *filter) edited(ctx context.Context) (ActionFlags, error) {
	if err := f.updatePrompt(ctx); err != nil {
		return FlagPersist, err
	}
	return FlagPersist, f.notify(ctx)
}

func (f *filter) moved(ctx context.Context) (ActionFlags, error) {
	return FlagPersist, f.updatePrompt(ctx)
}

func (f *filter) setMode(ctx context.Context, mode string) error {
	if err := f.h.SetMode(ctx, f.keys, mode); err != nil {
		return err
	}
	f.mode = mode
	return f.updatePrompt(ctx)
}

func (f *filter) MoveToInsertMode(ctx context.Context, _ Params) (ActionFlags, error) {
	return FlagPersist, f.setMode(ctx, ModeInsert)
}

func (f *filter) MoveToNormalMode(ctx context.Context, _ Params) (ActionFlags, error) {
	if f.mode == ModeInsert {
		f.history.Push(f.buf)
	}
	return FlagPersist, f.setMode(ctx, ModeNormal)
}

func (f *filter) UndoInput(ctx context.Context, _ Params) (ActionFlags, error) {
	return f.restore(ctx, f.history.Prev())
}

func (f *filter) RedoInput(ctx context.Context, _ Params) (ActionFlags, error) {
	return f.restore(ctx, f.history.Next())
}

func (f *filter) restore(ctx context.Context, b *linebuf.LineBuffer) (ActionFlags, error) {
	if b == nil {
		return FlagPersist, nil
	}
	f.buf = b
	return f.edited(ctx)
}

func (f *filter) AddChar(ctx context.Context, p Params) (ActionFlags, error) {
	ch, ok := p["char"].(string)
	if !ok {
		return FlagNone, errors.New("addChar: char must be a string")
	}
	f.buf.Insert(ch, p.Count1())
	return f.edited(ctx)
}

func (f *filter) DeleteByRegex(ctx context.Context, p Params) (ActionFlags, error) {
	re, ok := p["regex"].(string)
	if !ok {
		return FlagNone, errors.New("deleteByRegex: regex must be a string")
	}
	return f.deleteByPattern(ctx, re, p.Count1())
}

func (f *filter) DeleteChar(ctx context.Context, p Params) (ActionFlags, error) {
	return f.deleteByPattern(ctx, linebuf.PatternChar, p.Count1())
}

func (f *filter) DeleteWord(ctx context.Context, p Params) (ActionFlags, error) {
	return f.deleteByPattern(ctx, linebuf.PatternWord, p.Count1())
}

func (f *filter) deleteByPattern(ctx context.Context, pattern string, count1 int) (ActionFlags, error) {
	if err := f.buf.DeleteByPattern(ctx, f.h, pattern, count1); err != nil {
		return FlagPersist, err
	}
	return f.edited(ctx)
}

func (f *filter) DeleteToHead(ctx context.Context, _ Params) (ActionFlags, error) {
	f.buf.DeleteToHead()
	return f.edited(ctx)
}

func (f *filter) MoveForward(ctx context.Context, _ Params) (ActionFlags, error) {
	f.buf.MoveForward()
	return f.moved(ctx)
}

func (f *filter) MoveBackward(ctx context.Context, _ Params) (ActionFlags, error) {
	f.buf.MoveBackward()
	return f.moved(ctx)
}

func (f *filter) MoveToHead(ctx context.Context, _ Params) (ActionFlags, error) {
	f.buf.MoveToHead()
	return f.moved(ctx)
}

func (f *filter) MoveToTail(ctx context.Context, _ Params) (ActionFlags, error) {
	f.buf.MoveToTail()
	return f.moved(ctx)
}
