package linebuf

import (
	"context"
	"unicode/utf8"
)

// Measurer reports the rendered cell width of a string.
type Measurer interface {
	DisplayWidth(ctx context.Context, s string) (int, error)
}

// View is the prompt plus the visible slice of a buffer, with the cursor
// position inside it.
type View struct {
	Text       string
	ByteColumn int
	CharColumn int
}

type prompt struct {
	text    string
	width   int
	byteLen int
	charLen int
}

// Display keeps a cursor-aware window over a LineBuffer that fits in a fixed
// number of cells.
type Display struct {
	last       LineBuffer
	maxWidth   int
	first      int // rune index of the first visible character
	text       string
	charColumn int
	byteColumn int
	prompt     prompt
}

func NewDisplay() *Display { return &Display{} }

func (d *Display) SetMaxWidth(w int) { d.maxWidth = w }

func (d *Display) SetPrompt(ctx context.Context, m Measurer, p string) error {
	w, err := m.DisplayWidth(ctx, p)
	if err != nil {
		return err
	}
	d.prompt = prompt{text: p, width: w, byteLen: len(p), charLen: utf8.RuneCountInString(p)}
	return nil
}

// Update recomputes the window for buf. The window only scrolls when the
// cursor leaves it.
func (d *Display) Update(ctx context.Context, m Measurer, buf *LineBuffer) error {
	budget := d.maxWidth - d.prompt.width
	delta := buf.CharColumn - d.last.CharColumn
	runes := []rune(buf.Text)
	cursor := min(max(buf.CharColumn, 0), len(runes))

	if delta < 0 && cursor < d.first {
		head := runes[:cursor]
		kept, err := truncateHead(ctx, m, head, budget)
		if err != nil {
			return err
		}
		d.first = len(head) - len(kept)
		d.text = string(runes[d.first:])
	} else {
		first := min(d.first, cursor)
		seg := runes[first:cursor]
		w, err := m.DisplayWidth(ctx, string(seg))
		if err != nil {
			return err
		}
		if w < budget {
			d.first = first
			d.text = string(runes[first:])
		} else {
			kept, err := truncateHead(ctx, m, seg, budget)
			if err != nil {
				return err
			}
			d.first = first + len(seg) - len(kept)
			d.text = string(kept)
		}
	}
	d.charColumn = cursor - d.first
	d.byteColumn = len(string(runes[d.first:cursor]))
	tail, err := trimTail(ctx, m, []rune(d.text), d.charColumn, budget)
	if err != nil {
		return err
	}
	d.text = string(tail)
	d.last = *buf
	return nil
}

// View returns the prompt-prefixed display.
func (d *Display) View() View {
	return View{
		Text:       d.prompt.text + d.text,
		ByteColumn: d.byteColumn + d.prompt.byteLen,
		CharColumn: d.charColumn + d.prompt.charLen,
	}
}

// First is the rune index of the first visible character.
func (d *Display) First() int { return d.first }

// trimTail drops trailing runes after keep until text fits in width.
func trimTail(ctx context.Context, m Measurer, text []rune, keep, width int) ([]rune, error) {
	for len(text) > keep {
		w, err := m.DisplayWidth(ctx, string(text))
		if err != nil {
			return nil, err
		}
		if w <= width {
			break
		}
		text = text[:len(text)-1]
	}
	return text, nil
}

// truncateHead drops leading runes until the rest is narrower than width.
func truncateHead(ctx context.Context, m Measurer, text []rune, width int) ([]rune, error) {
	for len(text) > 0 {
		w, err := m.DisplayWidth(ctx, string(text))
		if err != nil {
			return nil, err
		}
		if w < width {
			break
		}
		text = text[1:]
	}
	return text, nil
}
