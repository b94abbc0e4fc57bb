// Package linebuf holds the editable single-line text behind the filter
// popup: the buffer itself, a width-bounded view of it, and undo history.
//
// Columns counted in "chars" are rune indexes. Byte columns are what the
// host addresses text by.
package linebuf

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Matcher evaluates a host pattern against a string.
type Matcher interface {
	MatchStrPos(ctx context.Context, text, pattern string) (start, end int, err error)
}

// CursorAnchor is the pattern token standing for the cursor position.
const CursorAnchor = `\%#`

// Patterns used by the built-in delete actions.
const (
	PatternChar = `.\%#`
	PatternWord = `\w\+\s*\%#`
)

// LineBuffer is text plus a cursor column in runes.
type LineBuffer struct {
	Text       string
	CharColumn int
}

// Clone returns a copy of b.
func (b *LineBuffer) Clone() *LineBuffer {
	c := *b
	return &c
}

func (b *LineBuffer) runeLen() int { return utf8.RuneCountInString(b.Text) }

// split returns the text before and after the cursor.
func (b *LineBuffer) split() (string, string) {
	off := runeOffset(b.Text, b.CharColumn)
	return b.Text[:off], b.Text[off:]
}

// ByteColumn is the byte offset of the cursor.
func (b *LineBuffer) ByteColumn() int {
	return runeOffset(b.Text, b.CharColumn)
}

// Insert puts s at the cursor count1 times and moves the cursor past it.
func (b *LineBuffer) Insert(s string, count1 int) {
	if count1 < 1 {
		count1 = 1
	}
	str := strings.Repeat(s, count1)
	pre, post := b.split()
	b.Text = pre + str + post
	b.CharColumn += utf8.RuneCountInString(str)
}

// DeleteToHead removes everything before the cursor.
func (b *LineBuffer) DeleteToHead() {
	_, post := b.split()
	b.Text = post
	b.CharColumn = 0
}

// MoveForward advances the cursor by one rune.
func (b *LineBuffer) MoveForward() {
	if b.CharColumn < b.runeLen() {
		b.CharColumn++
	}
}

// MoveBackward moves the cursor back by one rune.
func (b *LineBuffer) MoveBackward() {
	if b.CharColumn > 0 {
		b.CharColumn--
	}
}

func (b *LineBuffer) MoveToHead() { b.CharColumn = 0 }

func (b *LineBuffer) MoveToTail() { b.CharColumn = b.runeLen() }

// DeleteByPattern removes the match of pattern count1 times. Occurrences of
// CursorAnchor in pattern are replaced by a byte column anchor at the
// current cursor before each attempt; a repetition without a match is
// skipped.
func (b *LineBuffer) DeleteByPattern(ctx context.Context, m Matcher, pattern string, count1 int) error {
	if count1 < 1 {
		count1 = 1
	}
	elems := splitAnchor(pattern)
	for range count1 {
		p := strings.Join(elems, `\%`+strconv.Itoa(b.ByteColumn()+1)+`c`)
		s, e, err := m.MatchStrPos(ctx, b.Text, p)
		if err != nil {
			return fmt.Errorf("match %q: %w", p, err)
		}
		if s < 0 {
			continue
		}
		if e < s || e > len(b.Text) {
			return fmt.Errorf("match %q: range %d-%d out of bounds", p, s, e)
		}
		pre := b.Text[:s]
		b.Text = pre + b.Text[e:]
		b.CharColumn = utf8.RuneCountInString(pre)
	}
	return nil
}

// splitAnchor splits p on every CursorAnchor not itself escaped.
func splitAnchor(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); {
		if p[i] != '\\' {
			i++
			continue
		}
		if strings.HasPrefix(p[i:], CursorAnchor) {
			out = append(out, p[start:i])
			i += len(CursorAnchor)
			start = i
			continue
		}
		i += 2
	}
	return append(out, p[start:])
}

// runeOffset returns the byte offset of the n-th rune of s, clamped to len(s).
func runeOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
