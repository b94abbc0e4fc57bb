// Package pattern evaluates the subset of Vim's magic regular expression
// syntax used by filter key mappings and preview jumps.
//
// Patterns are translated to regexp2 syntax. regexp2 backtracks like Vim's
// engine and supports lookbehind, which is how byte column anchors (\%23c)
// are expressed.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ErrUnsupported is returned for Vim pattern items without a translation.
var ErrUnsupported = errors.New("unsupported pattern item")

// MatchTimeout bounds a single match.
const MatchTimeout = 250 * time.Millisecond

// Pattern is a compiled Vim pattern.
type Pattern struct {
	src   string
	segs  []string // translated pieces around column anchors
	cols  []int    // 1-based byte columns, len(segs)-1 of them
	fixed *regexp2.Regexp
	cache *exprCache
}

// Compile translates a Vim pattern.
func Compile(src string) (*Pattern, error) {
	return compile(src, newExprCache())
}

func compile(src string, c *exprCache) (*Pattern, error) {
	segs, cols, err := translate(src)
	if err != nil {
		return nil, err
	}
	p := &Pattern{src: src, segs: segs, cols: cols, cache: c}
	if len(cols) == 0 {
		if p.fixed, err = c.get(segs[0]); err != nil {
			return nil, fmt.Errorf("compile %q: %w", src, err)
		}
	}
	return p, nil
}

func (p *Pattern) String() string { return p.src }

// FindIndex returns the byte range of the leftmost match in text, or
// (-1, -1).
func (p *Pattern) FindIndex(text string) (int, int, error) {
	re := p.fixed
	if re == nil {
		var b strings.Builder
		for i, seg := range p.segs {
			b.WriteString(seg)
			if i < len(p.cols) {
				b.WriteString(columnAssertion(text, p.cols[i]))
			}
		}
		var err error
		if re, err = p.cache.get(b.String()); err != nil {
			return -1, -1, fmt.Errorf("compile %q: %w", p.src, err)
		}
	}
	m, err := re.FindStringMatch(text)
	if err != nil {
		return -1, -1, fmt.Errorf("match %q: %w", p.src, err)
	}
	if m == nil {
		return -1, -1, nil
	}
	start := byteOffset(text, m.Index)
	end := start + byteOffset(text[start:], m.Length)
	return start, end, nil
}

// MatchString reports whether text contains a match.
func (p *Pattern) MatchString(text string) (bool, error) {
	s, _, err := p.FindIndex(text)
	return s >= 0, err
}

// columnAssertion is a zero-width assertion that holds only at byte column
// col of text. regexp2 counts runes, so the column is converted first.
func columnAssertion(text string, col int) string {
	off := col - 1
	if off < 0 || off > len(text) || (off < len(text) && !utf8.RuneStart(text[off])) {
		return `(?!)`
	}
	return `(?<=^[\s\S]{` + strconv.Itoa(utf8.RuneCountInString(text[:off])) + `})`
}

// byteOffset converts a rune count from the start of s to bytes.
func byteOffset(s string, runes int) int {
	n := 0
	for off := range s {
		if n == runes {
			return off
		}
		n++
	}
	return len(s)
}

var classes = map[byte]string{
	's': `\s`, 'S': `\S`,
	'd': `\d`, 'D': `\D`,
	'w': `[0-9A-Za-z_]`, 'W': `[^0-9A-Za-z_]`,
	'a': `[A-Za-z]`, 'A': `[^A-Za-z]`,
	'l': `[a-z]`, 'L': `[^a-z]`,
	'u': `[A-Z]`, 'U': `[^A-Z]`,
	'x': `[0-9A-Fa-f]`, 'X': `[^0-9A-Fa-f]`,
	'h': `[A-Za-z_]`, 'H': `[^A-Za-z_]`,
	'n': `\n`, 't': `\t`, 'e': `\x1b`, 'r': `\r`,
}

// translate rewrites magic Vim syntax, splitting the result at column
// anchors.
func translate(src string) ([]string, []int, error) {
	var (
		segs []string
		cols []int
		b    strings.Builder
	)
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '+', '?', '(', ')', '|', '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '[':
			end := bracketEnd(src, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(src[i : end+1])
			i = end
		case '\\':
			if i+1 >= len(src) {
				b.WriteString(`\\`)
				continue
			}
			i++
			n := src[i]
			switch n {
			case '+', '?', '(', ')', '|':
				b.WriteByte(n)
			case '=':
				b.WriteByte('?')
			case '<', '>':
				b.WriteString(`\b`)
			case '{':
				end := strings.IndexByte(src[i:], '}')
				if end < 0 {
					return nil, nil, fmt.Errorf("%w: unterminated \\{ in %q", ErrUnsupported, src)
				}
				body := strings.TrimSuffix(src[i+1:i+end], `\`)
				i += end
				b.WriteString(braces(body))
			case '%':
				if i+1 < len(src) && src[i+1] == '(' {
					b.WriteString("(?:")
					i++
					continue
				}
				j := i + 1
				for j < len(src) && src[j] >= '0' && src[j] <= '9' {
					j++
				}
				if j == i+1 || j >= len(src) || src[j] != 'c' {
					return nil, nil, fmt.Errorf("%w: \\%% item in %q", ErrUnsupported, src)
				}
				col, _ := strconv.Atoi(src[i+1 : j])
				segs = append(segs, b.String())
				cols = append(cols, col)
				b.Reset()
				i = j
			case 'c':
				b.WriteString("(?i)")
			case 'C':
			case '.', '*', '[', ']', '^', '$', '\\', '/', '~':
				b.WriteByte('\\')
				b.WriteByte(n)
			default:
				cls, ok := classes[n]
				if !ok {
					return nil, nil, fmt.Errorf("%w: \\%c in %q", ErrUnsupported, n, src)
				}
				b.WriteString(cls)
			}
		default:
			b.WriteByte(c)
		}
	}
	return append(segs, b.String()), cols, nil
}

// braces translates the body of \{...}.
func braces(body string) string {
	lazy := strings.HasPrefix(body, "-")
	body = strings.TrimPrefix(body, "-")
	var q string
	switch {
	case body == "" || body == ",":
		q = "*"
	case strings.HasPrefix(body, ","):
		q = "{0" + body + "}"
	default:
		q = "{" + body + "}"
	}
	if lazy {
		q += "?"
	}
	return q
}

// bracketEnd returns the index of the ] closing the collection at i.
func bracketEnd(src string, i int) int {
	j := i + 1
	if j < len(src) && src[j] == '^' {
		j++
	}
	if j < len(src) && src[j] == ']' {
		j++
	}
	for ; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}
	return -1
}

type exprCache struct {
	mu sync.Mutex
	m  map[string]*regexp2.Regexp
}

func newExprCache() *exprCache { return &exprCache{m: map[string]*regexp2.Regexp{}} }

func (c *exprCache) get(expr string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.m[expr]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MatchTimeout
	c.m[expr] = re
	return re, nil
}

// Cache memoizes compiled patterns.
type Cache struct {
	mu    sync.Mutex
	m     map[string]*Pattern
	exprs *exprCache
}

func NewCache() *Cache {
	return &Cache{m: map[string]*Pattern{}, exprs: newExprCache()}
}

func (c *Cache) Get(src string) (*Pattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.m[src]; ok {
		return p, nil
	}
	p, err := compile(src, c.exprs)
	if err != nil {
		return nil, err
	}
	c.m[src] = p
	return p, nil
}

// MatchStrPos compiles src through the cache and returns the first match.
func (c *Cache) MatchStrPos(text, src string) (int, int, error) {
	p, err := c.Get(src)
	if err != nil {
		return -1, -1, err
	}
	return p.FindIndex(text)
}

// Search returns the 1-based index of the first line matching src, or 0.
func (c *Cache) Search(lines []string, src string) (int, error) {
	p, err := c.Get(src)
	if err != nil {
		return 0, err
	}
	for i, l := range lines {
		ok, err := p.MatchString(l)
		if err != nil {
			return 0, err
		}
		if ok {
			return i + 1, nil
		}
	}
	return 0, nil
}
