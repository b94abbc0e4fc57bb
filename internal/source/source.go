// Package source gathers file items for the picker: it walks a directory,
// filters the result against the input, keeps the tree expansion state and
// answers item actions.
package source

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"ffpopup/internal/item"
	"ffpopup/internal/system"
)

// DefaultMaxEntries bounds a walk.
const DefaultMaxEntries = 50000

// FuzzyHighlight names the spans of matched characters.
const FuzzyHighlight = "ffpopup-fuzzy"

// Options configure a Source.
type Options struct {
	Root string
	// Tree lists the root as a tree when the input is empty.
	Tree       bool
	MaxEntries int
	// Highlight is the group of matched characters.
	Highlight string
}

type entry struct {
	rel string
	dir bool
}

// Source is not safe for concurrent use.
type Source struct {
	opts  Options
	root  string
	input string

	entries  []entry
	children map[string][]entry
	expanded map[string]bool
	picked   []string
}

// New walks opts.Root.
func New(opts Options) (*Source, error) {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Highlight == "" {
		opts.Highlight = "Special"
	}
	s := &Source{opts: opts}
	return s, s.SetRoot(opts.Root)
}

// Root is the absolute directory being listed.
func (s *Source) Root() string { return s.root }

// Input is the current filter text.
func (s *Source) Input() string { return s.input }

// SetInput changes the filter text.
func (s *Source) SetInput(input string) { s.input = input }

// SetRoot re-roots the source and walks the new directory. The expansion
// state is reset.
func (s *Source) SetRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	s.root = abs
	s.expanded = map[string]bool{}
	return s.Gather()
}

// Gather walks the root again. Expanded directories that still exist stay
// expanded.
func (s *Source) Gather() error {
	var entries []entry
	children := map[string][]entry{}
	errStop := errors.New("stop")
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			system.Logger.Debug("walk", "path", p, "err", err)
			return nil
		}
		if p == s.root {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if len(entries) >= s.opts.MaxEntries {
			return errStop
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		e := entry{rel: filepath.ToSlash(rel), dir: d.IsDir()}
		entries = append(entries, e)
		parent := path.Dir(e.rel)
		if parent == "." {
			parent = ""
		}
		children[parent] = append(children[parent], e)
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	s.entries, s.children = entries, children
	for rel := range s.expanded {
		if _, ok := children[rel]; !ok && !s.isDir(rel) {
			delete(s.expanded, rel)
		}
	}
	system.Logger.Debug("gathered", "root", s.root, "entries", len(entries))
	return nil
}

func (s *Source) isDir(rel string) bool {
	i := slices.IndexFunc(s.entries, func(e entry) bool { return e.rel == rel })
	return i >= 0 && s.entries[i].dir
}

// Path returns the absolute path of an item.
func (s *Source) Path(it item.Item) string {
	if p, ok := it.Action["path"].(string); ok {
		return p
	}
	return filepath.Join(s.root, filepath.FromSlash(it.Word))
}

// IsDir reports whether the item is a directory.
func IsDir(it item.Item) bool {
	d, _ := it.Action["isDirectory"].(bool)
	return d
}

func (s *Source) newItem(e entry, level int) item.Item {
	it := item.Item{
		Word:     e.rel,
		TreePath: strings.Split(e.rel, "/"),
		IsTree:   e.dir,
		Level:    level,
		Action: map[string]any{
			"path":        filepath.Join(s.root, filepath.FromSlash(e.rel)),
			"isDirectory": e.dir,
		},
	}
	if e.dir {
		it.Display = e.rel + "/"
	}
	return it
}

// Items lists the entries for the current input. A non-empty input gives
// the flat fuzzy matches, best first; otherwise the tree (or the flat walk).
func (s *Source) Items() []item.Item {
	if s.input != "" {
		return s.matches()
	}
	if !s.opts.Tree {
		out := make([]item.Item, 0, len(s.entries))
		for _, e := range s.entries {
			out = append(out, s.newItem(e, 0))
		}
		return out
	}
	var out []item.Item
	s.appendTree(&out, "", 0)
	return out
}

// appendTree lists the children of dir at level, descending into expanded
// directories.
func (s *Source) appendTree(out *[]item.Item, dir string, level int) {
	for _, e := range s.children[dir] {
		it := s.treeItem(e, level)
		it.Expanded = e.dir && s.expanded[e.rel]
		*out = append(*out, it)
		if it.Expanded {
			s.appendTree(out, e.rel, level+1)
		}
	}
}

func (s *Source) treeItem(e entry, level int) item.Item {
	it := s.newItem(e, level)
	it.Display = path.Base(e.rel)
	if e.dir {
		it.Display += "/"
	}
	return it
}

func (s *Source) matches() []item.Item {
	words := make([]string, len(s.entries))
	for i, e := range s.entries {
		words[i] = e.rel
	}
	found := fuzzy.Find(s.input, words)
	out := make([]item.Item, 0, len(found))
	for _, m := range found {
		it := s.newItem(s.entries[m.Index], 0)
		it.Highlights = s.spans(m.Str, m.MatchedIndexes)
		out = append(out, it)
	}
	return out
}

// spans turns the matched byte offsets of str into highlights one rune
// wide, merging neighbours.
func (s *Source) spans(str string, offsets []int) []item.Highlight {
	var out []item.Highlight
	for _, b := range offsets {
		if b < 0 || b >= len(str) {
			continue
		}
		_, w := utf8.DecodeRuneInString(str[b:])
		if n := len(out); n > 0 && out[n-1].Col-1+out[n-1].Width == b {
			out[n-1].Width += w
			continue
		}
		out = append(out, item.Highlight{Name: FuzzyHighlight, HlGroup: s.opts.Highlight, Col: b + 1, Width: w})
	}
	return out
}

// Expand returns the items to splice under parent and marks it expanded.
// maxLevel > 0 also expands that many levels of subdirectories. With
// isGrouped a chain of single-directory children is folded into one item;
// grouped reports that the result replaces parent.
func (s *Source) Expand(parent item.Item, maxLevel int, isGrouped bool) (children []item.Item, grouped bool) {
	if !IsDir(parent) {
		return nil, false
	}
	rel := parent.Word
	if isGrouped {
		chain := rel
		for {
			kids := s.children[chain]
			if len(kids) != 1 || !kids[0].dir {
				break
			}
			s.expanded[chain] = true
			chain = kids[0].rel
		}
		if chain != rel {
			it := s.treeItem(entry{rel: chain, dir: true}, parent.Level)
			it.Display = strings.TrimPrefix(chain, path.Dir(rel)+"/") + "/"
			if path.Dir(rel) == "." {
				it.Display = chain + "/"
			}
			return []item.Item{it}, true
		}
	}
	s.expanded[rel] = true
	s.markExpanded(rel, maxLevel)
	var out []item.Item
	s.appendTree(&out, rel, parent.Level+1)
	return out, false
}

func (s *Source) markExpanded(dir string, levels int) {
	if levels <= 0 {
		return
	}
	for _, e := range s.children[dir] {
		if e.dir {
			s.expanded[e.rel] = true
			s.markExpanded(e.rel, levels-1)
		}
	}
}

// Collapse forgets the expansion of it and everything below it and returns
// it collapsed.
func (s *Source) Collapse(it item.Item) item.Item {
	prefix := it.Word + "/"
	for rel := range s.expanded {
		if rel == it.Word || strings.HasPrefix(rel, prefix) {
			delete(s.expanded, rel)
		}
	}
	it.Expanded = false
	return it
}

// Expanded returns it marked expanded.
func Expanded(it item.Item) item.Item {
	it.Expanded = true
	return it
}
