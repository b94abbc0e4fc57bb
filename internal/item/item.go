package item

import "reflect"

// Highlight is a byte-addressed highlight span inside an item's display text.
type Highlight struct {
	Name    string `json:"name"`
	HlGroup string `json:"hl_group"`
	Col     int    `json:"col"` // 1-based byte column
	Width   int    `json:"width"`
}

// Item is one entry of the lister. Tree fields are maintained by the item
// source; the lister only reads them.
type Item struct {
	Word        string         `json:"word"`
	Display     string         `json:"display,omitempty"`
	Highlights  []Highlight    `json:"highlights,omitempty"`
	Action      map[string]any `json:"action,omitempty"`
	TreePath    []string       `json:"treePath,omitempty"`
	IsTree      bool           `json:"isTree,omitempty"`
	SourceIndex int            `json:"sourceIndex"`
	Level       int            `json:"level"`
	Expanded    bool           `json:"expanded,omitempty"`
}

// Text returns the string the lister shows for the item.
func (it Item) Text() string {
	if it.Display != "" {
		return it.Display
	}
	return it.Word
}

// SameNode reports whether a and b denote the same tree node. Identity is the
// pair (tree path, source index); content fields are ignored.
func SameNode(a, b Item) bool {
	if a.SourceIndex != b.SourceIndex || len(a.TreePath) != len(b.TreePath) {
		return false
	}
	for i := range a.TreePath {
		if a.TreePath[i] != b.TreePath[i] {
			return false
		}
	}
	return true
}

// Equal reports deep equality of two items.
func Equal(a, b Item) bool {
	return reflect.DeepEqual(a, b)
}
