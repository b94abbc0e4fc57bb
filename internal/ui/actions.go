package ui

import (
	"context"
	"strings"

	"ffpopup/internal/item"
)

// ActionFlags tell the caller what to do after an action ran.
type ActionFlags uint8

const (
	FlagNone         ActionFlags = 0
	FlagRefreshItems ActionFlags = 1
	FlagRedraw       ActionFlags = 2
	FlagPersist      ActionFlags = 4
)

func (f ActionFlags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	if f&FlagRefreshItems != 0 {
		parts = append(parts, "refreshItems")
	}
	if f&FlagRedraw != 0 {
		parts = append(parts, "redraw")
	}
	if f&FlagPersist != 0 {
		parts = append(parts, "persist")
	}
	return strings.Join(parts, "|")
}

// Params are the loosely typed parameters of one action call, as decoded
// from a key mapping or a host request.
type Params map[string]any

// Action is one named UI action.
type Action func(ctx context.Context, p Params) (ActionFlags, error)

// Count1 is the repeat count, at least 1.
func (p Params) Count1() int {
	if n, ok := p.Int("count1"); ok && n > 0 {
		return n
	}
	return 1
}

func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Items returns the explicit item list of an itemAction call.
func (p Params) Items() ([]item.Item, bool) {
	items, ok := p["items"].([]item.Item)
	return items, ok
}

// Map returns a nested parameter object, or an empty one.
func (p Params) Map(key string) map[string]any {
	if m, ok := p[key].(map[string]any); ok {
		return m
	}
	if m, ok := p[key].(Params); ok {
		return m
	}
	return map[string]any{}
}
