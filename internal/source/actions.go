package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ffpopup/internal/item"
	"ffpopup/internal/system"
)

// Outcome tells the driver what follows an item action.
type Outcome int

const (
	// Stay keeps the session as it is.
	Stay Outcome = iota
	// Refresh re-lists the items; the root or the input changed.
	Refresh
	// Quit ends the program.
	Quit
)

// ActionNames are the item actions offered by chooseAction.
var ActionNames = []string{"open", "narrow", "cd", "gitroot"}

// Picked returns the paths chosen with "open", in order.
func (s *Source) Picked() []string { return s.picked }

// Do runs the item action name on items.
//
//   - open records the paths and quits.
//   - narrow and cd re-root at a directory item, at the directory of a file
//     item, or at params["path"] resolved against the root.
//   - gitroot re-roots at the top of the repository holding the root.
//   - default narrows into a single directory and opens anything else.
func (s *Source) Do(ctx context.Context, name string, items []item.Item, params map[string]any) (Outcome, error) {
	switch name {
	case "default":
		if len(items) == 1 && IsDir(items[0]) {
			return s.narrow(items, params)
		}
		return s.open(items)
	case "open":
		return s.open(items)
	case "narrow", "cd":
		return s.narrow(items, params)
	case "gitroot":
		top, err := system.GitRoot(ctx, s.root)
		if err != nil {
			return Stay, fmt.Errorf("%s is not in a git repository", s.root)
		}
		return s.narrow(nil, map[string]any{"path": top})
	}
	return Stay, fmt.Errorf("unknown item action %q", name)
}

func (s *Source) open(items []item.Item) (Outcome, error) {
	for _, it := range items {
		s.picked = append(s.picked, s.Path(it))
	}
	return Quit, nil
}

func (s *Source) narrow(items []item.Item, params map[string]any) (Outcome, error) {
	var dir string
	switch p, _ := params["path"].(string); {
	case p != "":
		dir = p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(s.root, dir)
		}
	case len(items) > 0:
		dir = s.Path(items[0])
		if !IsDir(items[0]) {
			dir = filepath.Dir(dir)
		}
	default:
		return Stay, nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return Stay, err
	}
	if !fi.IsDir() {
		return Stay, fmt.Errorf("%s is not a directory", dir)
	}
	s.input = ""
	if err := s.SetRoot(dir); err != nil {
		return Stay, err
	}
	return Refresh, nil
}
