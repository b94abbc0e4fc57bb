// Package store persists the list of recently opened paths.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultLimit bounds the history length.
const DefaultLimit = 200

// normalize trims entries and drops blanks and later duplicates, keeping the
// order.
func normalize(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Load reads the history at path, most recent first. A missing file yields
// an empty list without error.
func Load(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return nil, err
	}
	return normalize(arr), nil
}

// Save writes list to path as a JSON array, creating parent dirs.
func Save(path string, list []string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(normalize(list), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Add moves paths to the front of the history at path and cuts the list to
// limit entries. The last of paths becomes the newest entry.
func Add(path string, paths []string, limit int) error {
	if len(paths) == 0 {
		return nil
	}
	cur, err := Load(path)
	if err != nil {
		return err
	}
	front := slices.Clone(paths)
	slices.Reverse(front)
	next := normalize(append(front, cur...))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(next) > limit {
		next = next[:limit]
	}
	return Save(path, next)
}

// Remove deletes entries from the history at path. It returns the entries
// that were removed and those that were not present.
func Remove(path string, entries []string) (removed, missing []string, err error) {
	cur, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range normalize(entries) {
		if i := slices.Index(cur, s); i >= 0 {
			cur = slices.Delete(cur, i, i+1)
			removed = append(removed, s)
		} else {
			missing = append(missing, s)
		}
	}
	if err := Save(path, cur); err != nil {
		return nil, nil, err
	}
	return removed, missing, nil
}
