// Package store persists the list of reload files between CLI runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReloadList is a JSON array of absolute source paths kept at Path.
type ReloadList struct {
	Path string
}

// Normalize trims, drops empties, deduplicates and sorts paths.
func Normalize(in []string) []string {
	m := map[string]struct{}{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		m[s] = struct{}{}
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load reads the list. A missing file yields an empty list.
func (l ReloadList) Load() ([]string, error) {
	b, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path, err)
	}
	return Normalize(arr), nil
}

// Save writes the normalized list, creating parent directories.
func (l ReloadList) Save(paths []string) error {
	if strings.TrimSpace(l.Path) == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(Normalize(paths), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.Path, b, 0o644)
}

// Add resolves files to absolute paths, checks they exist and adds them.
// It reports which were new and which were already listed.
func (l ReloadList) Add(files []string) (added, existed []string, err error) {
	cur, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	set := toSet(cur)
	for _, f := range files {
		abs, err := filepath.Abs(strings.TrimSpace(f))
		if err != nil {
			return nil, nil, err
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return nil, nil, err
		}
		if fi.IsDir() {
			return nil, nil, fmt.Errorf("%s is a directory", abs)
		}
		if set[abs] {
			existed = append(existed, abs)
			continue
		}
		set[abs] = true
		added = append(added, abs)
	}
	if err := l.Save(keys(set)); err != nil {
		return nil, nil, err
	}
	sort.Strings(added)
	sort.Strings(existed)
	return added, existed, nil
}

// Remove drops files from the list. Relative paths are resolved first.
func (l ReloadList) Remove(files []string) (removed, missing []string, err error) {
	cur, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	set := toSet(cur)
	for _, f := range files {
		abs, err := filepath.Abs(strings.TrimSpace(f))
		if err != nil {
			return nil, nil, err
		}
		if set[abs] {
			delete(set, abs)
			removed = append(removed, abs)
		} else {
			missing = append(missing, abs)
		}
	}
	if err := l.Save(keys(set)); err != nil {
		return nil, nil, err
	}
	sort.Strings(removed)
	sort.Strings(missing)
	return removed, missing, nil
}

// Clear empties the list.
func (l ReloadList) Clear() error {
	return l.Save(nil)
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
