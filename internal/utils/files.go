package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SafeWriteFile writes data to a temp file and atomically renames it into
// place, creating the parent directory when needed.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// UniquePath returns dir/base+suffix, or dir/base__N+suffix with the first
// N >= 2 that does not exist yet. Stat errors other than "not exist" (dir is
// a file, permission denied) are returned.
func UniquePath(dir, base, suffix string) (string, error) {
	out := filepath.Join(dir, base+suffix)
	for idx := 2; ; idx++ {
		_, err := os.Stat(out)
		if os.IsNotExist(err) {
			return out, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %s: %w", out, err)
		}
		out = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, suffix))
	}
}

// ExpandGlobs expands each pattern, keeping literal paths that exist when a
// pattern has no matches. The result is sorted and free of duplicates.
func ExpandGlobs(patterns []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range patterns {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}
