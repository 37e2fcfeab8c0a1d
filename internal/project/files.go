package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// SourceFiles collects every .em file under dir, sorted by path so
// downstream stages see a deterministic order. Hidden directories and
// the out/ build directory are skipped.
func SourceFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || name == "out") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".em" {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}
