package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandReferences resolves glob patterns relative to root into a list of
// regular files. Patterns keep their order; matches within a pattern are
// sorted and duplicates across patterns are dropped. A pattern that matches
// nothing contributes nothing.
func ExpandReferences(root string, patterns []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]struct{})
	)

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(root, pattern)
		}

		matches, err := doublestar.FilepathGlob(full)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}

		slices.Sort(matches)

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}

			if _, dup := seen[m]; dup {
				continue
			}

			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	return out, nil
}

// ReadFiles loads each path into a File with embedded text.
func ReadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		files = append(files, File{Path: p, Text: string(data)})
	}

	return files, nil
}
