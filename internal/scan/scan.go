// Package scan discovers source files under a target root, honoring
// extension filters and glob-style exclude patterns.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches slash-separated relative paths against exclude patterns.
// Patterns support `**/` recursive wildcards and single-segment `*`
// wildcards.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles the given exclude patterns. A malformed pattern is a
// configuration error and aborts before any file is touched.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether the relative path is excluded. Paths are tested
// both bare and with a leading slash so `**/name/**` patterns also cover
// top-level directories.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range m.globs {
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	return false
}

// Collect walks root and returns the relative paths of all files whose
// extension is in exts and that no exclude pattern matches, sorted for
// deterministic processing order. Unreadable entries are skipped.
func Collect(root string, exts []string, m *Matcher) ([]string, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = struct{}{}
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if info.IsDir() {
			if m.Match(rel) || m.Match(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := extSet[filepath.Ext(path)]; !ok {
			return nil
		}
		if m.Match(rel) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
