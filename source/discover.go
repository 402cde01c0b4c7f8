package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs are directory names never descended into during discovery.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor",
	"dist", "build", "out", "coverage",
	".next", ".turbo", ".cache",
}

// Discoverer finds files inside an fs.FS.
type Discoverer struct {
	fsys    fs.FS
	exclude map[string]bool
}

// NewDiscoverer creates a discoverer over fsys skipping excludeDirs.
// A nil excludeDirs uses DefaultExcludeDirs.
func NewDiscoverer(fsys fs.FS, excludeDirs []string) *Discoverer {
	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}
	exclude := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		exclude[d] = true
	}
	return &Discoverer{fsys: fsys, exclude: exclude}
}

// Files returns the files below root whose extension is one of exts, sorted
// lexicographically. A missing root yields an empty result.
func (d *Discoverer) Files(root string, exts ...string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	return d.walk(root, nil, func(p string) bool {
		return len(want) == 0 || want[strings.ToLower(path.Ext(p))]
	})
}

// Dirs returns the immediate subdirectories of root matching the doublestar
// pattern, sorted. A missing root yields an empty result.
func (d *Discoverer) Dirs(root, pattern string) ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, clean(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", pattern, err)
		}
		if ok {
			dirs = append(dirs, path.Join(clean(root), e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Glob returns every file matching at least one include pattern and no
// exclude pattern. Files under skipRoots are ignored.
func (d *Discoverer) Glob(include, exclude, skipRoots []string) ([]string, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if len(include) == 0 {
		return nil, nil
	}
	return d.walk(".", skipRoots, func(p string) bool {
		if !matchAny(include, p) {
			return false
		}
		return !matchAny(exclude, p)
	})
}

func (d *Discoverer) walk(root string, skipRoots []string, keep func(string) bool) ([]string, error) {
	root = clean(root)
	if _, err := fs.Stat(d.fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	skip := make(map[string]bool, len(skipRoots))
	for _, s := range skipRoots {
		skip[clean(s)] = true
	}

	var files []string
	err := fs.WalkDir(d.fsys, root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != root && (d.exclude[entry.Name()] || skip[p]) {
				return fs.SkipDir
			}
			return nil
		}
		if keep(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// matchAny reports whether name matches any doublestar pattern.
// Patterns were validated by the caller, so match errors are ignored.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func clean(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	if p == "" || p == "/" {
		return "."
	}
	return p
}
