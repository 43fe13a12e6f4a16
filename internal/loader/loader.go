// Package loader finds TTCN-3 sources and project configuration on disk.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ttcnlang/internal/source"
)

// ConfigName is the project configuration file looked up by FindConfig.
const ConfigName = "ttcn.yaml"

var extensions = map[string]bool{".ttcn": true, ".ttcn3": true, ".ttcnpp": true}

// IsSource reports whether path names a TTCN-3 source file.
func IsSource(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Discover expands each argument into source files. Directories are
// walked recursively; files are taken as given.
func Discover(paths ...string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSource(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// Read loads a source file. The file is named relative to root when it
// lies below it.
func Read(root, path string) (*source.File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := path
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
	}
	return source.NewFile(filepath.ToSlash(name), string(b)), nil
}

// FindConfig walks from dir up to the filesystem root and returns the
// first ttcn.yaml it finds, or "" when there is none.
func FindConfig(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := abs; ; {
		p := filepath.Join(cur, ConfigName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil
		}
		cur = parent
	}
}
