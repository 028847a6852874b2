package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	"build":        true,
	"dist":         true,
}

// IsSourceFile reports whether name is a Go source file the generator reads: not a
// test and not the file it writes.
func IsSourceFile(name, generated string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		name != generated
}

// SkipDir reports whether a directory never holds scannable source
func SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	if strings.HasPrefix(name, "_") {
		return true
	}
	return skipDirs[name]
}

// ExpandDirectories resolves directory arguments to absolute package directories.
// Go-style "dir/..." patterns expand to dir and every directory below it holding Go
// files; plain directories are returned as given.
func ExpandDirectories(args []string, generated string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, arg := range args {
		base, recursive := strings.CutSuffix(arg, "/...")
		if recursive && base == "" {
			base = "."
		}

		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", base, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("scan %s: not a directory", arg)
		}

		if !recursive {
			add(abs)
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSourceFile(d.Name(), generated) {
				add(filepath.Dir(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}
