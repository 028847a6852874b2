package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// ModuleResolver resolves Go import paths for directories of the enclosing module
type ModuleResolver struct {
	custom string
	roots  map[string]module
}

type module struct {
	path string
	dir  string
}

// NewModuleResolver creates a resolver. A non-empty custom module path replaces the
// path declared in go.mod.
func NewModuleResolver(custom string) *ModuleResolver {
	return &ModuleResolver{custom: custom, roots: make(map[string]module)}
}

// ParseModuleName extracts the module path from a go.mod file
func ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.Parse(cleanPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in go.mod")
	}

	return modFile.Module.Mod.Path, nil
}

// FindGoModFile searches for go.mod starting from the given directory and walking up
func FindGoModFile(startDir string) (string, error) {
	currentDir := filepath.Clean(startDir)

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found above %s", startDir)
}

// ImportPath returns the import path of the package in dir
func (r *ModuleResolver) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	mod, err := r.moduleFor(abs)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(mod.dir, abs)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return mod.path, nil
	}
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", dir, mod.path)
	}
	return mod.path + "/" + rel, nil
}

func (r *ModuleResolver) moduleFor(dir string) (module, error) {
	goMod, err := FindGoModFile(dir)
	if err != nil {
		return module{}, err
	}
	if mod, ok := r.roots[goMod]; ok {
		return mod, nil
	}

	path := r.custom
	if path == "" {
		if path, err = ParseModuleName(goMod); err != nil {
			return module{}, err
		}
	}
	mod := module{path: path, dir: filepath.Dir(goMod)}
	r.roots[goMod] = mod
	return mod, nil
}
