package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{name: "build.go", expected: true},
		{name: "build_test.go", expected: false},
		{name: "frood_registry.go", expected: false},
		{name: "README.md", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSourceFile(tt.name, "frood_registry.go"))
		})
	}
}

func TestExpandDirectories(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"main.go",
		"controllers/build.go",
		"controllers/admin/users.go",
		"controllers/admin/users_test.go",
		"docs/only_test.go",
		"vendor/lib/lib.go",
		".hidden/x.go",
		"_skip/y.go",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))
	}

	dirs, err := ExpandDirectories([]string{root + "/..."}, "frood_registry.go")
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "controllers"),
		filepath.Join(root, "controllers", "admin"),
	}, dirs)

	dirs, err = ExpandDirectories([]string{filepath.Join(root, "docs"), filepath.Join(root, "docs")}, "frood_registry.go")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "docs")}, dirs)

	_, err = ExpandDirectories([]string{filepath.Join(root, "missing")}, "frood_registry.go")
	assert.Error(t, err)

	_, err = ExpandDirectories([]string{filepath.Join(root, "main.go")}, "frood_registry.go")
	assert.Error(t, err)
}
