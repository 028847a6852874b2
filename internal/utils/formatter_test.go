package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGoCode(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
		wantErr  string
	}{
		{
			name:     "reindents",
			source:   "package x\nfunc F() {\nreturn\n}\n",
			expected: "package x\n\nfunc F() {\n\treturn\n}\n",
		},
		{
			name:    "syntax error",
			source:  "package x\nfunc F( {\n",
			wantErr: "invalid Go syntax in x.go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FormatGoCode("x.go", []byte(tt.source))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestFormatAndWriteGoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.go")
	require.NoError(t, FormatAndWriteGoFile(path, []byte("package gen\nvar X=1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package gen\n\nvar X = 1\n", string(data))

	assert.Error(t, FormatAndWriteGoFile(path, []byte("package gen\nvar\n")))
}
