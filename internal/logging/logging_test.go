package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{input: "", expected: slog.LevelInfo},
		{input: "DEBUG", expected: slog.LevelDebug},
		{input: "warning", expected: slog.LevelWarn},
		{input: " error ", expected: slog.LevelError},
		{input: "loud", expected: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNew_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := New(Config{Format: "json", Level: "warn"}, &buf)
		require.NoError(t, err)
		defer closer.Close()

		logger.Info("dropped")
		logger.Warn("kept", "module", "cruisecontrol")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "kept", record["msg"])
		assert.Equal(t, "cruisecontrol", record["module"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, _, err := New(Config{}, &buf)
		require.NoError(t, err)

		logger.Info("dispatched", "action", "index")
		assert.Contains(t, buf.String(), "msg=dispatched action=index")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := New(Config{Format: "xml"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "frood.log")

	var buf bytes.Buffer
	logger, closer, err := New(Config{Format: "json", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to both"`)
	assert.Equal(t, buf.String(), string(data))
}
