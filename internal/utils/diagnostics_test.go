package utils

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestDiagnostics(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystemTo(level, &out, &errOut)
	d.showTime = false
	return d, &out, &errOut
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    DiagnosticLevel
		expected string
		errors   string
	}{
		{name: "silent", level: DiagnosticSilent},
		{name: "errors only", level: DiagnosticError, errors: "[ERROR] broken\n"},
		{name: "info", level: DiagnosticInfo, expected: "[WARN] careful\n[INFO] hello\n", errors: "[ERROR] broken\n"},
		{
			name:     "debug",
			level:    DiagnosticDebug,
			expected: "[WARN] careful\n[INFO] hello\n[VERBOSE] details\n[DEBUG] internals\n",
			errors:   "[ERROR] broken\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out, errOut := newTestDiagnostics(tt.level)
			d.Error("broken")
			d.Warn("careful")
			d.Info("hello")
			d.Verbose("details")
			d.Debug("internals")
			assert.Equal(t, tt.expected, out.String())
			assert.Equal(t, tt.errors, errOut.String())
		})
	}
}

func TestDiagnosticSystem_Phases(t *testing.T) {
	d, out, _ := newTestDiagnostics(DiagnosticInfo)
	d.FroodHeader("Generating registries")
	d.PhaseHeader("Scanning")
	d.Indent()
	d.PhaseItem("%d controllers", 2)
	d.List("build")
	d.Unindent()
	d.Unindent()
	d.Summary("Summary", [][2]string{{"Packages", "1"}, {"Actions", "3"}})
	d.GenerationComplete()

	assert.Equal(t, "Frood: Generating registries\nScanning:\n  ✓ 2 controllers\n  - build\n\nSummary\n   Packages: 1\n   Actions: 3\n\nFrood: Generation complete!\n", out.String())
}
