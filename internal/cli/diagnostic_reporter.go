package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/toyz/frood/internal/annotations"
)

// locatedError is implemented by errors pointing at a source position
type locatedError interface {
	error
	Location() annotations.SourceLocation
	Suggestion() string
}

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a new diagnostic reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: os.Stderr}
}

// ReportWarning provides user-friendly warning reporting
func (r *DiagnosticReporter) ReportWarning(format string, args ...any) {
	color.New(color.FgYellow, color.Bold).Fprint(r.out, "! ")
	fmt.Fprintf(r.out, format+"\n", args...)
}

// ReportError lists every problem joined in err, one per line
func (r *DiagnosticReporter) ReportError(err error) {
	problems := Flatten(err)

	fmt.Fprintf(r.out, "\nERROR: Code Generation Failed (%d problems)\n", len(problems))
	fmt.Fprintf(r.out, "=============================\n\n")

	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)
	for _, p := range problems {
		red.Fprint(r.out, "✗ ")
		fmt.Fprintf(r.out, "%s\n", p)

		var located locatedError
		if r.verbose && errors.As(p, &located) && located.Suggestion() != "" {
			gray.Fprintf(r.out, "    hint: %s\n", located.Suggestion())
		}
	}
	fmt.Fprintln(r.out)
}

// Flatten expands errors joined with errors.Join into their leaves
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, Flatten(e)...)
	}
	return out
}

// SetOutput redirects the reports
func (r *DiagnosticReporter) SetOutput(w io.Writer) {
	r.out = w
}
