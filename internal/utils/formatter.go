package utils

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"golang.org/x/tools/imports"
)

// FormatGoCode formats generated source the way goimports does. filename is used to
// resolve sibling imports and in error messages.
func FormatGoCode(filename string, source []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, source, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		if parseErr := ValidateGoCode(source); parseErr != nil {
			return nil, fmt.Errorf("invalid Go syntax in %s: %w", filename, parseErr)
		}
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}
	return formatted, nil
}

// FormatAndWriteGoFile formats source and writes it to filename
func FormatAndWriteGoFile(filename string, source []byte) error {
	formatted, err := FormatGoCode(filename, source)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, formatted, 0o644)
}

// ValidateGoCode checks if the provided code is valid Go syntax
func ValidateGoCode(source []byte) error {
	_, err := parser.ParseFile(token.NewFileSet(), "", source, parser.ParseComments)
	return err
}
