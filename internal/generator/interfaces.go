package generator

import "github.com/toyz/frood/internal/parser"

// CodeGenerator renders and writes the controller registry of a parsed package
type CodeGenerator interface {
	Render(pkg *parser.Package) ([]byte, error)
	Generate(pkg *parser.Package) (*GeneratedFile, error)
}

var _ CodeGenerator = (*Generator)(nil)
