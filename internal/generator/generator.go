// Package generator turns parsed controller packages into frood_registry.go files.
package generator

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/toyz/frood/internal/parser"
	"github.com/toyz/frood/internal/templates"
	"github.com/toyz/frood/internal/utils"
	"github.com/toyz/frood/pkg/frood"
)

// ErrNoControllers is returned for packages without annotated controllers
var ErrNoControllers = errors.New("package has no annotated controllers")

// typeConstants maps parameter types to the constants naming them in generated code
var typeConstants = map[frood.Type]string{
	frood.TypeNone:         "TypeNone",
	frood.TypeInteger:      "TypeInteger",
	frood.TypeFloat:        "TypeFloat",
	frood.TypeString:       "TypeString",
	frood.TypeArray:        "TypeArray",
	frood.TypeBoolean:      "TypeBoolean",
	frood.TypeISO88591:     "TypeISO88591",
	frood.TypeUTF8:         "TypeUTF8",
	frood.TypeJSON:         "TypeJSON",
	frood.TypeFile:         "TypeFile",
	frood.TypeUUID:         "TypeUUID",
	frood.TypeBooleanArray: "TypeBooleanArray",
	frood.TypeIntegerArray: "TypeIntegerArray",
	frood.TypeStringArray:  "TypeStringArray",
	frood.TypeFloatArray:   "TypeFloatArray",
}

// reserved names the generated function already uses
var reserved = map[string]bool{"reg": true, "frood": true}

// GeneratedFile describes one written registry file
type GeneratedFile struct {
	Path        string
	Package     string
	Controllers int
	Actions     int
}

// Generator renders registry files
type Generator struct{}

// NewGenerator creates a new code generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// Render returns the formatted registry source of pkg
func (g *Generator) Render(pkg *parser.Package) ([]byte, error) {
	if pkg == nil {
		return nil, fmt.Errorf("package cannot be nil")
	}
	if len(pkg.Controllers) == 0 {
		return nil, fmt.Errorf("%s: %w", pkg.Dir, ErrNoControllers)
	}

	src, err := templates.RenderRegistry(BuildRegistryData(pkg))
	if err != nil {
		return nil, err
	}
	return utils.FormatGoCode(filepath.Join(pkg.Dir, parser.GeneratedFile), src)
}

// Generate renders the registry of pkg and writes it next to its sources
func (g *Generator) Generate(pkg *parser.Package) (*GeneratedFile, error) {
	src, err := g.Render(pkg)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(pkg.Dir, parser.GeneratedFile)
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return &GeneratedFile{
		Path:        path,
		Package:     pkg.Name,
		Controllers: len(pkg.Controllers),
		Actions:     pkg.ActionCount(),
	}, nil
}

// Clean removes the registry file of dir. It reports whether a file was removed.
func Clean(dir string) (bool, error) {
	err := os.Remove(filepath.Join(dir, parser.GeneratedFile))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// BuildRegistryData converts a parsed package into the registry template input
func BuildRegistryData(pkg *parser.Package) templates.RegistryData {
	data := templates.RegistryData{
		Package:    pkg.Name,
		ImportPath: pkg.ImportPath,
	}

	for _, c := range pkg.Controllers {
		typ := c.TypeName
		if c.Pointer {
			typ = "*" + typ
		}
		cd := templates.ControllerData{
			Module:    c.Module,
			SubModule: c.SubModule,
			Name:      c.Name,
			TypeName:  c.TypeName,
			Var:       VarName(c.TypeName),
			Type:      typ,
			Init:      c.Init,
		}
		for _, a := range c.Actions {
			ad := templates.ActionData{Name: a.Name, Method: a.Method}
			for _, p := range a.Params {
				ad.Params = append(ad.Params, ParamExpr(p.Spec))
			}
			cd.Actions = append(cd.Actions, ad)
		}
		data.Controllers = append(data.Controllers, cd)
	}
	return data
}

// VarName derives the parameter name a controller instance is passed as
func VarName(typeName string) string {
	r, size := utf8.DecodeRuneInString(typeName)
	name := string(unicode.ToLower(r)) + typeName[size:]
	if token.IsKeyword(name) || reserved[name] {
		name += "Controller"
	}
	return name
}

// ParamExpr renders the frood.Required/frood.Optional call declaring spec
func ParamExpr(spec frood.ParamSpec) string {
	typ := "frood." + typeConstants[spec.Type]
	if _, ok := typeConstants[spec.Type]; !ok {
		typ = "frood.Type(" + strconv.Quote(string(spec.Type)) + ")"
	}

	if !spec.HasDefault {
		return fmt.Sprintf("frood.Required(%s, %s)", strconv.Quote(spec.Name), typ)
	}
	def := "nil"
	if spec.Default != nil {
		def = strconv.Quote(fmt.Sprint(spec.Default))
	}
	return fmt.Sprintf("frood.Optional(%s, %s, %s)", strconv.Quote(spec.Name), typ, def)
}
