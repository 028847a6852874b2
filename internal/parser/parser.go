// Package parser discovers annotated frood controllers in Go source.
package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/frood/internal/annotations"
	"github.com/toyz/frood/internal/utils"
	"github.com/toyz/frood/pkg/frood"
)

// GeneratedFile is the file the generator writes into each package
const GeneratedFile = "frood_registry.go"

// FroodImportPath is the import path of the frood runtime package
const FroodImportPath = "github.com/toyz/frood/pkg/frood"

// Param is a declared action parameter
type Param struct {
	Spec     frood.ParamSpec
	TypeName string // the type as written in the annotation
}

// Action is an annotated controller method
type Action struct {
	Name     string
	Method   string
	Params   []Param
	Location annotations.SourceLocation
}

// Controller is an annotated controller type
type Controller struct {
	TypeName  string
	Module    string
	SubModule string
	Name      string
	Pointer   bool   // the annotated methods have pointer receivers
	Init      string // method annotated with //frood::init, if any
	Actions   []Action
	Location  annotations.SourceLocation
}

// Key returns the registry key of the controller
func (c Controller) Key() string {
	return frood.ControllerKey(c.Module, c.SubModule, c.Name)
}

// Package holds the controllers of one Go package
type Package struct {
	Name        string
	Dir         string
	ImportPath  string
	Controllers []Controller
}

// ActionCount returns the number of actions over all controllers
func (p *Package) ActionCount() int {
	n := 0
	for _, c := range p.Controllers {
		n += len(c.Actions)
	}
	return n
}

// SignatureError reports an annotated method whose Go signature does not match its
// declarations
type SignatureError struct {
	Loc  annotations.SourceLocation
	Type string
	Err  *frood.SignatureMismatchError
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Type, e.Err.Error())
}

func (e *SignatureError) Unwrap() error { return e.Err }

// Location returns the position of the method
func (e *SignatureError) Location() annotations.SourceLocation { return e.Loc }

// Suggestion returns a hint on fixing the signature
func (e *SignatureError) Suggestion() string {
	return "declare one //frood::param per method parameter, in order, or take a struct with frood tags"
}

// Parser reads packages and extracts their controllers
type Parser struct {
	annotations *annotations.Parser
	resolver    *utils.ModuleResolver
}

// NewParser creates a parser. resolver may be nil, in which case import paths are left
// empty.
func NewParser(resolver *utils.ModuleResolver) *Parser {
	return &Parser{annotations: annotations.NewParser(), resolver: resolver}
}

// pending is the scan state of one package
type pending struct {
	fset        *token.FileSet
	structs     map[string]*ast.StructType
	controllers map[string]*Controller
	order       []string
	methods     []methodDecl
	errs        []error
}

type methodDecl struct {
	fn          *ast.FuncDecl
	receiver    string
	pointer     bool
	froodName   string
	contextName string
}

// ParseDirectory parses the Go files of one directory. Every problem found is
// reported, joined into the returned error, together with what could be parsed.
func (p *Parser) ParseDirectory(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	pkg := &Package{Dir: dir}
	if p.resolver != nil {
		if path, err := p.resolver.ImportPath(dir); err == nil {
			pkg.ImportPath = path
		}
	}

	st := &pending{
		fset:        token.NewFileSet(),
		structs:     make(map[string]*ast.StructType),
		controllers: make(map[string]*Controller),
	}

	for _, entry := range entries {
		if entry.IsDir() || !utils.IsSourceFile(entry.Name(), GeneratedFile) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := parser.ParseFile(st.fset, path, nil, parser.ParseComments)
		if err != nil {
			st.errs = append(st.errs, err)
			continue
		}
		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if file.Name.Name != pkg.Name {
			continue
		}
		p.collect(st, file)
	}

	for _, m := range st.methods {
		p.method(st, m)
	}

	for _, name := range st.order {
		c := st.controllers[name]
		if len(c.Actions) == 0 {
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: c.Location,
				Message: fmt.Sprintf("controller %s has no actions", c.TypeName),
				Hint:    "annotate its methods with //frood::action"})
		}
		pkg.Controllers = append(pkg.Controllers, *c)
	}
	p.checkDuplicates(st, pkg)

	return pkg, errors.Join(st.errs...)
}

func (p *Parser) collect(st *pending, file *ast.File) {
	froodName, contextName := importNames(file)

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				if s, ok := ts.Type.(*ast.StructType); ok {
					st.structs[ts.Name.Name] = s
				}
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				p.typeAnnotations(st, ts, doc)
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) != 1 || d.Doc == nil {
				continue
			}
			receiver, pointer := receiverName(d.Recv.List[0].Type)
			if receiver == "" {
				continue
			}
			st.methods = append(st.methods, methodDecl{
				fn: d, receiver: receiver, pointer: pointer,
				froodName: froodName, contextName: contextName,
			})
		}
	}
}

func (p *Parser) typeAnnotations(st *pending, ts *ast.TypeSpec, doc *ast.CommentGroup) {
	for _, a := range p.parseComments(st, doc) {
		if a.Kind != annotations.ControllerKind {
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: a.Location,
				Message: fmt.Sprintf("%s annotations belong on methods, not on type %s", a.Kind, ts.Name.Name)})
			continue
		}
		if _, exists := st.controllers[ts.Name.Name]; exists {
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: a.Location,
				Message: fmt.Sprintf("type %s has more than one controller annotation", ts.Name.Name)})
			continue
		}
		module, subModule, name := a.Controller()
		st.controllers[ts.Name.Name] = &Controller{
			TypeName:  ts.Name.Name,
			Module:    module,
			SubModule: subModule,
			Name:      name,
			Location:  a.Location,
		}
		st.order = append(st.order, ts.Name.Name)
	}
}

func (p *Parser) method(st *pending, m methodDecl) {
	found := p.parseComments(st, m.fn.Doc)
	if len(found) == 0 {
		return
	}

	loc := found[0].Location
	c, ok := st.controllers[m.receiver]
	if !ok {
		st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: loc,
			Message: fmt.Sprintf("method %s.%s is annotated but %s is not a controller", m.receiver, m.fn.Name.Name, m.receiver),
			Hint:    "annotate the type with //frood::controller"})
		return
	}
	if !m.fn.Name.IsExported() {
		st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: loc,
			Message: fmt.Sprintf("method %s.%s must be exported", m.receiver, m.fn.Name.Name)})
		return
	}
	c.Pointer = c.Pointer || m.pointer

	var action *Action
	var params []Param
	isInit := false
	for _, a := range found {
		switch a.Kind {
		case annotations.ActionKind:
			action = &Action{Name: a.ActionName(m.fn.Name.Name), Method: m.fn.Name.Name, Location: a.Location}
		case annotations.ParamKind:
			spec, _ := a.ParamSpec()
			params = append(params, Param{Spec: spec, TypeName: a.Args[0]})
		case annotations.InitKind:
			isInit = true
		case annotations.ControllerKind:
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: a.Location,
				Message: "controller annotations belong on types"})
		}
	}

	if isInit {
		if action != nil || len(params) > 0 {
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: loc,
				Message: fmt.Sprintf("%s.%s cannot be both init and action", m.receiver, m.fn.Name.Name)})
			return
		}
		if err := checkInit(m); err != nil {
			st.errs = append(st.errs, &SignatureError{Loc: loc, Type: m.receiver, Err: err})
			return
		}
		c.Init = m.fn.Name.Name
		return
	}

	if action == nil {
		st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: loc,
			Message: fmt.Sprintf("%s.%s declares parameters but no action", m.receiver, m.fn.Name.Name),
			Hint:    "add //frood::action"})
		return
	}

	action.Params = params
	if err := checkSignature(st, m, action); err != nil {
		st.errs = append(st.errs, &SignatureError{Loc: action.Location, Type: m.receiver, Err: err})
		return
	}
	c.Actions = append(c.Actions, *action)
}

func (p *Parser) parseComments(st *pending, doc *ast.CommentGroup) []*annotations.Annotation {
	if doc == nil {
		return nil
	}
	var found []*annotations.Annotation
	for _, comment := range doc.List {
		if !annotations.IsAnnotation(comment.Text) {
			continue
		}
		pos := st.fset.Position(comment.Pos())
		loc := annotations.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
		a, err := p.annotations.Parse(comment.Text, loc)
		if err != nil {
			st.errs = append(st.errs, err)
			continue
		}
		found = append(found, a)
	}
	return found
}

func (p *Parser) checkDuplicates(st *pending, pkg *Package) {
	keys := make(map[string]string)
	for _, c := range pkg.Controllers {
		if other, ok := keys[c.Key()]; ok {
			st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: c.Location,
				Message: fmt.Sprintf("%s and %s both register controller %s", other, c.TypeName, c.Key())})
			continue
		}
		keys[c.Key()] = c.TypeName

		actions := make(map[string]bool)
		for _, a := range c.Actions {
			if actions[a.Name] {
				st.errs = append(st.errs, &annotations.Error{Code: annotations.ValidationErrorCode, Loc: a.Location,
					Message: fmt.Sprintf("action %s is declared twice on %s", a.Name, c.TypeName)})
			}
			actions[a.Name] = true
		}
	}
}

// checkSignature compares the declared parameters with the method's Go parameters
// after the optional context.Context and *frood.Controller
func checkSignature(st *pending, m methodDecl, action *Action) *frood.SignatureMismatchError {
	mismatch := func(format string, args ...any) *frood.SignatureMismatchError {
		return &frood.SignatureMismatchError{Action: action.Method, Reason: fmt.Sprintf(format, args...)}
	}

	fields := m.fn.Type.Params.List
	var names []string
	var types []ast.Expr
	for _, f := range fields {
		if len(f.Names) == 0 {
			names = append(names, "")
			types = append(types, f.Type)
			continue
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
			types = append(types, f.Type)
		}
	}

	i := 0
	if i < len(types) && isSelector(types[i], m.contextName, "Context", false) {
		i++
	}
	if i < len(types) && isSelector(types[i], m.froodName, "Controller", true) {
		i++
	}
	names, types = names[i:], types[i:]

	if len(types) == 1 && isSelector(types[0], m.froodName, "Parameters", true) {
		if len(action.Params) > 0 {
			return mismatch("actions taking *frood.Parameters must not declare parameters")
		}
		return nil
	}

	if len(types) == 1 {
		if s, name := localStruct(st, types[0]); s != nil {
			if tagged := taggedFields(s); len(tagged) > 0 {
				return compareTags(mismatch, action.Params, tagged, name)
			}
		}
	}

	for _, n := range names {
		if n == "" || n == "_" {
			return mismatch("parameters must be named")
		}
	}
	return compareNames(mismatch, action.Params, names, "method takes")
}

func compareNames(mismatch func(string, ...any) *frood.SignatureMismatchError, params []Param, names []string, what string) *frood.SignatureMismatchError {
	if len(params) != len(names) {
		return mismatch("%d parameters declared, %s %d", len(params), what, len(names))
	}
	for i, p := range params {
		if frood.ToIdentifier(p.Spec.Name) != frood.ToIdentifier(names[i]) {
			return mismatch("declared parameter %d is %s, %s %s", i+1, p.Spec.Name, what, names[i])
		}
	}
	return nil
}

// compareTags checks that the tagged fields of a struct are exactly the declared
// parameters, in any order
func compareTags(mismatch func(string, ...any) *frood.SignatureMismatchError, params []Param, tags []string, name string) *frood.SignatureMismatchError {
	if len(params) != len(tags) {
		return mismatch("%d parameters declared, struct %s has %d tagged fields", len(params), name, len(tags))
	}
	fields := make(map[string]bool, len(tags))
	for _, tag := range tags {
		fields[frood.ToIdentifier(tag)] = true
	}
	for _, p := range params {
		if !fields[frood.ToIdentifier(p.Spec.Name)] {
			return mismatch("parameter %s has no matching field in %s", p.Spec.Name, name)
		}
	}
	return nil
}

// taggedFields returns the frood tags of a struct's fields
func taggedFields(s *ast.StructType) []string {
	var tags []string
	for _, f := range s.Fields.List {
		if f.Tag == nil {
			continue
		}
		raw, err := strconv.Unquote(f.Tag.Value)
		if err != nil {
			continue
		}
		tag, ok := reflect.StructTag(raw).Lookup(frood.StructTag)
		if !ok || tag == "-" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func localStruct(st *pending, expr ast.Expr) (*ast.StructType, string) {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return nil, ""
	}
	return st.structs[ident.Name], ident.Name
}

func checkInit(m methodDecl) *frood.SignatureMismatchError {
	params := m.fn.Type.Params.List
	ok := len(params) == 1 && len(params[0].Names) <= 1 &&
		isSelector(params[0].Type, m.froodName, "Controller", true) &&
		(m.fn.Type.Results == nil || len(m.fn.Type.Results.List) == 0)
	if !ok {
		return &frood.SignatureMismatchError{Action: m.fn.Name.Name, Reason: "init methods must be func(*frood.Controller)"}
	}
	return nil
}

func isSelector(expr ast.Expr, pkg, name string, pointer bool) bool {
	if pkg == "" {
		return false
	}
	if pointer {
		star, ok := expr.(*ast.StarExpr)
		if !ok {
			return false
		}
		expr = star.X
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	return ok && x.Name == pkg && sel.Sel.Name == name
}

func receiverName(expr ast.Expr) (string, bool) {
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name, pointer
	}
	return "", false
}

// importNames returns the names the frood and context packages are imported under
func importNames(file *ast.File) (froodName, contextName string) {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		switch path {
		case FroodImportPath:
			froodName = name
		case "context":
			contextName = name
		}
	}
	return froodName, contextName
}

// SortPackages orders packages by directory
func SortPackages(pkgs []*Package) {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
}
