package annotations

import (
	"fmt"
	"strings"

	"github.com/toyz/frood/pkg/frood"
)

// Prefix starts every frood annotation comment
const Prefix = "frood::"

// Kind represents the kind of an annotation
type Kind int

const (
	ControllerKind Kind = iota
	ActionKind
	ParamKind
	InitKind
)

// String returns the name of the kind as written in annotations
func (k Kind) String() string {
	switch k {
	case ControllerKind:
		return "controller"
	case ActionKind:
		return "action"
	case ParamKind:
		return "param"
	case InitKind:
		return "init"
	default:
		return "unknown"
	}
}

// ParseKind converts an annotation name to its Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "controller":
		return ControllerKind, nil
	case "action":
		return ActionKind, nil
	case "param":
		return ParamKind, nil
	case "init":
		return InitKind, nil
	default:
		return 0, fmt.Errorf("unknown annotation kind: %s", s)
	}
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string // File path
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Annotation is a parsed frood annotation.
//
//	//frood::controller cruisecontrol admin build
//	//frood::action show
//	//frood::param int id
//	//frood::param bool verbose <off>
//	//frood::init
type Annotation struct {
	Kind     Kind
	Args     []string
	Default  string // the raw "<...>" token of a param, empty when absent
	Location SourceLocation
	Raw      string
}

// Controller returns the module, sub-module and name of a controller annotation. The
// sub-module defaults to public when only two arguments are given.
func (a *Annotation) Controller() (module, subModule, name string) {
	switch len(a.Args) {
	case 2:
		return a.Args[0], frood.PublicSubModule, a.Args[1]
	case 3:
		return a.Args[0], a.Args[1], a.Args[2]
	}
	return "", "", ""
}

// ActionName returns the action name of an action annotation, or the word form of
// method with any "Action" suffix removed when the annotation names none.
func (a *Annotation) ActionName(method string) string {
	if len(a.Args) > 0 {
		return a.Args[0]
	}
	if trimmed := strings.TrimSuffix(method, "Action"); trimmed != "" {
		method = trimmed
	}
	return frood.ToWordForm(method)
}

// ParamSpec converts a param annotation to its declaration
func (a *Annotation) ParamSpec() (frood.ParamSpec, error) {
	if a.Kind != ParamKind || len(a.Args) != 2 {
		return frood.ParamSpec{}, fmt.Errorf("%s: not a param annotation", a.Location)
	}
	return frood.ParseParamSpec(a.Args[0], a.Args[1], a.Default)
}
