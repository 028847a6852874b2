package annotations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/toyz/frood/pkg/frood"
)

// grammar is the participle grammar of one annotation comment
type grammar struct {
	Kind    string   `parser:"Marker @Word"`
	Args    []string `parser:"@(Word | String)*"`
	Default *string  `parser:"@Default?"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Marker", Pattern: `//\s*frood::`},
	{Name: "Default", Pattern: `<[^>]*>`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Word", Pattern: `[^\s<>"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Parser parses frood annotation comments
type Parser struct {
	parser *participle.Parser[grammar]
}

// NewParser creates a new annotation parser
func NewParser() *Parser {
	return &Parser{
		parser: participle.MustBuild[grammar](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
	}
}

// IsAnnotation reports whether a comment line is a frood annotation
func IsAnnotation(comment string) bool {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(content, Prefix)
}

// Parse parses and validates one annotation comment
func (p *Parser) Parse(comment string, loc SourceLocation) (*Annotation, error) {
	raw := strings.TrimSpace(comment)
	if !IsAnnotation(raw) {
		return nil, &Error{Code: SyntaxErrorCode, Loc: loc, Message: "not a frood annotation",
			Hint: "annotations start with //" + Prefix}
	}

	g, err := p.parser.ParseString(loc.File, raw)
	if err != nil {
		return nil, &Error{Code: SyntaxErrorCode, Loc: loc, Message: err.Error()}
	}

	kind, err := ParseKind(g.Kind)
	if err != nil {
		return nil, &Error{Code: SyntaxErrorCode, Loc: loc, Message: err.Error(),
			Hint: "use controller, action, param or init"}
	}

	a := &Annotation{Kind: kind, Args: g.Args, Location: loc, Raw: raw}
	if g.Default != nil {
		a.Default = *g.Default
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

func validate(a *Annotation) error {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ValidationErrorCode, Loc: a.Location, Message: fmt.Sprintf(format, args...)}
	}

	if a.Default != "" && a.Kind != ParamKind {
		return invalid("%s annotations take no default", a.Kind)
	}

	switch a.Kind {
	case ControllerKind:
		if len(a.Args) < 2 || len(a.Args) > 3 {
			return &Error{Code: ValidationErrorCode, Loc: a.Location,
				Message: fmt.Sprintf("controller takes 2 or 3 arguments, got %d", len(a.Args)),
				Hint:    "//frood::controller <module> [<sub-module>] <name>"}
		}
		for _, name := range a.Args {
			if !namePattern.MatchString(name) {
				return invalid("invalid name %q, names are lowercase words joined by underscores", name)
			}
		}
	case ActionKind:
		if len(a.Args) > 1 {
			return invalid("action takes at most one argument, got %d", len(a.Args))
		}
		if len(a.Args) == 1 && !namePattern.MatchString(a.Args[0]) {
			return invalid("invalid action name %q", a.Args[0])
		}
	case ParamKind:
		if len(a.Args) != 2 {
			return &Error{Code: ValidationErrorCode, Loc: a.Location,
				Message: fmt.Sprintf("param takes a type and a name, got %d arguments", len(a.Args)),
				Hint:    "//frood::param <type> <name> [<default>]"}
		}
		if _, err := a.ParamSpec(); err != nil {
			return &Error{Code: ValidationErrorCode, Loc: a.Location, Message: err.Error(),
				Hint: "known types: " + strings.Join(frood.KnownTypes(), ", ")}
		}
	case InitKind:
		if len(a.Args) > 0 {
			return invalid("init takes no arguments")
		}
	}
	return nil
}
