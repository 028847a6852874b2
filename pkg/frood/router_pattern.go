package frood

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PatternPartType represents the type of a pattern part
type PatternPartType int

const (
	StaticPart PatternPartType = iota
	PlaceholderPart
	WildcardPart
)

// PatternPart is a single part of a route pattern
type PatternPart struct {
	Type  PatternPartType
	Value string // static parts: the literal regular expression text, placeholders: the parameter name
	Kind  Type   // placeholders: the value type, TypeNone when untyped
}

// RoutePattern is a route pattern: a regular expression over the unrouted path in which
// "{name}" and "{name:type}" placeholders capture named parameters and "{*}" captures
// the rest of the path.
type RoutePattern string

// Parts parses the pattern into static and placeholder parts
func (p RoutePattern) Parts() []PatternPart {
	pattern := string(p)
	var parts []PatternPart

	i := 0
	for i < len(pattern) {
		if pattern[i] == '{' {
			j := i + 1
			for j < len(pattern) && pattern[j] != '}' {
				j++
			}
			content := ""
			if j < len(pattern) {
				content = pattern[i+1 : j]
			}
			if !isPlaceholder(content) {
				// Regular expression quantifiers such as {2,3} stay static.
				parts = appendStatic(parts, pattern[i:i+1])
				i++
				continue
			}

			if content == "*" {
				parts = append(parts, PatternPart{Type: WildcardPart, Value: "*"})
			} else {
				name, kind, _ := strings.Cut(content, ":")
				t, _ := ParseType(kind)
				parts = append(parts, PatternPart{Type: PlaceholderPart, Value: name, Kind: t})
			}
			i = j + 1
			continue
		}

		start := i
		for i < len(pattern) && pattern[i] != '{' {
			i++
		}
		parts = appendStatic(parts, pattern[start:i])
	}

	return parts
}

var placeholderPattern = regexp.MustCompile(`^(?:\*|[a-z][a-z0-9_]*(?::[A-Za-z0-9/\-\[\]]+)?)$`)

func isPlaceholder(content string) bool {
	return placeholderPattern.MatchString(content)
}

func appendStatic(parts []PatternPart, text string) []PatternPart {
	if n := len(parts); n > 0 && parts[n-1].Type == StaticPart {
		parts[n-1].Value += text
		return parts
	}
	return append(parts, PatternPart{Type: StaticPart, Value: text})
}

// Compile builds the anchored regular expression for the pattern. A pattern matches
// the whole unrouted path, optionally followed by a query string.
func (p RoutePattern) Compile() (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, part := range p.Parts() {
		switch part.Type {
		case StaticPart:
			b.WriteString(part.Value)
		case WildcardPart:
			b.WriteString(`(.*)`)
		case PlaceholderPart:
			b.WriteString("(?P<" + part.Value + ">" + placeholderExpression(part.Kind) + ")")
		}
	}
	b.WriteString(`(?:$|\?)`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &ConfigurationError{Key: "patterns", Message: fmt.Sprintf("invalid route pattern %q: %v", string(p), err)}
	}
	return re, nil
}

func placeholderExpression(kind Type) string {
	switch kind {
	case TypeInteger:
		return `-?[0-9]+`
	case TypeFloat:
		return `-?[0-9]+(?:[.,][0-9]+)?`
	case TypeUUID:
		return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`
	default:
		return `[^/?]+`
	}
}

// PatternRoute maps a route pattern to a route. Module, SubModule, Controller, Action and
// the Parameters values may reference captured groups as $1, $2, ...; empty fields are
// left for later routers.
type PatternRoute struct {
	Pattern    RoutePattern
	Module     string
	SubModule  string
	Controller string
	Action     string
	Parameters map[string]string
}

type compiledRoute struct {
	route PatternRoute
	re    *regexp.Regexp
}

// PatternRouter routes requests with an ordered table of pattern routes. The first
// matching pattern wins; when none matches, the Fallback router is used if set.
type PatternRouter struct {
	Module   string
	Fallback Router

	routes []compiledRoute
}

// NewPatternRouter compiles the routes of a module. fallback may be nil.
func NewPatternRouter(module string, routes []PatternRoute, fallback Router) (*PatternRouter, error) {
	r := &PatternRouter{Module: module, Fallback: fallback}
	for _, route := range routes {
		re, err := route.Pattern.Compile()
		if err != nil {
			return nil, err
		}
		r.routes = append(r.routes, compiledRoute{route: route, re: re})
	}
	return r, nil
}

// Route implements Router
func (r *PatternRouter) Route(req *Request) {
	for _, cr := range r.routes {
		m := cr.re.FindStringSubmatch(req.Path())
		if m == nil {
			continue
		}
		r.apply(req, cr, m)
		return
	}
	if r.Fallback != nil {
		r.Fallback.Route(req)
	}
}

func (r *PatternRouter) apply(req *Request, cr compiledRoute, m []string) {
	route := cr.route
	req.consume(m[0])

	if route.Module != "" {
		req.SetModule(applyMatches(route.Module, m))
	} else {
		req.SetModule(r.Module)
	}
	if route.SubModule != "" {
		req.SetSubModule(applyMatches(route.SubModule, m))
	}
	if route.Controller != "" {
		req.SetController(applyMatches(route.Controller, m))
	}
	if route.Action != "" {
		req.SetAction(applyMatches(route.Action, m))
	}

	params := req.Parameters()
	for i, name := range cr.re.SubexpNames() {
		if name != "" && m[i] != "" {
			params.Add(name, m[i])
		}
	}
	names := make([]string, 0, len(route.Parameters))
	for name := range route.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value := applyMatches(route.Parameters[name], m); value != "" {
			params.Add(name, value)
		}
	}
}

var dollarPattern = regexp.MustCompile(`\$(\d+)`)

// applyMatches substitutes $n references with the n-th captured group. References to
// groups that do not exist become empty.
func applyMatches(tmpl string, m []string) string {
	return dollarPattern.ReplaceAllStringFunc(tmpl, func(ref string) string {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n >= len(m) {
			return ""
		}
		return m[n]
	})
}

// String implements fmt.Stringer
func (r *PatternRouter) String() string {
	return fmt.Sprintf("PatternRouter(%s, %d patterns)", r.Module, len(r.routes))
}
