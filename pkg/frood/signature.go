package frood

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// ParamSpec declares one typed action parameter.
type ParamSpec struct {
	Name       string
	Type       Type
	Default    any
	HasDefault bool
}

// Required declares a parameter without a default
func Required(name string, typ Type) ParamSpec {
	return ParamSpec{Name: name, Type: typ}
}

// Optional declares a parameter with a default. The default is cast to typ when used;
// a nil default is passed as the zero value.
func Optional(name string, typ Type, def any) ParamSpec {
	return ParamSpec{Name: name, Type: typ, Default: def, HasDefault: true}
}

// ParseDefaultToken parses a "<...>" default token. "<>" and the empty token declare a
// required parameter, "<null>" a nil default and "<x>" the literal default "x".
func ParseDefaultToken(token string) (value any, hasDefault bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false, nil
	}
	if len(token) < 2 || token[0] != '<' || token[len(token)-1] != '>' {
		return nil, false, fmt.Errorf("default %q must be enclosed in < and >", token)
	}

	switch inner := token[1 : len(token)-1]; inner {
	case "":
		return nil, false, nil
	case "null":
		return nil, true, nil
	default:
		return inner, true, nil
	}
}

// ParseParamSpec builds a ParamSpec from its textual form: a type name, a parameter name
// (a leading "$" is ignored) and an optional default token.
func ParseParamSpec(typeName, name, defaultToken string) (ParamSpec, error) {
	typ, err := ParseType(typeName)
	if err != nil {
		return ParamSpec{}, err
	}
	name = strings.TrimPrefix(strings.TrimSpace(name), "$")
	if name == "" {
		return ParamSpec{}, fmt.Errorf("parameter of type %s has no name", typeName)
	}
	def, hasDefault, err := ParseDefaultToken(defaultToken)
	if err != nil {
		return ParamSpec{}, fmt.Errorf("parameter %s: %w", name, err)
	}
	return ParamSpec{Name: name, Type: typ, Default: def, HasDefault: hasDefault}, nil
}

func (p ParamSpec) lookup(params *Parameters) (any, error) {
	if p.HasDefault {
		return params.Get(p.Name, p.Type, p.Default)
	}
	return params.Get(p.Name, p.Type)
}

// String renders the spec the way it is declared in annotations
func (p ParamSpec) String() string {
	def := "<>"
	switch {
	case p.HasDefault && p.Default == nil:
		def = "<null>"
	case p.HasDefault:
		def = fmt.Sprintf("<%v>", p.Default)
	}
	return fmt.Sprintf("%s %s %s", typeLabel(p.Type), p.Name, def)
}

var (
	contextType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	controllerType = reflect.TypeOf((*Controller)(nil))
	parametersType = reflect.TypeOf((*Parameters)(nil))
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	outcomeType    = reflect.TypeOf((*Outcome)(nil)).Elem()
)

// StructTag is the struct tag naming the parameter a field receives.
const StructTag = "frood"

type convention int

const (
	conventionRaw convention = iota
	conventionPositional
	conventionStruct
)

// Signature is a validated action function together with its parameter declarations.
//
// Actions take an optional context.Context and an optional *Controller, in that order,
// followed by either:
//   - a single *Parameters (raw actions, no declarations allowed),
//   - one Go parameter per declared ParamSpec, in declaration order, or
//   - a single struct whose fields are tagged `frood:"name"`, one per declared name.
//
// They return nothing, an error, an Outcome, or an Outcome and an error.
type Signature struct {
	name   string
	fn     reflect.Value
	params []ParamSpec

	wantsContext    bool
	wantsController bool
	convention      convention
	argTypes        []reflect.Type

	structType reflect.Type
	structPtr  bool
	fields     []int

	outcomeOut int
	errorOut   int
}

// NewSignature validates fn against params. A mismatch between the declaration and the
// Go signature yields a SignatureMismatchError.
func NewSignature(name string, fn any, params []ParamSpec) (*Signature, error) {
	s := &Signature{name: name, params: params, outcomeOut: -1, errorOut: -1}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, s.mismatch("handler is %T, not a function", fn)
	}
	s.fn = rv
	ft := rv.Type()
	if ft.IsVariadic() {
		return nil, s.mismatch("variadic handlers are not supported")
	}

	i := 0
	if i < ft.NumIn() && ft.In(i) == contextType {
		s.wantsContext = true
		i++
	}
	if i < ft.NumIn() && ft.In(i) == controllerType {
		s.wantsController = true
		i++
	}
	rest := make([]reflect.Type, 0, ft.NumIn()-i)
	for ; i < ft.NumIn(); i++ {
		rest = append(rest, ft.In(i))
	}

	if err := s.analyzeParams(rest); err != nil {
		return nil, err
	}
	if err := s.analyzeResults(ft); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Signature) analyzeParams(rest []reflect.Type) error {
	seen := make(map[string]bool, len(s.params))
	for _, p := range s.params {
		if !p.Type.Valid() {
			return s.mismatch("parameter %s has unknown type %q", p.Name, p.Type)
		}
		key := ToIdentifier(p.Name)
		if seen[key] {
			return s.mismatch("parameter %s is declared twice", p.Name)
		}
		seen[key] = true
	}

	if len(rest) == 1 && rest[0] == parametersType {
		if len(s.params) > 0 {
			return s.mismatch("actions taking *Parameters must not declare parameters")
		}
		s.convention = conventionRaw
		return nil
	}

	if len(rest) == 1 && isTaggedStruct(rest[0]) {
		return s.analyzeStruct(rest[0])
	}

	if len(rest) != len(s.params) {
		return s.mismatch("%d parameters declared, function takes %d", len(s.params), len(rest))
	}
	for i, p := range s.params {
		if !compatible(p.Type, rest[i]) {
			return s.mismatch("parameter %s of type %s cannot be passed as %s", p.Name, typeLabel(p.Type), rest[i])
		}
	}
	s.convention = conventionPositional
	s.argTypes = rest
	return nil
}

func isTaggedStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup(StructTag); ok {
			return true
		}
	}
	return false
}

func (s *Signature) analyzeStruct(t reflect.Type) error {
	s.convention = conventionStruct
	if t.Kind() == reflect.Pointer {
		s.structPtr = true
		t = t.Elem()
	}
	s.structType = t

	tagged := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(StructTag)
		if !ok || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return s.mismatch("field %s is tagged but not exported", f.Name)
		}
		tagged[ToIdentifier(tag)] = i
	}

	if len(tagged) != len(s.params) {
		return s.mismatch("%d parameters declared, struct %s has %d tagged fields", len(s.params), t, len(tagged))
	}

	s.fields = make([]int, len(s.params))
	for i, p := range s.params {
		idx, ok := tagged[ToIdentifier(p.Name)]
		if !ok {
			return s.mismatch("parameter %s has no matching field in %s", p.Name, t)
		}
		f := t.Field(idx)
		if !compatible(p.Type, f.Type) {
			return s.mismatch("parameter %s of type %s cannot be stored in field %s %s", p.Name, typeLabel(p.Type), f.Name, f.Type)
		}
		s.fields[i] = idx
	}
	return nil
}

func (s *Signature) analyzeResults(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0:
		return nil
	case 1:
		switch out := ft.Out(0); {
		case out == errorType:
			s.errorOut = 0
		case out == outcomeType:
			s.outcomeOut = 0
		default:
			return s.mismatch("unsupported result type %s", out)
		}
		return nil
	case 2:
		if ft.Out(0) == outcomeType && ft.Out(1) == errorType {
			s.outcomeOut, s.errorOut = 0, 1
			return nil
		}
	}
	return s.mismatch("handlers return nothing, error, Outcome or (Outcome, error)")
}

// compatible reports whether a value cast to t can be passed as a Go value of type arg
func compatible(t Type, arg reflect.Type) bool {
	if arg.Kind() == reflect.Interface && arg.NumMethod() == 0 {
		return true
	}

	switch t {
	case TypeNone:
		return false
	case TypeJSON, TypeArray:
		return arg == reflect.TypeOf([]any(nil)) || arg == reflect.TypeOf(map[string]any(nil))
	}

	gt := t.GoType()
	if gt.AssignableTo(arg) {
		return true
	}
	return gt.ConvertibleTo(arg) && kindClass(gt.Kind()) == kindClass(arg.Kind()) &&
		(gt.Kind() != reflect.Slice || gt.Elem().Kind() == arg.Elem().Kind())
}

func kindClass(k reflect.Kind) reflect.Kind {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.Int
	case reflect.Float32, reflect.Float64:
		return reflect.Float64
	}
	return k
}

// Params returns the declared parameters
func (s *Signature) Params() []ParamSpec {
	return s.params
}

// Raw reports whether the action takes the whole *Parameters
func (s *Signature) Raw() bool {
	return s.convention == conventionRaw
}

// Call resolves the declared parameters from params and invokes the action.
// Missing or uncastable parameters return their MissingParameterError or CastingError.
func (s *Signature) Call(ctx context.Context, ctrl *Controller, params *Parameters) (Outcome, error) {
	if params == nil {
		params = NewParameters(nil)
	}

	args := make([]reflect.Value, 0, 2+len(s.params))
	if s.wantsContext {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
	}
	if s.wantsController {
		args = append(args, reflect.ValueOf(ctrl))
	}

	switch s.convention {
	case conventionRaw:
		args = append(args, reflect.ValueOf(params))
	case conventionPositional:
		for i, p := range s.params {
			v, err := p.lookup(params)
			if err != nil {
				return nil, err
			}
			arg, err := toArg(p, v, s.argTypes[i])
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	case conventionStruct:
		sv := reflect.New(s.structType).Elem()
		for i, p := range s.params {
			v, err := p.lookup(params)
			if err != nil {
				return nil, err
			}
			field := sv.Field(s.fields[i])
			arg, err := toArg(p, v, field.Type())
			if err != nil {
				return nil, err
			}
			field.Set(arg)
		}
		if s.structPtr {
			sv = sv.Addr()
		}
		args = append(args, sv)
	}

	out := s.fn.Call(args)

	var outcome Outcome
	if s.outcomeOut >= 0 && !out[s.outcomeOut].IsNil() {
		outcome = out[s.outcomeOut].Interface().(Outcome)
	}
	if s.errorOut >= 0 && !out[s.errorOut].IsNil() {
		return outcome, out[s.errorOut].Interface().(error)
	}
	return outcome, nil
}

// toArg converts a cast value to the Go type of the receiving parameter
func toArg(p ParamSpec, v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Type().ConvertibleTo(t) && kindClass(rv.Kind()) == kindClass(t.Kind()):
		return rv.Convert(t), nil
	}
	// JSON and array values only reveal their shape once decoded.
	return reflect.Value{}, &CastingError{Value: v, Type: p.Type, Message: fmt.Sprintf("cannot be passed as %s", t)}
}

func (s *Signature) mismatch(format string, args ...any) error {
	return &SignatureMismatchError{Action: s.name, Reason: fmt.Sprintf(format, args...)}
}
