package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/frood/pkg/frood"
)

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//frood::action"))
	assert.True(t, IsAnnotation("  // frood::param int id"))
	assert.False(t, IsAnnotation("// frood is a framework"))
	assert.False(t, IsAnnotation("//other::route GET /"))
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()
	loc := SourceLocation{File: "build.go", Line: 12, Column: 1}

	tests := []struct {
		name     string
		input    string
		kind     Kind
		args     []string
		defValue string
	}{
		{name: "controller", input: "//frood::controller cruisecontrol admin build", kind: ControllerKind,
			args: []string{"cruisecontrol", "admin", "build"}},
		{name: "controller in public", input: "//frood::controller cruisecontrol build", kind: ControllerKind,
			args: []string{"cruisecontrol", "build"}},
		{name: "action without name", input: "//frood::action", kind: ActionKind},
		{name: "action", input: "// frood::action show_all", kind: ActionKind, args: []string{"show_all"}},
		{name: "required param", input: "//frood::param int id", kind: ParamKind, args: []string{"int", "id"}},
		{name: "param with default", input: "//frood::param bool verbose <off>", kind: ParamKind,
			args: []string{"bool", "verbose"}, defValue: "<off>"},
		{name: "charset param", input: "//frood::param string/ISO-8859-1 $label <null>", kind: ParamKind,
			args: []string{"string/ISO-8859-1", "$label"}, defValue: "<null>"},
		{name: "array param with spaces in default", input: "//frood::param string[] tags <a b>", kind: ParamKind,
			args: []string{"string[]", "tags"}, defValue: "<a b>"},
		{name: "quoted argument", input: `//frood::param string "title" <x>`, kind: ParamKind,
			args: []string{"string", "title"}, defValue: "<x>"},
		{name: "init", input: "//frood::init", kind: InitKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parser.Parse(tt.input, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, a.Kind)
			if len(tt.args) == 0 {
				assert.Empty(t, a.Args)
			} else {
				assert.Equal(t, tt.args, a.Args)
			}
			assert.Equal(t, tt.defValue, a.Default)
			assert.Equal(t, loc, a.Location)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	parser := NewParser()
	loc := SourceLocation{File: "build.go", Line: 3, Column: 1}

	tests := []struct {
		name  string
		input string
		code  ErrorCode
	}{
		{name: "not an annotation", input: "// plain comment", code: SyntaxErrorCode},
		{name: "unknown kind", input: "//frood::route GET /", code: SyntaxErrorCode},
		{name: "missing kind", input: "//frood::", code: SyntaxErrorCode},
		{name: "text after default", input: "//frood::param int id <1> extra", code: SyntaxErrorCode},
		{name: "controller arity", input: "//frood::controller build", code: ValidationErrorCode},
		{name: "controller name", input: "//frood::controller CruiseControl build", code: ValidationErrorCode},
		{name: "action arity", input: "//frood::action show list", code: ValidationErrorCode},
		{name: "param without name", input: "//frood::param int", code: ValidationErrorCode},
		{name: "unknown param type", input: "//frood::param decimal amount", code: ValidationErrorCode},
		{name: "default on action", input: "//frood::action show <x>", code: ValidationErrorCode},
		{name: "init arguments", input: "//frood::init now", code: ValidationErrorCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input, loc)
			require.Error(t, err)

			var annErr *Error
			require.True(t, errors.As(err, &annErr))
			assert.Equal(t, tt.code, annErr.Code)
			assert.Equal(t, loc, annErr.Location())
			assert.Contains(t, err.Error(), "build.go:3:1")
		})
	}
}

func TestAnnotation_Helpers(t *testing.T) {
	parser := NewParser()

	ctrl, err := parser.Parse("//frood::controller cruisecontrol build", SourceLocation{})
	require.NoError(t, err)
	module, sub, name := ctrl.Controller()
	assert.Equal(t, []string{"cruisecontrol", frood.PublicSubModule, "build"}, []string{module, sub, name})

	action, err := parser.Parse("//frood::action", SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, "show_all", action.ActionName("ShowAllAction"))
	assert.Equal(t, "index", action.ActionName("Index"))

	param, err := parser.Parse("//frood::param bool verbose <off>", SourceLocation{})
	require.NoError(t, err)
	spec, err := param.ParamSpec()
	require.NoError(t, err)
	assert.Equal(t, frood.Optional("verbose", frood.TypeBoolean, "off"), spec)

	_, err = action.ParamSpec()
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{ControllerKind, ActionKind, ParamKind, InitKind} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "unknown", Kind(42).String())
}
