package frood

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_Get(t *testing.T) {
	params := NewParameters(map[string]any{
		"on_your_face": "42",
		"word":         "walrus",
		"f":            nil,
	})

	tests := []struct {
		name        string
		param       string
		typ         Type
		def         []any
		expected    any
		expectedErr any
	}{
		{name: "present and castable", param: "on_your_face", typ: TypeInteger, expected: 42},
		{name: "identifier form lookup", param: "OnYourFace", typ: TypeInteger, expected: 42},
		{name: "untyped returns raw", param: "word", typ: TypeNone, expected: "walrus"},
		{name: "uncastable falls back to default", param: "word", typ: TypeInteger, def: []any{"7"}, expected: 7},
		{name: "uncastable without default fails", param: "word", typ: TypeInteger, expectedErr: &CastingError{}},
		{name: "absent uses default", param: "missing", typ: TypeString, def: []any{"fallback"}, expected: "fallback"},
		{name: "absent nil default", param: "missing", typ: TypeInteger, def: []any{nil}, expected: nil},
		{name: "absent without default fails", param: "missing", typ: TypeString, expectedErr: &MissingParameterError{}},
		{name: "present nil untyped", param: "f", typ: TypeNone, def: []any{nil}, expected: nil},
		{name: "uncastable default fails", param: "missing", typ: TypeInteger, def: []any{"x"}, expectedErr: &CastingError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := params.Get(tt.param, tt.typ, tt.def...)
			switch want := tt.expectedErr.(type) {
			case *CastingError:
				assert.True(t, errors.As(err, &want), "expected CastingError, got %v", err)
			case *MissingParameterError:
				assert.True(t, errors.As(err, &want), "expected MissingParameterError, got %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParameters_TypedAccessors(t *testing.T) {
	params := NewParameters(map[string]any{
		"count":   "3",
		"ratio":   "0,5",
		"enabled": "on",
		"tags":    []any{"a", "b"},
		"payload": `{"x":true}`,
	})

	count, err := params.GetInt("count")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ratio, err := params.GetFloat("ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	enabled, err := params.GetBool("enabled")
	require.NoError(t, err)
	assert.True(t, enabled)

	name, err := params.GetString("name", "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", name)

	tags, err := params.GetArray("tags")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, tags)

	payload, err := params.GetJSON("payload")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": true}, payload)

	_, err = params.GetInt("name")
	var missing *MissingParameterError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "Name", missing.Name)

	_, err = params.GetFile("tags")
	assert.Error(t, err)
}

func TestParameters_Has(t *testing.T) {
	params := NewParameters(map[string]any{"id": "12", "slug": "walrus"})

	assert.True(t, params.Has("id"))
	assert.True(t, params.Has("Id"))
	assert.True(t, params.Has("id", TypeInteger))
	assert.False(t, params.Has("slug", TypeInteger))
	assert.False(t, params.Has("missing"))
}

func TestParameters_AddUnsetAndOrder(t *testing.T) {
	params := NewParameters(nil)
	params.Add("a", "A").Add("B", "b").Add("s_m", "hej").Add("nitrat", "uetUHet")

	assert.Equal(t, 4, params.Len())
	assert.Equal(t, []string{"A", "B", "SM", "Nitrat"}, params.Names())
	assert.Equal(t, "A=A, B=b, SM=hej, Nitrat=uetUHet", params.String())

	params.Add("a", "again")
	assert.Equal(t, []string{"A", "B", "SM", "Nitrat"}, params.Names())

	params.Unset("s_m")
	assert.Equal(t, []string{"A", "B", "Nitrat"}, params.Names())
	assert.False(t, params.Has("SM"))

	var visited []string
	params.Each(func(name string, value any) bool {
		visited = append(visited, name)
		return name != "B"
	})
	assert.Equal(t, []string{"A", "B"}, visited)
}

func TestParameters_DropsEmptyNames(t *testing.T) {
	params := NewParameters(map[string]any{"": "nothing", "ok": "yes"})
	assert.Equal(t, []string{"Ok"}, params.Names())
}

func TestParameters_QueryString(t *testing.T) {
	t.Run("scalars", func(t *testing.T) {
		params := NewParameters(nil).
			Add("the_new_walrus", "a b").
			Add("count", 3).
			Add("flag", true).
			Add("empty", nil)

		qs, err := params.QueryString()
		require.NoError(t, err)
		assert.Equal(t, "the_new_walrus=a+b&count=3&flag=true&empty=", qs)
	})

	tests := []struct {
		name  string
		value any
	}{
		{name: "list", value: []any{"1"}},
		{name: "map", value: map[string]any{"a": "b"}},
		{name: "file", value: &FileParameter{Path: "/tmp/x"}},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := NewParameters(map[string]any{"value": tt.value}).QueryString()
			assert.ErrorIs(t, err, ErrNotEncodable)
		})
	}
}

func TestNewParametersFromValues(t *testing.T) {
	query := url.Values{
		"id":      {"1"},
		"tab":     {"coverage"},
		"tags[]":  {"a", "b"},
		"opts[x]": {"1"},
	}
	body := url.Values{
		"id": {"2"},
	}
	file := &FileParameter{Path: "/tmp/upload", OriginalName: "upload.txt"}

	params := NewParametersFromValues(query, body, map[string]*FileParameter{"attachment": file})

	id, err := params.GetInt("id")
	require.NoError(t, err)
	assert.Equal(t, 2, id, "body wins over query")

	tab, err := params.GetString("tab")
	require.NoError(t, err)
	assert.Equal(t, "coverage", tab)

	tags, err := params.Get("tags", TypeStringArray)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	opts, err := params.GetArray("opts")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "1"}, opts)

	raw, ok := params.Raw("attachment")
	require.True(t, ok)
	assert.Same(t, file, raw)
}

func TestParameters_Clone(t *testing.T) {
	params := NewParameters(map[string]any{"a": "1"})
	clone := params.Clone()
	clone.Add("b", "2")

	assert.Equal(t, 1, params.Len())
	assert.Equal(t, 2, clone.Len())
}
