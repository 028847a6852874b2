package frood

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Type names a parameter cast target.
type Type string

const (
	TypeNone         Type = ""
	TypeInteger      Type = "integer"
	TypeFloat        Type = "float"
	TypeString       Type = "string"
	TypeArray        Type = "array"
	TypeBoolean      Type = "boolean"
	TypeISO88591     Type = "string/ISO-8859-1"
	TypeUTF8         Type = "string/UTF-8"
	TypeJSON         Type = "json"
	TypeFile         Type = "file"
	TypeUUID         Type = "uuid"
	TypeBooleanArray Type = "boolean[]"
	TypeIntegerArray Type = "integer[]"
	TypeStringArray  Type = "string[]"
	TypeFloatArray   Type = "float[]"
)

// knownTypes lists every cast target together with the Go type a successful cast produces.
var knownTypes = map[Type]reflect.Type{
	TypeInteger:      reflect.TypeOf(0),
	TypeFloat:        reflect.TypeOf(float64(0)),
	TypeString:       reflect.TypeOf(""),
	TypeArray:        reflect.TypeOf([]any(nil)),
	TypeBoolean:      reflect.TypeOf(false),
	TypeISO88591:     reflect.TypeOf(""),
	TypeUTF8:         reflect.TypeOf(""),
	TypeJSON:         reflect.TypeOf((*any)(nil)).Elem(),
	TypeFile:         reflect.TypeOf((*FileParameter)(nil)),
	TypeUUID:         reflect.TypeOf(uuid.UUID{}),
	TypeBooleanArray: reflect.TypeOf([]bool(nil)),
	TypeIntegerArray: reflect.TypeOf([]int(nil)),
	TypeStringArray:  reflect.TypeOf([]string(nil)),
	TypeFloatArray:   reflect.TypeOf([]float64(nil)),
}

// TypeAliases maps convenient textual names to their cast types
var TypeAliases = map[string]Type{
	"int":       TypeInteger,
	"integer":   TypeInteger,
	"float":     TypeFloat,
	"double":    TypeFloat,
	"float64":   TypeFloat,
	"bool":      TypeBoolean,
	"boolean":   TypeBoolean,
	"string":    TypeString,
	"array":     TypeArray,
	"json":      TypeJSON,
	"file":      TypeFile,
	"uuid":      TypeUUID,
	"int[]":     TypeIntegerArray,
	"integer[]": TypeIntegerArray,
	"float[]":   TypeFloatArray,
	"double[]":  TypeFloatArray,
	"string[]":  TypeStringArray,
	"bool[]":    TypeBooleanArray,
	"boolean[]": TypeBooleanArray,
}

// ParseType resolves a textual type name, such as "int" or "string/UTF-8", to its Type.
// An empty name resolves to TypeNone.
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TypeNone, nil
	}
	if t, ok := TypeAliases[strings.ToLower(name)]; ok {
		return t, nil
	}
	// Charset variants compare case-insensitively: "string/utf-8" == "string/UTF-8".
	for t := range knownTypes {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// MustParseType is like ParseType but panics on unknown names. It is meant for
// package-level declarations.
func MustParseType(name string) Type {
	t, err := ParseType(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t is a known cast type
func (t Type) Valid() bool {
	if t == TypeNone {
		return true
	}
	_, ok := knownTypes[t]
	return ok
}

// GoType returns the Go type a successful cast to t produces. TypeNone yields the
// empty interface type.
func (t Type) GoType() reflect.Type {
	if rt, ok := knownTypes[t]; ok {
		return rt
	}
	return reflect.TypeOf((*any)(nil)).Elem()
}

// elementType returns the element cast type of a typed array type
func (t Type) elementType() (Type, bool) {
	switch t {
	case TypeBooleanArray:
		return TypeBoolean, true
	case TypeIntegerArray:
		return TypeInteger, true
	case TypeStringArray:
		return TypeString, true
	case TypeFloatArray:
		return TypeFloat, true
	}
	return TypeNone, false
}

// KnownTypes returns every cast type name, sorted
func KnownTypes() []string {
	names := make([]string, 0, len(knownTypes))
	for t := range knownTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}
