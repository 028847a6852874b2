package frood

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Parameters is an ordered set of request parameters keyed by identifier-form names.
// Values are kept raw and cast on retrieval.
//
// A Parameters value belongs to one request and is not safe for concurrent mutation.
type Parameters struct {
	names  []string
	values map[string]any
	caster *Caster
}

// NewParameters creates a Parameters from a map of word-form names. Keys are added in
// sorted order; keys that normalise to an empty name are dropped.
func NewParameters(from map[string]any) *Parameters {
	p := &Parameters{values: make(map[string]any, len(from)), caster: defaultCaster}

	keys := make([]string, 0, len(from))
	for key := range from {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p.Add(key, from[key])
	}
	return p
}

// NewParametersFromValues merges query and body values, body winning on conflicts, and
// adds the uploaded files. Form names ending in "[]" become lists and names of the form
// "name[key]" become maps.
func NewParametersFromValues(query, body url.Values, files map[string]*FileParameter) *Parameters {
	merged := make(map[string]any)
	mergeFormValues(merged, query)
	mergeFormValues(merged, body)
	for name, file := range files {
		merged[name] = file
	}
	return NewParameters(merged)
}

func mergeFormValues(dst map[string]any, values url.Values) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := values[key]
		switch {
		case strings.HasSuffix(key, "[]"):
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			dst[strings.TrimSuffix(key, "[]")] = list
		case strings.HasSuffix(key, "]") && strings.Contains(key, "["):
			open := strings.Index(key, "[")
			name, sub := key[:open], key[open+1:len(key)-1]
			m, ok := dst[name].(map[string]any)
			if !ok {
				m = make(map[string]any)
				dst[name] = m
			}
			m[sub] = vals[len(vals)-1]
		case len(vals) > 0:
			dst[key] = vals[len(vals)-1]
		}
	}
}

// WithCaster returns p after setting the caster used by Get, typically one created
// from the request content type.
func (p *Parameters) WithCaster(c *Caster) *Parameters {
	if c != nil {
		p.caster = c
	}
	return p
}

// Get returns the named parameter cast to typ.
//
// When the parameter is present but cannot be cast, the default is cast instead if one
// was given. When it is absent, the default is cast if given; otherwise a
// MissingParameterError is returned. A nil default is returned without casting.
func (p *Parameters) Get(name string, typ Type, def ...any) (any, error) {
	key := ToIdentifier(name)

	if raw, ok := p.values[key]; ok {
		v, err := p.castWith().Cast(typ, raw)
		if err == nil {
			return v, nil
		}
		if len(def) == 0 {
			return nil, err
		}
		return p.castDefault(typ, def[0])
	}

	if len(def) == 0 {
		return nil, &MissingParameterError{Name: key}
	}
	return p.castDefault(typ, def[0])
}

func (p *Parameters) castWith() *Caster {
	if p.caster == nil {
		return defaultCaster
	}
	return p.caster
}

func (p *Parameters) castDefault(typ Type, def any) (any, error) {
	if def == nil {
		return nil, nil
	}
	return p.castWith().Cast(typ, def)
}

// Has reports whether the named parameter is present and, when a type is given, castable to it
func (p *Parameters) Has(name string, typ ...Type) bool {
	raw, ok := p.values[ToIdentifier(name)]
	if !ok {
		return false
	}
	if len(typ) == 0 {
		return true
	}
	_, err := p.castWith().Cast(typ[0], raw)
	return err == nil
}

// Raw returns the uncast value of the named parameter
func (p *Parameters) Raw(name string) (any, bool) {
	v, ok := p.values[ToIdentifier(name)]
	return v, ok
}

// Add sets a parameter, replacing any existing value while keeping its position
func (p *Parameters) Add(name string, value any) *Parameters {
	key := ToIdentifier(name)
	if key == "" {
		return p
	}
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[key]; !exists {
		p.names = append(p.names, key)
	}
	p.values[key] = value
	return p
}

// Unset removes a parameter
func (p *Parameters) Unset(name string) *Parameters {
	key := ToIdentifier(name)
	if _, exists := p.values[key]; !exists {
		return p
	}
	delete(p.values, key)
	for i, n := range p.names {
		if n == key {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	return p
}

// Len returns the number of parameters
func (p *Parameters) Len() int {
	return len(p.names)
}

// Names returns the identifier-form parameter names in insertion order
func (p *Parameters) Names() []string {
	return append([]string(nil), p.names...)
}

// Each calls fn for every parameter in insertion order until fn returns false
func (p *Parameters) Each(fn func(name string, value any) bool) {
	for _, name := range p.names {
		if !fn(name, p.values[name]) {
			return
		}
	}
}

// Clone returns a copy of p. Values are shared.
func (p *Parameters) Clone() *Parameters {
	c := &Parameters{
		names:  append([]string(nil), p.names...),
		values: make(map[string]any, len(p.values)),
		caster: p.caster,
	}
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// String renders the parameters as "Name=value, Other=value"
func (p *Parameters) String() string {
	parts := make([]string, 0, len(p.names))
	for _, name := range p.names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, p.values[name]))
	}
	return strings.Join(parts, ", ")
}

// QueryString encodes the parameters as "word_name=value" pairs joined by "&", in
// insertion order. Lists, maps and files cannot be encoded and yield ErrNotEncodable.
func (p *Parameters) QueryString() (string, error) {
	parts := make([]string, 0, len(p.names))
	for _, name := range p.names {
		raw := p.values[name]
		value := ""
		if raw != nil {
			s, err := p.castWith().Cast(TypeString, raw)
			if err != nil {
				return "", fmt.Errorf("%w: %s", ErrNotEncodable, ToWordForm(name))
			}
			value = s.(string)
		}
		parts = append(parts, url.QueryEscape(ToWordForm(name))+"="+url.QueryEscape(value))
	}
	return strings.Join(parts, "&"), nil
}

// GetString returns the named parameter as a string
func (p *Parameters) GetString(name string, def ...string) (string, error) {
	v, err := p.Get(name, TypeString, toAny(def)...)
	if err != nil || v == nil {
		return "", err
	}
	return v.(string), nil
}

// GetInt returns the named parameter as an int
func (p *Parameters) GetInt(name string, def ...int) (int, error) {
	v, err := p.Get(name, TypeInteger, toAny(def)...)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(int), nil
}

// GetFloat returns the named parameter as a float64
func (p *Parameters) GetFloat(name string, def ...float64) (float64, error) {
	v, err := p.Get(name, TypeFloat, toAny(def)...)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(float64), nil
}

// GetBool returns the named parameter as a bool
func (p *Parameters) GetBool(name string, def ...bool) (bool, error) {
	v, err := p.Get(name, TypeBoolean, toAny(def)...)
	if err != nil || v == nil {
		return false, err
	}
	return v.(bool), nil
}

// GetArray returns the named parameter as a list or keyed map
func (p *Parameters) GetArray(name string, def ...any) (any, error) {
	return p.Get(name, TypeArray, def...)
}

// GetFile returns the named parameter as a successfully uploaded file
func (p *Parameters) GetFile(name string) (*FileParameter, error) {
	v, err := p.Get(name, TypeFile)
	if err != nil {
		return nil, err
	}
	return v.(*FileParameter), nil
}

// GetJSON returns the named parameter decoded as JSON
func (p *Parameters) GetJSON(name string, def ...any) (any, error) {
	return p.Get(name, TypeJSON, def...)
}

func toAny[T any](in []T) []any {
	if len(in) == 0 {
		return nil
	}
	return []any{in[0]}
}
