package frood

import (
	"mime"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"
)

var (
	integerPattern = regexp.MustCompile(`^\s*-?[0-9]+\s*$`)
	floatPattern   = regexp.MustCompile(`^\s*-?[0-9]+([.,])?[0-9]+\s*$`)
)

// DefaultCharset is assumed when a request does not declare one.
const DefaultCharset = "UTF-8"

// Caster converts raw parameter values to typed values. Charset is the character
// set the raw values were sent in.
type Caster struct {
	Charset string
}

var defaultCaster = &Caster{Charset: DefaultCharset}

// NewCaster creates a Caster for the charset declared in a Content-Type header value
func NewCaster(contentType string) *Caster {
	charset := DefaultCharset
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
			charset = params["charset"]
		}
	}
	return &Caster{Charset: charset}
}

// Cast converts value to typ using the UTF-8 caster
func Cast(typ Type, value any) (any, error) {
	return defaultCaster.Cast(typ, value)
}

// Cast converts value to typ. TypeNone returns the value unchanged.
func (c *Caster) Cast(typ Type, value any) (any, error) {
	switch typ {
	case TypeNone:
		return value, nil
	case TypeInteger:
		return c.castInteger(value)
	case TypeFloat:
		return c.castFloat(value)
	case TypeString:
		return c.castString(value)
	case TypeArray:
		return c.castArray(value)
	case TypeBoolean:
		return c.castBoolean(value)
	case TypeISO88591:
		return c.castCharset(value, TypeISO88591)
	case TypeUTF8:
		return c.castCharset(value, TypeUTF8)
	case TypeJSON:
		return c.castJSON(value)
	case TypeFile:
		return c.castFile(value)
	case TypeUUID:
		return c.castUUID(value)
	case TypeBooleanArray:
		return castTypedArray[bool](c, value, typ)
	case TypeIntegerArray:
		return castTypedArray[int](c, value, typ)
	case TypeStringArray:
		return castTypedArray[string](c, value, typ)
	case TypeFloatArray:
		return castTypedArray[float64](c, value, typ)
	}
	return nil, &CastingError{Value: value, Type: typ, Message: ErrUnknownType.Error()}
}

func (c *Caster) castInteger(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u <= uint64(^uint(0)>>1) {
			return int(u), nil
		}
	case reflect.String:
		s := rv.String()
		if integerPattern.MatchString(s) {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return n, nil
			}
		}
	}
	return nil, &CastingError{Value: value, Type: TypeInteger}
}

func (c *Caster) castFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		if floatPattern.MatchString(v) {
			s := strings.Replace(strings.TrimSpace(v), ",", ".", 1)
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}
	}

	if n, err := c.castInteger(value); err == nil {
		return float64(n.(int)), nil
	}
	return nil, &CastingError{Value: value, Type: TypeFloat}
}

func (c *Caster) castString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return nil, &CastingError{Value: value, Type: TypeString}
}

func (c *Caster) castArray(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return v, nil
	case []byte:
		return nil, &CastingError{Value: value, Type: TypeArray}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return list, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, nil
	}
	return nil, &CastingError{Value: value, Type: TypeArray}
}

func (c *Caster) castBoolean(value any) (any, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	if n, err := c.castInteger(value); err == nil {
		return n.(int) != 0, nil
	}
	switch v := value.(type) {
	case float64:
		return v != 0, nil
	case float32:
		return v != 0, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "on", "checked":
			return true, nil
		case "false", "off", "":
			return false, nil
		}
	}
	return nil, &CastingError{Value: value, Type: TypeBoolean}
}

// castCharset casts to a string and transliterates it from the caster's charset to the
// target charset. Characters the target cannot represent are decomposed to their base
// letters where possible and replaced by '?' otherwise.
func (c *Caster) castCharset(value any, target Type) (any, error) {
	s, err := c.castString(value)
	if err != nil {
		return nil, &CastingError{Value: value, Type: target}
	}

	decoded, err := decodeCharset(s.(string), c.Charset)
	if err != nil {
		return nil, &CastingError{Value: value, Type: target, Message: err.Error()}
	}
	if target == TypeUTF8 {
		return decoded, nil
	}
	return encodeLatin1(decoded), nil
}

func decodeCharset(s, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		if utf8.ValidString(s) {
			return s, nil
		}
		// Invalid UTF-8 is most likely Latin-1 sent without a declared charset.
		return charmap.ISO8859_1.NewDecoder().String(s)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", err
	}
	return enc.NewDecoder().String(s)
}

func encodeLatin1(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		replaced := false
		for _, base := range norm.NFKD.String(string(r)) {
			if b, ok := charmap.ISO8859_1.EncodeRune(base); ok && base < 0x300 {
				out = append(out, b)
				replaced = true
			}
		}
		if !replaced {
			out = append(out, '?')
		}
	}
	return string(out)
}

func (c *Caster) castJSON(value any) (any, error) {
	s, err := c.castCharset(value, TypeUTF8)
	if err != nil {
		return nil, &CastingError{Value: value, Type: TypeJSON}
	}

	var decoded any
	if err := json.Unmarshal([]byte(s.(string)), &decoded); err != nil {
		return nil, &CastingError{Value: value, Type: TypeJSON, Message: err.Error()}
	}
	return decoded, nil
}

func (c *Caster) castFile(value any) (any, error) {
	var file *FileParameter
	switch v := value.(type) {
	case *FileParameter:
		file = v
	case FileParameter:
		file = &v
	}
	if file == nil {
		return nil, &CastingError{Value: value, Type: TypeFile}
	}
	if !file.Valid() {
		return nil, &CastingError{Value: value, Type: TypeFile, Code: file.ErrorCode(), Message: file.ErrorMessage()}
	}
	return file, nil
}

func (c *Caster) castUUID(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil {
			return id, nil
		}
	}
	return nil, &CastingError{Value: value, Type: TypeUUID}
}

// castTypedArray casts value to a list and every element to the element type of typ.
// Any failing element fails the whole cast.
func castTypedArray[T any](c *Caster, value any, typ Type) (any, error) {
	elemType, _ := typ.elementType()

	arr, err := c.castArray(value)
	if err != nil {
		return nil, &CastingError{Value: value, Type: typ}
	}
	list, ok := arr.([]any)
	if !ok {
		// Keyed maps have no element order to preserve.
		return nil, &CastingError{Value: value, Type: typ}
	}

	out := make([]T, 0, len(list))
	for _, item := range list {
		v, err := c.Cast(elemType, item)
		if err != nil {
			return nil, &CastingError{Value: value, Type: typ}
		}
		out = append(out, v.(T))
	}
	return out, nil
}
