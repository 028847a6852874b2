package frood

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// Renderer writes the values an action assigned. Content types are opaque to the
// dispatcher and passed through to the transport.
type Renderer interface {
	Render(w io.Writer, values map[string]any) error
	ContentType() string
}

// JSONRenderer renders values as a JSON object
type JSONRenderer struct{}

// ContentType implements Renderer
func (JSONRenderer) ContentType() string { return "application/json" }

// Render implements Renderer
func (JSONRenderer) Render(w io.Writer, values map[string]any) error {
	return json.NewEncoder(w).Encode(values)
}

// JSONAutoUTF8Renderer renders values as JSON after converting strings that are not
// valid UTF-8 from ISO-8859-1.
type JSONAutoUTF8Renderer struct{}

// ContentType implements Renderer
func (JSONAutoUTF8Renderer) ContentType() string { return "application/json" }

// Render implements Renderer
func (JSONAutoUTF8Renderer) Render(w io.Writer, values map[string]any) error {
	converted, ok := utf8EncodeStrings(values).(map[string]any)
	if !ok {
		converted = values
	}
	return json.NewEncoder(w).Encode(converted)
}

func utf8EncodeStrings(v any) any {
	switch val := v.(type) {
	case string:
		if utf8.ValidString(val) {
			return val
		}
		if s, err := charmap.ISO8859_1.NewDecoder().String(val); err == nil {
			return s
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = utf8EncodeStrings(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = utf8EncodeStrings(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = utf8EncodeStrings(item).(string)
		}
		return out
	default:
		return v
	}
}

// XMLRenderer renders values as an XML document. Maps become nested elements and lists
// become repeated Item elements.
type XMLRenderer struct {
	// Root is the name of the document element, "response" when empty.
	Root string
	// Item is the element name of list entries, "item" when empty.
	Item string
}

// ContentType implements Renderer
func (XMLRenderer) ContentType() string { return "text/xml" }

// Render implements Renderer
func (r XMLRenderer) Render(w io.Writer, values map[string]any) error {
	root := r.Root
	if root == "" {
		root = "response"
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	r.appendValue(doc.CreateElement(root), values)
	doc.Indent(2)

	_, err := doc.WriteTo(w)
	return err
}

func (r XMLRenderer) appendValue(el *etree.Element, v any) {
	item := r.Item
	if item == "" {
		item = "item"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			child := el.CreateElement(xmlName(fmt.Sprint(k.Interface())))
			r.appendValue(child, rv.MapIndex(k).Interface())
		}
	case reflect.Slice, reflect.Array:
		if b, ok := v.([]byte); ok {
			el.SetText(string(b))
			return
		}
		for i := 0; i < rv.Len(); i++ {
			r.appendValue(el.CreateElement(item), rv.Index(i).Interface())
		}
	default:
		el.SetText(fmt.Sprint(v))
	}
}

// xmlName makes a value key usable as an element name
func xmlName(key string) string {
	var b strings.Builder
	for i, r := range key {
		valid := r == '_' || r == '-' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if i == 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')) {
			b.WriteByte('_')
		}
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// YAMLRenderer renders values as a YAML document
type YAMLRenderer struct{}

// ContentType implements Renderer
func (YAMLRenderer) ContentType() string { return "application/yaml" }

// Render implements Renderer
func (YAMLRenderer) Render(w io.Writer, values map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return err
	}
	return enc.Close()
}

// TextRenderer renders values as sorted "key: value" lines
type TextRenderer struct{}

// ContentType implements Renderer
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements Renderer
func (TextRenderer) Render(w io.Writer, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// DisabledRenderer renders nothing. Actions using it write their own output.
type DisabledRenderer struct{}

// ContentType implements Renderer
func (DisabledRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements Renderer
func (DisabledRenderer) Render(io.Writer, map[string]any) error { return nil }

// RendererByName returns the renderer for an output mode name such as "json" or "xml"
func RendererByName(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONRenderer{}, nil
	case "json_auto_utf8", "jsonautoutf8":
		return JSONAutoUTF8Renderer{}, nil
	case "xml":
		return XMLRenderer{}, nil
	case "yaml", "yml":
		return YAMLRenderer{}, nil
	case "text", "txt":
		return TextRenderer{}, nil
	case "disabled", "none":
		return DisabledRenderer{}, nil
	}
	return nil, &ConfigurationError{Key: "renderer", Message: fmt.Sprintf("unknown output mode %q", name)}
}
