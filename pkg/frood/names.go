package frood

import (
	"regexp"
	"strings"
	"unicode"
)

// namePattern matches module, sub-module, controller and action names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ToIdentifier converts a lowercased_with_underscores parameter name to its
// CamelCased identifier form: "on_your_face" -> "OnYourFace".
//
// Names already in identifier form pass through unchanged, so lookups accept
// either form.
func ToIdentifier(name string) string {
	return convertWordForm(name, true)
}

// ToDromedary converts a lowercased_with_underscores name to dromedaryCase:
// "do_stuff" -> "doStuff". Action method names are built with it.
func ToDromedary(name string) string {
	return convertWordForm(name, false)
}

func convertWordForm(name string, upperFirst bool) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))

	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if i == 0 && upperFirst {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		// An underscore followed by [a-z0-9] collapses into the uppercased character.
		if r == '_' && i+1 < len(runes) && isLowerAlnum(runes[i+1]) {
			b.WriteRune(unicode.ToUpper(runes[i+1]))
			i++
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// ToWordForm converts a CamelCased identifier to the lowercased_with_underscores
// form used in HTML forms and query strings: "IAm42Years" -> "i_am42_years".
func ToWordForm(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func isLowerAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
