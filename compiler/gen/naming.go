package gen

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// typeName derives the Go type name of an entity: strip the system "$"
// prefix, singularize, then camelize ("posts" -> "Post", "$users" ->
// "User").
func typeName(entity string) string {
	base := sanitize(strings.TrimLeft(entity, "$"))
	return inflect.Camelize(inflect.Singularize(base))
}

// fieldName derives the exported Go field name of a wire field.
func fieldName(field string) string {
	name := inflect.Camelize(sanitize(strings.TrimLeft(field, "$")))
	// Common initialisms the backend uses as full field names.
	switch name {
	case "Id":
		return "ID"
	case "Url":
		return "URL"
	}
	return name
}

// fileName derives the generated file name of an entity type.
func fileName(entity string) string {
	return inflect.Underscore(typeName(entity)) + ".go"
}

// sanitize rewrites a wire name into identifier-safe characters. Leading
// digits get an "X" prefix so the result is a legal Go identifier.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "X"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "X" + s
	}
	if token.Lookup(s).IsKeyword() {
		s += "_"
	}
	return s
}
