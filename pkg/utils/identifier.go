package utils

import (
	"strings"
	"unicode"
)

// reservedWords are names TypeScript will not accept as variable or
// parameter identifiers.
var reservedWords = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "enum": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {}, "function": {},
	"if": {}, "import": {}, "in": {}, "instanceof": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {}, "with": {},
	"let": {}, "static": {}, "yield": {}, "await": {}, "implements": {},
	"interface": {}, "package": {}, "private": {}, "protected": {}, "public": {},
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s can be used unquoted as a TypeScript
// property name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}

// SanitizeIdentifier drops characters that are not valid in an identifier
// and prefixes an underscore when the result would start with a digit.
func SanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range RemoveAccents(s) {
		if isIdentPart(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	return out
}

// TypeName turns an arbitrary component or property name into a PascalCase
// type identifier.
func TypeName(s string) string {
	return SanitizeIdentifier(ToPascalCase(s))
}

// VariableName turns a parameter or operation name into a camelCase
// identifier that is safe to declare.
func VariableName(s string) string {
	name := SanitizeIdentifier(ToCamelCase(s))
	if _, reserved := reservedWords[name]; reserved {
		return "_" + name
	}
	return name
}

// QuotePropertyName quotes property names that are not valid identifiers.
func QuotePropertyName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return StringLiteral(name)
}

// PropertyAccess renders obj.name or obj['name'] as needed.
func PropertyAccess(obj, name string) string {
	if IsIdentifier(name) {
		return obj + "." + name
	}
	return obj + "[" + StringLiteral(name) + "]"
}
