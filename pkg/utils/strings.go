package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-openapi/swag"
	"github.com/huandu/xstrings"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SplitWords splits a string into words on separators and camelCase
// boundaries. Segments written entirely in capitals ("HELLO_WORLD") are
// title-cased; mixed segments keep their casing so acronyms such as "DTO" in
// "PetDTO" survive.
func SplitWords(s string) []string {
	s = RemoveAccents(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	var words []string
	for _, segment := range nonAlnum.Split(s, -1) {
		if segment == "" {
			continue
		}
		if isShoutingSegment(segment) {
			words = append(words, xstrings.FirstRuneToUpper(strings.ToLower(segment)))
			continue
		}
		words = append(words, SplitCamelCase(segment)...)
	}
	return words
}

// SplitCamelCase splits a camelCase or PascalCase string into words
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	rs := []rune(s)
	for i, r := range rs {
		isNewWord := false
		if i > 0 && isUppercase(r) {
			if !isUppercase(rs[i-1]) {
				isNewWord = true
			} else if i < len(rs)-1 && isLowercase(rs[i+1]) {
				// "XMLHttp" -> "XML", "Http"
				isNewWord = true
			}
		}

		if isNewWord && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isUppercase(r rune) bool {
	return unicode.IsUpper(r)
}

func isLowercase(r rune) bool {
	return unicode.IsLower(r)
}

func isShoutingSegment(s string) bool {
	letters := 0
	for _, r := range s {
		if isLowercase(r) {
			return false
		}
		if isUppercase(r) {
			letters++
		}
	}
	return letters > 1
}

func isAcronym(s string) bool {
	for _, r := range s {
		if !isUppercase(r) {
			return false
		}
	}
	return true
}

// ToPascalCase converts a string to PascalCase
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range SplitWords(s) {
		b.WriteString(xstrings.FirstRuneToUpper(w))
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase. A leading acronym is
// lowercased entirely: "XMLHttpRequest" becomes "xmlHttpRequest".
func ToCamelCase(s string) string {
	words := SplitWords(s)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	if isAcronym(words[0]) {
		b.WriteString(strings.ToLower(words[0]))
	} else {
		b.WriteString(xstrings.FirstRuneToLower(words[0]))
	}
	for _, w := range words[1:] {
		b.WriteString(xstrings.FirstRuneToUpper(w))
	}
	return b.String()
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	return joinLower(SplitWords(s), "_")
}

// ToKebabCase converts a string to kebab-case
func ToKebabCase(s string) string {
	return joinLower(SplitWords(s), "-")
}

func joinLower(words []string, sep string) string {
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, sep)
}

// ToFileName converts a tag or title into a file-system friendly name.
func ToFileName(s string) string {
	name := swag.ToCommandName(RemoveAccents(s))
	if name == "" {
		name = ToKebabCase(s)
	}
	if name == "" {
		return "default"
	}
	return name
}
