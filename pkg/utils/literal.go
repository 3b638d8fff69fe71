package utils

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// StringLiteral renders s as a single-quoted TypeScript string literal.
func StringLiteral(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// NumberLiteral normalizes a numeric value ("1.50", 2e3, int64) into its
// canonical TypeScript spelling. ok is false when v is not numeric.
func NumberLiteral(v any) (string, bool) {
	var d decimal.Decimal
	switch n := v.(type) {
	case float64:
		d = decimal.NewFromFloat(n)
	case float32:
		d = decimal.NewFromFloat32(n)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		d = decimal.NewFromInt(cast.ToInt64(n))
	case string:
		parsed, err := decimal.NewFromString(n)
		if err != nil {
			return "", false
		}
		d = parsed
	default:
		return "", false
	}
	return d.String(), true
}

// Literal renders a decoded JSON/YAML scalar as a TypeScript literal.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return cast.ToString(val)
	case string:
		return StringLiteral(val)
	}
	if n, ok := NumberLiteral(v); ok {
		return n
	}
	return StringLiteral(cast.ToString(v))
}

// EnumKey derives the const-object key for an enum member. Numbers become
// NUMBER_1, NUMBER_MINUS_2 or NUMBER_PLUS_3; strings keep their spelling with
// separators folded into underscores.
func EnumKey(v any) string {
	if _, isString := v.(string); !isString {
		if n, ok := NumberLiteral(v); ok {
			return numberKey(n)
		}
	}

	raw := cast.ToString(v)
	if raw == "" {
		if v == nil {
			return "null"
		}
		return "EMPTY"
	}

	var b strings.Builder
	for _, r := range RemoveAccents(raw) {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '.' || unicode.IsSpace(r):
			b.WriteRune('_')
		case r == '+':
			b.WriteString("PLUS")
		}
	}
	key := b.String()
	if key == "" {
		return "EMPTY"
	}
	if unicode.IsDigit([]rune(key)[0]) {
		return "NUMBER_" + key
	}
	return key
}

func numberKey(n string) string {
	prefix := "NUMBER_"
	switch {
	case strings.HasPrefix(n, "-"):
		prefix, n = "NUMBER_MINUS_", n[1:]
	case strings.HasPrefix(n, "+"):
		prefix, n = "NUMBER_PLUS_", n[1:]
	}
	return prefix + strings.ReplaceAll(n, ".", "_")
}

// JSDoc renders a description as a JSDoc block at the given indentation.
// Empty descriptions render nothing.
func JSDoc(indent string, lines ...string) string {
	var body []string
	for _, l := range lines {
		for _, part := range strings.Split(strings.TrimSpace(l), "\n") {
			if part = strings.TrimRight(part, " "); part != "" {
				body = append(body, strings.ReplaceAll(part, "*/", "*\\/"))
			}
		}
	}
	if len(body) == 0 {
		return ""
	}
	if len(body) == 1 {
		return indent + "/** " + body[0] + " */\n"
	}

	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range body {
		b.WriteString(indent + " * " + l + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}
