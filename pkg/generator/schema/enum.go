package schema

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// enumInfo keeps the members of an enum so it can be declared as a const
// table rather than a bare literal union.
type enumInfo struct {
	// values are inline members, null excluded
	values []any
	// spreads are referenced enum tables
	spreads []string
}

func enumResult(sch *openapi3.Schema) result {
	info := &enumInfo{}
	seen := map[string]struct{}{}
	var literals []string
	nullable := false
	for _, v := range sch.Enum {
		lit := utils.Literal(v)
		if _, dup := seen[lit]; dup {
			continue
		}
		seen[lit] = struct{}{}
		literals = append(literals, lit)
		if v == nil {
			nullable = true
			continue
		}
		info.values = append(info.values, v)
	}
	return result{
		TypeIR: ir.TypeIR{
			Value:  strings.Join(literals, " | "),
			IsEnum: true,
			Type:   enumCategory(info.values),
		},
		enum:     info,
		nullable: nullable,
		source:   sch,
	}
}

// enumUnion merges enum branches of a combinator: inline literal sets are
// concatenated and referenced enums are unioned by name.
func (s *Synthesizer) enumUnion(branches openapi3.SchemaRefs, ctx Context) (result, error) {
	info := &enumInfo{}
	out := result{TypeIR: ir.TypeIR{IsEnum: true}, enum: info}
	seen := map[string]struct{}{}
	var parts []string
	for _, b := range branches {
		if b.Ref != "" {
			r, err := s.synthRef(b.Ref, ctx)
			if err != nil {
				return result{}, err
			}
			if _, dup := seen[r.Value]; dup {
				continue
			}
			seen[r.Value] = struct{}{}
			parts = append(parts, r.Value)
			info.spreads = append(info.spreads, r.Value)
			for i, imp := range r.Imports {
				// the table spreads the referenced const at runtime
				imp.Values = i == 0
				out.Imports = append(out.Imports, imp)
			}
			if out.Type == "" {
				out.Type = r.Type
			}
			continue
		}
		for _, v := range b.Value.Enum {
			lit := utils.Literal(v)
			if _, dup := seen[lit]; dup {
				continue
			}
			seen[lit] = struct{}{}
			parts = append(parts, lit)
			if v == nil {
				out.nullable = true
				continue
			}
			info.values = append(info.values, v)
		}
		if out.Type == "" {
			out.Type = enumCategory(b.Value.Enum)
		}
	}
	out.Value = strings.Join(parts, " | ")
	return out, nil
}

func enumCategory(values []any) string {
	for _, v := range values {
		switch v.(type) {
		case string:
			return ir.TypeString
		case bool:
			return ir.TypeBoolean
		case nil:
		default:
			return ir.TypeNumber
		}
	}
	return ir.TypeEnum
}

// renderEnumTable declares an enum as a const object plus a type of its
// values:
//
//	export type Status = typeof Status[keyof typeof Status];
//
//	export const Status = {
//	  available: 'available',
//	} as const;
func renderEnumTable(name string, info *enumInfo, nullable bool) string {
	var b strings.Builder
	suffix := ""
	if nullable {
		suffix = nullSuffix
	}
	fmt.Fprintf(&b, "export type %s = typeof %s[keyof typeof %s]%s;\n\n", name, name, name, suffix)
	fmt.Fprintf(&b, "export const %s = {\n", name)
	for _, spread := range info.spreads {
		b.WriteString("  ..." + spread + ",\n")
	}
	used := map[string]int{}
	for _, v := range info.values {
		key := utils.EnumKey(v)
		if n, dup := used[key]; dup {
			used[key] = n + 1
			key = fmt.Sprintf("%s%d", key, n+1)
		} else {
			used[key] = 0
		}
		b.WriteString("  " + utils.QuotePropertyName(key) + ": " + utils.Literal(v) + ",\n")
	}
	b.WriteString("} as const;\n")
	return b.String()
}
