package schema

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// injection constrains a discriminated variant's tag property to the
// mapping keys that select it.
type injection struct {
	Property string
	Values   []string
	consumed bool
}

func (i *injection) literal() string {
	lits := make([]string, 0, len(i.Values))
	for _, v := range i.Values {
		lits = append(lits, utils.StringLiteral(v))
	}
	return strings.Join(lits, " | ")
}

// intersect attaches the tag to a variant that has no object literal of its
// own, e.g. a pure allOf of references.
func (i *injection) intersect(r result) result {
	i.consumed = true
	v := r.Value
	if strings.Contains(v, "|") {
		v = "(" + v + ")"
	}
	r.Value = v + " & {" + utils.QuotePropertyName(i.Property) + ": " + i.literal() + "}"
	r.literal = false
	return r
}

// CollectDiscriminators records, for every variant named in a discriminator
// mapping of a component schema, the tag values that select it. It must run
// before the variants are declared.
func (s *Synthesizer) CollectDiscriminators() error {
	for _, key := range s.graph.Order {
		for _, name := range s.graph.ComponentNames(key, openapi.KindSchemas) {
			node, ok := s.graph.Component(key, openapi.KindSchemas, name).(*openapi3.SchemaRef)
			if !ok || node.Ref != "" || node.Value == nil {
				continue
			}
			d := node.Value.Discriminator
			if d == nil || len(d.Mapping) == 0 {
				continue
			}
			tags := make([]string, 0, len(d.Mapping))
			for tag := range d.Mapping {
				tags = append(tags, tag)
			}
			sort.Strings(tags)
			for _, tag := range tags {
				variant, err := s.resolver.Lookup(mappingRef(d.Mapping[tag]), key)
				if err != nil {
					return err
				}
				entry, ok := s.discriminators[variant.Canonical()]
				if !ok {
					entry = &injection{Property: d.PropertyName}
					s.discriminators[variant.Canonical()] = entry
				}
				if !containsString(entry.Values, tag) {
					entry.Values = append(entry.Values, tag)
				}
			}
		}
	}
	return nil
}

// variantTag returns a fresh injection for the declaration of canonical, or
// nil when it is not a discriminated variant.
func (s *Synthesizer) variantTag(canonical string) *injection {
	entry, ok := s.discriminators[canonical]
	if !ok {
		return nil
	}
	return &injection{Property: entry.Property, Values: append([]string(nil), entry.Values...)}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// VariantTag reports the discriminator property and the tag values of a
// discriminated variant, identified by its canonical target.
func (s *Synthesizer) VariantTag(canonical string) (property string, values []string, ok bool) {
	inj := s.variantTag(canonical)
	if inj == nil {
		return "", nil, false
	}
	return inj.Property, inj.Values, true
}
