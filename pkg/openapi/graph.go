package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/jsonpointer"
)

// Component kinds addressable under #/components.
const (
	KindSchemas       = "schemas"
	KindResponses     = "responses"
	KindParameters    = "parameters"
	KindRequestBodies = "requestBodies"
)

// Document is one loaded API description.
type Document struct {
	// Key is the absolute path or URL of the document
	Key string
	// Doc is the typed model. Only the root document has its references
	// resolved by the loader.
	Doc *openapi3.T
	// Raw is the generic decoding used for JSON pointer lookups
	Raw map[string]any
	// Converted is set when the document was upgraded from Swagger 2.0
	Converted bool
}

// Graph holds the root document and every document it references.
type Graph struct {
	Root      string
	Order     []string
	Documents map[string]*Document
	// Warnings collects non-fatal validation findings
	Warnings []error
}

func newGraph(root string) *Graph {
	return &Graph{Root: root, Documents: map[string]*Document{}}
}

func (g *Graph) add(d *Document) {
	if _, ok := g.Documents[d.Key]; ok {
		return
	}
	g.Documents[d.Key] = d
	g.Order = append(g.Order, d.Key)
}

// RootDocument returns the entry document.
func (g *Graph) RootDocument() *Document {
	return g.Documents[g.Root]
}

// Document returns the document stored under key.
func (g *Graph) Document(key string) (*Document, bool) {
	d, ok := g.Documents[key]
	return d, ok
}

// Lookup evaluates a JSON pointer against the raw form of a document.
func (g *Graph) Lookup(key, pointer string) (any, error) {
	d, ok := g.Documents[key]
	if !ok {
		return nil, fmt.Errorf("document %s is not loaded", key)
	}
	if pointer == "" || pointer == "/" {
		return d.Raw, nil
	}
	p, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, err
	}
	v, _, err := p.Get(d.Raw)
	return v, err
}

// Component returns the typed component of the given kind, or nil when the
// document does not declare it.
func (g *Graph) Component(key, kind, name string) any {
	d, ok := g.Documents[key]
	if !ok || d.Doc == nil || d.Doc.Components == nil {
		return nil
	}
	c := d.Doc.Components
	switch kind {
	case KindSchemas:
		if v, ok := c.Schemas[name]; ok {
			return v
		}
	case KindResponses:
		if v, ok := c.Responses[name]; ok {
			return v
		}
	case KindParameters:
		if v, ok := c.Parameters[name]; ok {
			return v
		}
	case KindRequestBodies:
		if v, ok := c.RequestBodies[name]; ok {
			return v
		}
	}
	return nil
}

// Schema returns the schema found at pointer in the document. Component
// schemas come from the typed model; anything else, including a whole-file
// schema, is decoded from the raw document.
func (g *Graph) Schema(key, pointer string) (*openapi3.SchemaRef, error) {
	if name, ok := strings.CutPrefix(pointer, "/components/schemas/"); ok && !strings.Contains(name, "/") {
		if s, ok := g.Component(key, KindSchemas, jsonpointer.Unescape(name)).(*openapi3.SchemaRef); ok {
			return s, nil
		}
	}
	node, err := g.Lookup(key, pointer)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	var s openapi3.SchemaRef
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decoding schema %s#%s: %w", key, pointer, err)
	}
	return &s, nil
}

// ComponentNames lists the component names of a kind in declaration-stable
// (sorted) order.
func (g *Graph) ComponentNames(key, kind string) []string {
	d, ok := g.Documents[key]
	if !ok || d.Doc == nil || d.Doc.Components == nil {
		return nil
	}
	c := d.Doc.Components
	switch kind {
	case KindSchemas:
		return componentNames(c.Schemas)
	case KindResponses:
		return componentNames(c.Responses)
	case KindParameters:
		return componentNames(c.Parameters)
	case KindRequestBodies:
		return componentNames(c.RequestBodies)
	}
	return nil
}

func componentNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
