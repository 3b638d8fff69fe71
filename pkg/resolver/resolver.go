// Package resolver turns $ref strings into stable TypeScript identities.
//
// A Resolver owns the run-wide name memo: resolving the same target twice,
// from any document, yields the same name, and two different targets never
// share one.
package resolver

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/go-openapi/jsonpointer"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

var componentKinds = []string{
	openapi.KindSchemas,
	openapi.KindResponses,
	openapi.KindParameters,
	openapi.KindRequestBodies,
}

// Resolver resolves references against a loaded graph.
type Resolver struct {
	graph    *openapi.Graph
	override *config.Override

	memo map[string]ir.ResolvedRef
	// order lists memo keys in first-resolution order
	order []string
	// owners maps an allocated name to the canonical target or hoisted shape that claimed it
	owners map[string]string
}

// New creates a Resolver. override supplies the per-kind name suffixes and
// may be nil.
func New(graph *openapi.Graph, override *config.Override) *Resolver {
	if override == nil {
		override = &config.Override{}
	}
	return &Resolver{
		graph:    graph,
		override: override,
		memo:     map[string]ir.ResolvedRef{},
		owners:   map[string]string{},
	}
}

// Graph returns the graph references are resolved against.
func (r *Resolver) Graph() *openapi.Graph {
	return r.graph
}

// Resolve resolves ref as written in the document specKey. The chain lists
// the target followed by every target it forwards to (a $ref to a $ref, or a
// parameter, response or request body whose schema is a $ref), first link
// first.
func (r *Resolver) Resolve(ref, specKey string) (ir.ResolvedRef, []ir.Import, error) {
	first, err := r.Lookup(ref, specKey)
	if err != nil {
		return ir.ResolvedRef{}, nil, err
	}

	chain := []ir.Import{importOf(first)}
	visited := map[string]struct{}{first.Canonical(): {}}
	current := first
	for {
		next, ok := r.nextLink(current)
		if !ok {
			break
		}
		target, err := r.Lookup(next, current.SpecKey)
		if err != nil {
			return ir.ResolvedRef{}, nil, err
		}
		if _, seen := visited[target.Canonical()]; seen {
			break
		}
		visited[target.Canonical()] = struct{}{}
		chain = append(chain, importOf(target))
		current = target
	}
	return first, chain, nil
}

// Lookup resolves a single reference without following chains.
func (r *Resolver) Lookup(ref, specKey string) (ir.ResolvedRef, error) {
	docPart, pointer, _ := strings.Cut(ref, "#")

	targetKey := specKey
	if docPart != "" {
		key, err := openapi.ResolveKey(specKey, docPart)
		if err != nil {
			return ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Cause: err}
		}
		targetKey = key
	}
	if _, ok := r.graph.Document(targetKey); !ok {
		return ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Message: "document " + targetKey + " is not loaded"}
	}

	decoded, err := url.PathUnescape(pointer)
	if err != nil {
		return ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Cause: err}
	}
	if decoded == "/" {
		decoded = ""
	}

	canonical := targetKey + "#" + decoded
	if resolved, ok := r.memo[canonical]; ok {
		return resolved, nil
	}

	p, err := jsonpointer.New(decoded)
	if err != nil {
		return ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Cause: err}
	}
	if _, err := r.graph.Lookup(targetKey, decoded); err != nil {
		return ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Cause: err}
	}

	tokens := p.DecodedTokens()
	resolved := ir.ResolvedRef{
		SpecKey:  targetKey,
		Pointer:  decoded,
		RefPaths: tokens,
	}
	if len(tokens) == 0 {
		base := path.Base(strings.ReplaceAll(targetKey, "\\", "/"))
		resolved.OriginalName = strings.TrimSuffix(base, path.Ext(base))
	} else {
		resolved.OriginalName = tokens[len(tokens)-1]
	}
	if len(tokens) == 3 && tokens[0] == "components" {
		resolved.Kind = tokens[1]
	}

	resolved.Name, _ = r.allocate(utils.TypeName(resolved.OriginalName)+r.suffix(resolved.Kind), canonical)
	r.memo[canonical] = resolved
	r.order = append(r.order, canonical)
	return resolved, nil
}

// Resolved lists every target resolved so far, in first-resolution order.
func (r *Resolver) Resolved() []ir.ResolvedRef {
	out := make([]ir.ResolvedRef, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.memo[key])
	}
	return out
}

func (r *Resolver) suffix(kind string) string {
	for _, k := range componentKinds {
		if k == kind {
			return r.override.Suffix(kind)
		}
	}
	return ""
}

// allocate claims name for owner, appending a counter when another owner
// already holds it. fresh is false when owner had already claimed the name.
func (r *Resolver) allocate(name, owner string) (allocated string, fresh bool) {
	candidate := name
	for n := 1; ; n++ {
		current, taken := r.owners[candidate]
		if !taken {
			r.owners[candidate] = owner
			return candidate, true
		}
		if current == owner {
			return candidate, false
		}
		candidate = fmt.Sprintf("%s%d", name, n)
	}
}

// Reserve claims a name for a hoisted declaration of the given shape. The
// same name and shape map to the same declaration; fresh reports whether the
// caller must emit it.
func (r *Resolver) Reserve(name, shape string) (allocated string, fresh bool) {
	return r.allocate(name, "shape:"+shape)
}

// Preallocate resolves every component of every document, in graph order,
// so names are fixed before any operation or hoisted type claims one.
func (r *Resolver) Preallocate() error {
	for _, key := range r.graph.Order {
		for _, kind := range componentKinds {
			for _, name := range r.graph.ComponentNames(key, kind) {
				ref := "#/components/" + kind + "/" + jsonpointer.Escape(name)
				if _, err := r.Lookup(ref, key); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// nextLink finds the reference a target forwards to.
func (r *Resolver) nextLink(target ir.ResolvedRef) (string, bool) {
	node, err := r.graph.Lookup(target.SpecKey, target.Pointer)
	if err != nil {
		return "", false
	}
	m, ok := node.(map[string]any)
	if !ok {
		return "", false
	}
	if ref, ok := m["$ref"].(string); ok {
		return ref, true
	}
	if target.Kind == openapi.KindSchemas || target.Kind == "" {
		return "", false
	}
	if ref, ok := schemaRef(m["schema"]); ok {
		return ref, true
	}
	content, ok := m["content"].(map[string]any)
	if !ok {
		return "", false
	}
	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)
	for _, mt := range mediaTypes {
		if media, ok := content[mt].(map[string]any); ok {
			if ref, ok := schemaRef(media["schema"]); ok {
				return ref, true
			}
		}
	}
	return "", false
}

func schemaRef(node any) (string, bool) {
	m, ok := node.(map[string]any)
	if !ok {
		return "", false
	}
	ref, ok := m["$ref"].(string)
	return ref, ok
}

func importOf(r ir.ResolvedRef) ir.Import {
	return ir.Import{Name: r.Name, SpecKey: r.SpecKey, SchemaName: r.OriginalName}
}
