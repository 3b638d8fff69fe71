package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/imdario/mergo"
	"github.com/mitchellh/copystructure"

	"github.com/blimu-dev/client-gen/pkg/generrors"
)

// Override tunes generation globally, per tag or per operation. Operation
// overrides win over tag overrides, which win over the global one.
type Override struct {
	Operations map[string]*Override `yaml:"operations,omitempty"`
	Tags       map[string]*Override `yaml:"tags,omitempty"`

	Components     Components    `yaml:"components"`
	Mutator        *Mutator      `yaml:"mutator,omitempty"`
	FormData       FormOverride  `yaml:"formData"`
	FormURLEncoded FormOverride  `yaml:"formUrlEncoded"`
	RequestOptions *bool         `yaml:"requestOptions,omitempty"`
	Query          QueryOverride `yaml:"query"`
	Header         *bool         `yaml:"header,omitempty"`
	UseDates       *bool         `yaml:"useDates,omitempty"`
	ContentType    ContentFilter `yaml:"contentType"`
	Mock           MockOverride  `yaml:"mock"`
}

// Components holds the name suffix applied per component kind.
type Components struct {
	Schemas       ComponentOverride `yaml:"schemas"`
	Responses     ComponentOverride `yaml:"responses"`
	Parameters    ComponentOverride `yaml:"parameters"`
	RequestBodies ComponentOverride `yaml:"requestBodies"`
}

// ComponentOverride overrides the naming of one component kind.
type ComponentOverride struct {
	Suffix *string `yaml:"suffix,omitempty"`
}

// Mutator points at a user function that performs the HTTP call (or builds a
// form body) in place of the generated default.
type Mutator struct {
	Path    string `yaml:"path"`
	Name    string `yaml:"name"`
	Default bool   `yaml:"default"`
}

// FormOverride controls multipart and urlencoded body handling.
type FormOverride struct {
	Disabled *bool    `yaml:"disabled,omitempty"`
	Mutator  *Mutator `yaml:"mutator,omitempty"`
}

// QueryOverride configures the query-hook backends.
type QueryOverride struct {
	UseQuery              *bool          `yaml:"useQuery,omitempty"`
	UseInfinite           *bool          `yaml:"useInfinite,omitempty"`
	UseInfiniteQueryParam string         `yaml:"useInfiniteQueryParam,omitempty"`
	Signal                *bool          `yaml:"signal,omitempty"`
	Options               map[string]any `yaml:"options,omitempty"`
}

// ContentFilter keeps or drops media types. Entries are regular expressions.
type ContentFilter struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// MockOverride configures the mock synthesizer.
type MockOverride struct {
	// Properties maps a property path or /regex/ to a faker expression
	Properties map[string]string `yaml:"properties,omitempty"`
	// Format maps a schema format to a faker expression
	Format   map[string]string `yaml:"format,omitempty"`
	Required *bool             `yaml:"required,omitempty"`
	Delay    *int              `yaml:"delay,omitempty"`
	ArrayMin *int              `yaml:"arrayMin,omitempty"`
	ArrayMax *int              `yaml:"arrayMax,omitempty"`
}

// ForOperation returns the effective override of an operation: the global
// override merged with each of its tags' overrides in declared order, then
// with the operation's own override. The receiver is not modified.
func (o *Override) ForOperation(operationID string, tags []string) (*Override, error) {
	merged, err := o.layer()
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if t := o.Tags[tag]; t != nil {
			if err := merged.Merge(t); err != nil {
				return nil, fmt.Errorf("merging override of tag %s: %w", tag, err)
			}
		}
	}
	if op := o.Operations[operationID]; op != nil {
		if err := merged.Merge(op); err != nil {
			return nil, fmt.Errorf("merging override of operation %s: %w", operationID, err)
		}
	}
	return merged, nil
}

// Merge deep-merges src into o: lists concatenate, maps and objects merge
// recursively and set scalars replace.
func (o *Override) Merge(src *Override) error {
	if src == nil {
		return nil
	}
	layer, err := src.layer()
	if err != nil {
		return err
	}
	return mergo.Merge(o, layer, mergo.WithOverride, mergo.WithAppendSlice, mergo.WithTransformers(scalarPointers{}))
}

// layer copies o without its nested operation and tag tables, so merged
// results never alias configuration data.
func (o *Override) layer() (*Override, error) {
	if o == nil {
		return &Override{}, nil
	}
	shallow := *o
	shallow.Operations, shallow.Tags = nil, nil
	copied, err := copystructure.Copy(&shallow)
	if err != nil {
		return nil, fmt.Errorf("copying override: %w", err)
	}
	return copied.(*Override), nil
}

// scalarPointers makes a set pointer in a higher layer replace the lower one,
// including an explicit false or zero which mergo would otherwise treat as
// empty.
type scalarPointers struct{}

var mutatorPtrType = reflect.TypeOf(&Mutator{})

func (scalarPointers) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ.Kind() != reflect.Ptr {
		return nil
	}
	switch typ.Elem().Kind() {
	case reflect.Bool, reflect.Int, reflect.String:
	default:
		if typ != mutatorPtrType {
			return nil
		}
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// Suffix returns the name suffix for a component kind (schemas, responses,
// parameters, requestBodies).
func (o *Override) Suffix(kind string) string {
	var c ComponentOverride
	switch kind {
	case "schemas":
		c = o.Components.Schemas
	case "responses":
		c = o.Components.Responses
	case "parameters":
		c = o.Components.Parameters
	case "requestBodies":
		c = o.Components.RequestBodies
	}
	if c.Suffix != nil {
		return *c.Suffix
	}
	return defaultSuffixes[kind]
}

var defaultSuffixes = map[string]string{
	"responses":     "Response",
	"parameters":    "Parameter",
	"requestBodies": "Body",
}

// BoolOr dereferences b, falling back to def when unset.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// IntOr dereferences i, falling back to def when unset.
func IntOr(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

// UseQuery reports whether GET operations get query hooks.
func (o *Override) UseQuery() bool { return BoolOr(o.Query.UseQuery, true) }

// UseInfinite reports whether GET operations get paginated hooks.
func (o *Override) UseInfinite() bool { return BoolOr(o.Query.UseInfinite, false) }

// Signal reports whether hooks thread an AbortSignal.
func (o *Override) Signal() bool { return BoolOr(o.Query.Signal, true) }

// WithRequestOptions reports whether generated calls accept request options.
func (o *Override) WithRequestOptions() bool { return BoolOr(o.RequestOptions, true) }

// WithHeader reports whether generated files carry the banner.
func (o *Override) WithHeader() bool { return BoolOr(o.Header, true) }

// Dates reports whether date formats map to Date.
func (o *Override) Dates() bool { return BoolOr(o.UseDates, false) }

// InfiniteParam is the query parameter driven by infinite queries.
func (o *Override) InfiniteParam() string {
	if o.Query.UseInfiniteQueryParam != "" {
		return o.Query.UseInfiniteQueryParam
	}
	return "page"
}

// AcceptsContentType applies the include/exclude filters to a media type.
func (o *Override) AcceptsContentType(mediaType string) bool {
	if len(o.ContentType.Include) > 0 && !matchesAny(o.ContentType.Include, mediaType) {
		return false
	}
	return !matchesAny(o.ContentType.Exclude, mediaType)
}

func matchesAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if p == s {
			return true
		}
		re, err := regexp.Compile("^" + strings.TrimSuffix(strings.TrimPrefix(p, "^"), "$") + "$")
		if err == nil && re.MatchString(s) {
			return true
		}
	}
	return false
}

func (o *Override) validate(prefix string) error {
	for _, pattern := range append(append([]string{}, o.ContentType.Include...), o.ContentType.Exclude...) {
		if _, err := regexp.Compile(pattern); err != nil {
			return &generrors.ConfigError{Option: prefix + ".contentType", Message: "invalid pattern " + pattern, Cause: err}
		}
	}
	var err error
	o.walkMutators(func(m *Mutator) {
		if err == nil && (m.Path == "" || (m.Name == "" && !m.Default)) {
			err = &generrors.ConfigError{Option: prefix + ".mutator", Message: "path and name (or default) are required"}
		}
	})
	if err != nil {
		return err
	}
	if lo, hi := IntOr(o.Mock.ArrayMin, 1), IntOr(o.Mock.ArrayMax, 10); lo > hi {
		return &generrors.ConfigError{Option: prefix + ".mock", Message: fmt.Sprintf("arrayMin %d exceeds arrayMax %d", lo, hi)}
	}
	return nil
}

// walkMutators visits every mutator of the override tree.
func (o *Override) walkMutators(fn func(*Mutator)) {
	if o == nil {
		return
	}
	for _, m := range []*Mutator{o.Mutator, o.FormData.Mutator, o.FormURLEncoded.Mutator} {
		if m != nil {
			fn(m)
		}
	}
	for _, op := range o.Operations {
		op.walkMutators(fn)
	}
	for _, t := range o.Tags {
		t.walkMutators(fn)
	}
}
