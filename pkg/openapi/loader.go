package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	oasyaml "github.com/oasdiff/yaml"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/logger"
)

// Options configure LoadGraph.
type Options struct {
	// Validate runs structural validation and records findings as warnings
	Validate bool
	Logger   logger.Logger
	// ReadFromURI overrides how documents are fetched; defaults to
	// openapi3.DefaultReadFromURI (files and http(s) with a cache)
	ReadFromURI openapi3.ReadFromURIFunc
}

// LoadGraph loads the document at input (a local path or an http(s) URL) and
// every document it references.
func LoadGraph(ctx context.Context, input string, opts Options) (*Graph, error) {
	location, err := inputLocation(input)
	if err != nil {
		return nil, err
	}

	rec := newRecorder(opts.ReadFromURI)
	loader := newLoader(ctx, rec)
	data, err := loader.ReadFromURIFunc(loader, location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	return loadGraph(ctx, loader, rec, data, location, opts)
}

// LoadGraphFromData loads an in-memory root document. key names the document
// and is the base for its relative references.
func LoadGraphFromData(ctx context.Context, data []byte, key string, opts Options) (*Graph, error) {
	location, err := inputLocation(key)
	if err != nil {
		return nil, err
	}

	rec := newRecorder(opts.ReadFromURI)
	rec.record(documentKey(location), data)
	loader := newLoader(ctx, rec)
	return loadGraph(ctx, loader, rec, data, location, opts)
}

// ValidateDocument loads input with validation on and returns the findings.
// A document that cannot be loaded at all is an error.
func ValidateDocument(ctx context.Context, input string, log logger.Logger) ([]error, error) {
	g, err := LoadGraph(ctx, input, Options{Validate: true, Logger: log})
	if err != nil {
		return nil, err
	}
	return g.Warnings, nil
}

func newLoader(ctx context.Context, rec *recorder) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx
	loader.ReadFromURIFunc = rec.read
	return loader
}

func loadGraph(ctx context.Context, loader *openapi3.Loader, rec *recorder, data []byte, location *url.URL, opts Options) (*Graph, error) {
	log := logger.OrNop(opts.Logger)
	rootKey := documentKey(location)

	raw, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rootKey, err)
	}

	var doc *openapi3.T
	converted := false
	if isSwagger2(raw) {
		doc, err = convertSwagger2(loader, data, location)
		if err != nil {
			log.Warn("swagger 2.0 conversion failed, using the document as is", "spec", rootKey, "error", err)
		} else {
			converted = true
			log.Debug("converted swagger 2.0 document", "spec", rootKey)
			if raw, err = rawFromDoc(doc); err != nil {
				return nil, fmt.Errorf("decoding converted %s: %w", rootKey, err)
			}
		}
	}
	if doc == nil {
		doc, err = loader.LoadFromDataWithPath(data, location)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", rootKey, err)
		}
	}

	g := newGraph(rootKey)
	g.add(&Document{Key: rootKey, Doc: doc, Raw: raw, Converted: converted})

	for _, key := range rec.order {
		if key == rootKey {
			continue
		}
		d, err := fragmentDocument(key, rec.data[key])
		if err != nil {
			return nil, err
		}
		g.add(d)
		log.Debug("loaded referenced document", "spec", key)
	}

	if opts.Validate {
		if err := doc.Validate(ctx); err != nil {
			g.Warnings = append(g.Warnings, err)
			log.Warn("document failed validation", "spec", rootKey, "error", err)
		}
	}
	return g, nil
}

// fragmentDocument decodes a referenced document. Its references are left
// unresolved: they are resolved on demand relative to the fragment itself.
func fragmentDocument(key string, data []byte) (*Document, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	doc := &openapi3.T{}
	if err := doc.UnmarshalJSON(jsonData); err != nil {
		// Fragments that are a bare schema have no document shape.
		doc = &openapi3.T{}
	}
	return &Document{Key: key, Doc: doc, Raw: raw}, nil
}

// decodeRaw turns YAML or JSON into generic maps with string keys.
func decodeRaw(data []byte) (map[string]any, error) {
	jsonData, err := oasyaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func rawFromDoc(doc *openapi3.T) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// isSwagger2 reports whether the raw document declares a 2.x version.
func isSwagger2(raw map[string]any) bool {
	version, ok := raw["swagger"].(string)
	if !ok {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Major() == 2
}

func convertSwagger2(loader *openapi3.Loader, data []byte, location *url.URL) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := oasyaml.Unmarshal(data, &doc2); err != nil {
		return nil, &generrors.ConversionError{Source: documentKey(location), Cause: err}
	}
	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, &generrors.ConversionError{Source: documentKey(location), Cause: err}
	}
	if err := loader.ResolveRefsIn(doc3, location); err != nil {
		return nil, &generrors.ConversionError{Source: documentKey(location), Cause: err}
	}
	return doc3, nil
}

// inputLocation turns a path or URL into the location the loader resolves
// relative references against.
func inputLocation(input string) (*url.URL, error) {
	if config.IsURL(input) {
		return url.Parse(input)
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", input, err)
	}
	return &url.URL{Path: filepath.ToSlash(abs)}, nil
}

// documentKey is the identity of a document: an absolute URL without
// fragment, or an absolute cleaned file path.
func documentKey(u *url.URL) string {
	if u.Scheme == "http" || u.Scheme == "https" {
		c := *u
		c.Fragment = ""
		return c.String()
	}
	p := filepath.FromSlash(u.Path)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// ResolveKey resolves a document reference relative to the document
// identified by base.
func ResolveKey(base, ref string) (string, error) {
	if config.IsURL(ref) {
		u, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		return documentKey(u), nil
	}
	if config.IsURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", err
		}
		r, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		return documentKey(b.ResolveReference(r)), nil
	}
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref)), nil
}

// recorder remembers every document the loader reads, in first-read order.
type recorder struct {
	next  openapi3.ReadFromURIFunc
	data  map[string][]byte
	order []string
}

func newRecorder(next openapi3.ReadFromURIFunc) *recorder {
	if next == nil {
		next = openapi3.DefaultReadFromURI
	}
	return &recorder{next: next, data: map[string][]byte{}}
}

func (r *recorder) read(loader *openapi3.Loader, location *url.URL) ([]byte, error) {
	key := documentKey(location)
	if data, ok := r.data[key]; ok {
		return data, nil
	}
	data, err := r.next(loader, location)
	if err != nil {
		return nil, err
	}
	r.record(key, data)
	return data, nil
}

func (r *recorder) record(key string, data []byte) {
	if _, ok := r.data[key]; ok {
		return
	}
	r.data[key] = data
	r.order = append(r.order, key)
}
