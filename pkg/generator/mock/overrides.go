package mock

import (
	"regexp"
	"sort"
	"strings"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
)

// defaultFormats maps a schema format to its faker expression.
var defaultFormats = map[string]string{
	"date":      "faker.date.past().toISOString().split('T')[0]",
	"date-time": "`${faker.date.past().toISOString().split('.')[0]}Z`",
	"time":      "faker.date.past().toISOString().split('T')[1].split('.')[0]",
	"email":     "faker.internet.email()",
	"uuid":      "faker.string.uuid()",
	"uri":       "faker.internet.url()",
	"url":       "faker.internet.url()",
	"hostname":  "faker.internet.domainName()",
	"ipv4":      "faker.internet.ipv4()",
	"ipv6":      "faker.internet.ipv6()",
	"password":  "faker.internet.password()",
	"byte":      "btoa(faker.string.alphanumeric(12))",
	"binary":    "new Blob(faker.helpers.arrayElements(faker.word.words(10).split(' ')))",
}

type propertyRule struct {
	pattern *regexp.Regexp
	expr    string
}

// propertyLayer holds the property overrides of one level of the override
// tree: exact paths, then /regex/ keys in key order.
type propertyLayer struct {
	exact    map[string]string
	patterns []propertyRule
}

// propertyOverrides resolves property overrides for one operation, most
// specific layer first: the operation, its tags, then the global override.
type propertyOverrides []propertyLayer

func newPropertyOverrides(global *config.Override, v *ir.VerbOption) (propertyOverrides, error) {
	var layers []map[string]string
	if op := global.Operations[v.OperationID]; op != nil {
		layers = append(layers, op.Mock.Properties)
	}
	tagged := map[string]string{}
	for _, tag := range v.Tags {
		if t := global.Tags[tag]; t != nil {
			for k, expr := range t.Mock.Properties {
				tagged[k] = expr
			}
		}
	}
	layers = append(layers, tagged, global.Mock.Properties)

	out := make(propertyOverrides, 0, len(layers))
	for _, props := range layers {
		layer, err := compileLayer(props)
		if err != nil {
			return nil, err
		}
		out = append(out, layer)
	}
	return out, nil
}

func compileLayer(props map[string]string) (propertyLayer, error) {
	layer := propertyLayer{exact: map[string]string{}}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(k) < 2 || !strings.HasPrefix(k, "/") || !strings.HasSuffix(k, "/") {
			layer.exact[k] = props[k]
			continue
		}
		re, err := regexp.Compile(k[1 : len(k)-1])
		if err != nil {
			return propertyLayer{}, &generrors.ConfigError{
				Option:  "override.mock.properties",
				Message: "invalid pattern " + k,
				Cause:   err,
			}
		}
		layer.patterns = append(layer.patterns, propertyRule{pattern: re, expr: props[k]})
	}
	return layer, nil
}

// find returns the override of a dotted property path.
func (p propertyOverrides) find(path string) (string, bool) {
	for _, layer := range p {
		if expr, ok := layer.exact[path]; ok {
			return expr, true
		}
		for _, rule := range layer.patterns {
			if rule.pattern.MatchString(path) {
				return rule.expr, true
			}
		}
	}
	return "", false
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
