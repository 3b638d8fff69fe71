// Package mutator inspects user-supplied mutator files.
//
// The inspection is textual: it finds the exported function and counts its
// declared parameters, which decides the arguments generated call sites pass.
package mutator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// Inspector inspects mutators, reading each file once per run.
type Inspector struct {
	cache map[string]*ir.Mutator
}

// NewInspector creates an Inspector.
func NewInspector() *Inspector {
	return &Inspector{cache: map[string]*ir.Mutator{}}
}

// Inspect reads the mutator's file and inspects its export. A nil mutator
// yields nil.
func (i *Inspector) Inspect(m *config.Mutator) (*ir.Mutator, error) {
	if m == nil {
		return nil, nil
	}
	key := fmt.Sprintf("%s|%s|%t", m.Path, m.Name, m.Default)
	if cached, ok := i.cache[key]; ok {
		return cached, nil
	}
	src, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, &generrors.ConfigError{Option: "mutator", Message: "reading " + m.Path, Cause: err}
	}
	out, err := InspectSource(src, m)
	if err != nil {
		return nil, err
	}
	i.cache[key] = out
	return out, nil
}

// InspectSource inspects mutator source text.
func InspectSource(src []byte, m *config.Mutator) (*ir.Mutator, error) {
	text := stripComments(string(src))

	var (
		open int
		ok   bool
	)
	if m.Default {
		open, ok = findDefault(text)
	} else {
		open, ok = findExport(text, m.Name)
	}
	if !ok {
		export := m.Name
		if m.Default {
			export = "default"
		}
		return nil, &generrors.ConfigError{
			Option:  "mutator",
			Message: fmt.Sprintf("%s does not export a function %q", m.Path, export),
		}
	}

	count := countParams(text[open:])
	return &ir.Mutator{
		Name:         name(m),
		Path:         m.Path,
		Default:      m.Default,
		HasSecondArg: count >= 2,
		HasThirdArg:  count >= 3,
	}, nil
}

// name is the local identifier generated code imports the mutator as.
func name(m *config.Mutator) string {
	if m.Name != "" {
		return m.Name
	}
	base := filepath.Base(m.Path)
	return utils.VariableName(strings.TrimSuffix(base, filepath.Ext(base)))
}

const (
	generics  = `(?:<[^(]*>)?`
	arrowHead = `\s*(?::[^=]+)?=\s*(?:async\s*)?` + generics + `\s*\(`
)

func definitionPatterns(name string) []*regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[\s;])(?:async\s+)?function\s+` + q + `\s*` + generics + `\s*\(`),
		regexp.MustCompile(`(?:^|[\s;])(?:const|let|var)\s+` + q + arrowHead),
	}
}

// findExport returns the offset of the parameter list's opening parenthesis
// of the exported function name.
func findExport(text, name string) (int, bool) {
	q := regexp.QuoteMeta(name)
	direct := []*regexp.Regexp{
		regexp.MustCompile(`export\s+(?:async\s+)?function\s+` + q + `\s*` + generics + `\s*\(`),
		regexp.MustCompile(`export\s+(?:const|let|var)\s+` + q + arrowHead),
	}
	for _, re := range direct {
		if loc := re.FindStringIndex(text); loc != nil {
			return loc[1] - 1, true
		}
	}
	// export { name } or export { local as name }
	list := regexp.MustCompile(`export\s*\{([^}]*)\}`)
	for _, match := range list.FindAllStringSubmatch(text, -1) {
		for _, entry := range strings.Split(match[1], ",") {
			fields := strings.Fields(entry)
			switch {
			case len(fields) == 1 && fields[0] == name:
				return findDefinition(text, name)
			case len(fields) == 3 && fields[1] == "as" && fields[2] == name:
				return findDefinition(text, fields[0])
			}
		}
	}
	return 0, false
}

func findDefault(text string) (int, bool) {
	re := regexp.MustCompile(`export\s+default\s+(?:async\s+)?(?:function\s*(?:[\w$]+)?\s*` + generics + `\s*\(|` + generics + `\s*\()`)
	if loc := re.FindStringIndex(text); loc != nil {
		return loc[1] - 1, true
	}
	named := regexp.MustCompile(`export\s+default\s+([\w$]+)\s*;?`)
	if m := named.FindStringSubmatch(text); m != nil {
		return findDefinition(text, m[1])
	}
	return 0, false
}

func findDefinition(text, name string) (int, bool) {
	for _, re := range definitionPatterns(name) {
		if loc := re.FindStringIndex(text); loc != nil {
			return loc[1] - 1, true
		}
	}
	return 0, false
}

// countParams counts the top-level parameters of the list opening at s[0].
func countParams(s string) int {
	depth := 0
	count := 0
	pending := false
	for i, r := range s {
		switch r {
		case '(', '[', '{', '<':
			depth++
			if depth == 1 {
				continue
			}
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if pending {
					count++
				}
				return count
			}
		case '>':
			if i > 0 && s[i-1] == '=' {
				break
			}
			depth--
		case ',':
			if depth == 1 {
				if pending {
					count++
				}
				pending = false
				continue
			}
		}
		if depth >= 1 && !isSpace(r) {
			pending = true
		}
	}
	return count
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)//.*$`)
)

func stripComments(s string) string {
	return lineComment.ReplaceAllString(blockComment.ReplaceAllString(s, ""), "")
}
