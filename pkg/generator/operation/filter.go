package operation

import (
	"fmt"
	"regexp"
)

// TagFilter keeps or drops operations by their declared tags. Patterns are
// regular expressions.
type TagFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewTagFilter compiles include and exclude patterns.
func NewTagFilter(include, exclude []string) (*TagFilter, error) {
	inc, err := compilePatterns("includeTags", include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns("excludeTags", exclude)
	if err != nil {
		return nil, err
	}
	return &TagFilter{include: inc, exclude: exc}, nil
}

func compilePatterns(option string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", option, p, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Includes reports whether an operation with the given tags is generated.
// An untagged operation is matched as if tagged "default".
func (f *TagFilter) Includes(tags []string) bool {
	if f == nil {
		return true
	}
	if len(tags) == 0 {
		tags = []string{DefaultTag}
	}

	// Any tag matching any include pattern includes the operation
	included := len(f.include) == 0
	for _, tag := range tags {
		if included {
			break
		}
		for _, r := range f.include {
			if r.MatchString(tag) {
				included = true
				break
			}
		}
	}
	if !included {
		return false
	}

	// Any tag matching any exclude pattern drops it
	for _, tag := range tags {
		for _, r := range f.exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}
	return true
}
