package tenancy

import (
	"fmt"
	"regexp"
	"strings"
)

type ignorePattern struct {
	raw  string
	glob wildcard
	re   *regexp.Regexp // set for /regex/ patterns
}

// PathMatcher decides which request paths bypass tenant handling.
// Each pattern is tried as an exact path, then as a shell wildcard, then as a
// regular expression when it is wrapped in slashes.
type PathMatcher struct {
	patterns []ignorePattern
}

// NewPathMatcher compiles patterns. An invalid /regex/ pattern is a configuration error.
func NewPathMatcher(patterns []string) (*PathMatcher, error) {
	compiled, err := compileIgnorePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return &PathMatcher{patterns: compiled}, nil
}

// Match reports whether path matches any pattern.
func (m *PathMatcher) Match(path string) bool {
	if m == nil {
		return false
	}
	for _, p := range m.patterns {
		if p.raw == path || p.glob.match(path) {
			return true
		}
		if p.re != nil && p.re.MatchString(path) {
			return true
		}
	}
	return false
}

func compileIgnorePatterns(patterns []string) ([]ignorePattern, error) {
	out := make([]ignorePattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p := ignorePattern{raw: raw, glob: compileWildcard(raw)}
		if expr, ok := regexBody(raw); ok {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("%w: ignore path %q: %v", ErrConfiguration, raw, err)
			}
			p.re = re
		}
		out = append(out, p)
	}
	return out, nil
}

// regexBody returns the expression inside /.../ delimiters.
func regexBody(pattern string) (string, bool) {
	if len(pattern) < 3 || !strings.HasPrefix(pattern, "/") || !strings.HasSuffix(pattern, "/") {
		return "", false
	}
	return pattern[1 : len(pattern)-1], true
}
