package tenancy

import (
	"regexp"
	"strings"
)

var portSuffix = regexp.MustCompile(`:\d+$`)

// ValidateHost reports whether host (optionally carrying a :port suffix) is a
// syntactically valid hostname and matches one of the allowed patterns.
// An empty pattern list allows any valid hostname.
// Patterns use shell wildcards: '*' matches any run of characters, dots included.
// Callers checking many hosts against the same patterns should build a
// HostMatcher once instead.
func ValidateHost(host string, allowedPatterns []string) bool {
	return NewHostMatcher(allowedPatterns).Match(host)
}

// HostMatcher is a compiled allow-list of host patterns, see ValidateHost.
type HostMatcher struct {
	patterns []wildcard
}

// NewHostMatcher compiles patterns. Patterns compare case-insensitively.
func NewHostMatcher(patterns []string) *HostMatcher {
	m := &HostMatcher{patterns: make([]wildcard, 0, len(patterns))}
	for _, p := range patterns {
		m.patterns = append(m.patterns, compileWildcard(strings.ToLower(p)))
	}
	return m
}

// Match reports whether host is a valid hostname allowed by m.
func (m *HostMatcher) Match(host string) bool {
	host = StripPort(host)
	if !isHostname(host) {
		return false
	}
	if m == nil || len(m.patterns) == 0 {
		return true
	}

	host = strings.ToLower(host)
	for _, w := range m.patterns {
		if w.match(host) {
			return true
		}
	}
	return false
}

// StripPort removes a trailing :port from host.
func StripPort(host string) string {
	return portSuffix.ReplaceAllString(strings.TrimSpace(host), "")
}

// isHostname checks RFC 1123 hostname syntax: dot separated labels of letters,
// digits and hyphens, no label starting or ending with a hyphen.
func isHostname(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "" || len(host) > 253 {
		return false
	}
	for label := range strings.SplitSeq(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	return true
}

// wildcard is a compiled shell pattern where '*' matches any sequence
// (including '/' and '.'), '?' one character, and [...] a class.
// A pattern without metacharacters compares literally.
type wildcard struct {
	literal string
	re      *regexp.Regexp
	invalid bool
}

func compileWildcard(pattern string) wildcard {
	if !strings.ContainsAny(pattern, "*?[") {
		return wildcard{literal: pattern}
	}
	re, err := wildcardRegexp(pattern)
	if err != nil {
		return wildcard{literal: pattern, invalid: true}
	}
	return wildcard{literal: pattern, re: re}
}

func (w wildcard) match(value string) bool {
	switch {
	case w.invalid:
		return false
	case w.re != nil:
		return w.re.MatchString(value)
	default:
		return w.literal == value
	}
}

func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
