package chain

import (
	"net/http"
	"strings"
)

// PathMatcher matches request paths against an ant-style pattern. Patterns
// ending in "/**" match the bare path and everything below it, mirroring
// the registration patterns of servlet-style security chains.
type PathMatcher struct {
	exact  string
	prefix string // non-empty for "/**" patterns
}

// NewPathMatcher compiles a pattern such as "/saml/sp/SSO/**".
func NewPathMatcher(pattern string) *PathMatcher {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		if base == "" || base == "/" {
			return &PathMatcher{exact: "/", prefix: "/"}
		}
		return &PathMatcher{exact: base, prefix: base + "/"}
	}
	return &PathMatcher{exact: pattern}
}

// Matches reports whether the request path matches the pattern.
func (m *PathMatcher) Matches(r *http.Request) bool {
	path := r.URL.Path
	if path == m.exact {
		return true
	}
	return m.prefix != "" && strings.HasPrefix(path, m.prefix)
}
