package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultSkipPatterns are paths no fetcher can turn into readable text.
var defaultSkipPatterns = []string{
	"/*.pdf",
	"/*.zip",
	"/*.png",
	"/*.jpg",
	"/*.mp4",
	"/login/*",
	"/signin/*",
	"/authwall/*",
}

// PathMatcher skips URLs whose path matches a glob pattern. A pattern
// ending in "/*" also matches deeper paths, and "/*.ext" matches the
// extension at any depth.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a matcher; nil or empty patterns use the defaults.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultSkipPatterns
	}
	lower := make([]string, len(patterns))
	for i, p := range patterns {
		lower[i] = strings.ToLower(p)
	}
	return &PathMatcher{patterns: lower}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// IsExcluded reports whether rawURL should be skipped. Unparseable URLs
// are excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if match(pattern, p) {
			return true
		}
	}
	return false
}

func match(pattern, p string) bool {
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	if strings.HasPrefix(pattern, "/*.") {
		return strings.HasSuffix(p, pattern[2:])
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return false
}
