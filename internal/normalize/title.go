// Package normalize cleans the noisy strings that come back from web search
// before they reach extraction or persistence.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxDerivedTitle = 120
	untitled        = "Untitled"
)

var (
	// " - Reuters", " | CoinDesk", " — Blockworks". The suffix is at most
	// six words so real subtitles survive.
	siteSuffixRe = regexp.MustCompile(`\s+[-|–—]\s+(?:[^\s|–—-]+(?:\s+|$)){1,6}$`)

	bareDomainRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}(?:/\S*)?$`)

	// Google snippets often lead with "Mar 3, 2025 ... " or "2 days ago ... ".
	snippetDateRe = regexp.MustCompile(`(?i)^(?:[a-z]{3,9}\.? \d{1,2}, \d{4}|\d+ (?:minutes?|hours?|days?|weeks?) ago)\s*(?:\.\.\.|…|-)?\s*`)

	sentenceEndRe = regexp.MustCompile(`[.!?](?:\s|$)`)
)

// CleanSearchTitle strips a trailing " - Site" or " | Site" suffix. When
// what remains is a bare URL or domain, the title is derived from the first
// sentence of snippet instead. The result is never empty.
func CleanSearchTitle(title, snippet string) string {
	t := strings.TrimSpace(title)
	if loc := siteSuffixRe.FindStringIndex(t); loc != nil && loc[0] > 0 {
		t = strings.TrimSpace(t[:loc[0]])
	}

	if t != "" && !LooksLikeDomain(t) {
		return t
	}

	if derived := titleFromSnippet(snippet); derived != "" {
		return derived
	}
	return untitled
}

// LooksLikeDomain reports whether s is a bare domain or URL rather than
// prose.
func LooksLikeDomain(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.ContainsAny(s, " \t") && bareDomainRe.MatchString(s)
}

func titleFromSnippet(snippet string) string {
	s := strings.Join(strings.Fields(snippet), " ")
	s = snippetDateRe.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, ".… ")
	if s == "" {
		return ""
	}

	if loc := sentenceEndRe.FindStringIndex(s); loc != nil && loc[0] < maxDerivedTitle {
		return strings.TrimSpace(s[:loc[0]+1])
	}
	if utf8.RuneCountInString(s) <= maxDerivedTitle {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:maxDerivedTitle])
	if i := strings.LastIndex(cut, " "); i > maxDerivedTitle/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-") + "..."
}
