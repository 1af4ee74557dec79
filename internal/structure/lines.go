package structure

import (
	"regexp"
	"strings"
)

// DuplicateOverlap is the word-overlap ratio above which two bullets of
// more than minDedupeWords words count as the same bullet.
const (
	DuplicateOverlap = 0.7
	minDedupeWords   = 3
)

var (
	bulletPrefixRe = regexp.MustCompile(`^\s*(?:[-*•·▪‣]|\d{1,2}[.)])\s+`)
	markdownLineRe = regexp.MustCompile(`^\s*(?:#{1,6}\s|` + "```" + `|\|.*\||>\s|[-*_]{3,}\s*$|\*\*[^*]+\*\*:?\s*$|__[^_]+__:?\s*$)`)
	executiveRe    = regexp.MustCompile(`(?i)\b(?:ceo|cfo|cto|coo|cmo|founder|co-founder|cofounder|president|chairman|chairwoman|chief [a-z]+ officer|managing director|executive director)\b`)
	wordRe         = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// FilterLines splits body into cleaned bullet lines. Empty lines,
// markdown decoration, lines naming executives and near-duplicate bullets
// are dropped.
func FilterLines(body string) []string {
	var kept []string
	var keptWords []map[string]bool

	for _, raw := range strings.Split(body, "\n") {
		if markdownLineRe.MatchString(raw) {
			continue
		}
		line := bulletPrefixRe.ReplaceAllString(raw, "")
		line = cleanInline(line)
		if line == "" || executiveRe.MatchString(line) {
			continue
		}

		words := wordSet(line)
		if isDuplicate(line, words, kept, keptWords) {
			continue
		}
		kept = append(kept, line)
		keptWords = append(keptWords, words)
	}
	return kept
}

func cleanInline(s string) string {
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	return strings.TrimSpace(s)
}

func wordSet(s string) map[string]bool {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func isDuplicate(line string, words map[string]bool, kept []string, keptWords []map[string]bool) bool {
	for i, k := range kept {
		if strings.EqualFold(k, line) {
			return true
		}
		if len(words) > minDedupeWords && len(keptWords[i]) > minDedupeWords &&
			WordOverlap(words, keptWords[i]) > DuplicateOverlap {
			return true
		}
	}
	return false
}

// WordOverlap is the share of the smaller word set found in the larger.
func WordOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for w := range small {
		if large[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
