package extract

import (
	"regexp"
	"strings"
)

var capitalizedRunRe = regexp.MustCompile(`\b[A-Z][\w&'-]*(?:\s+(?:of\s+|de\s+|&\s+)?[A-Z][\w&'-]*){0,3}`)

var nameStoplist = toSet(
	"the", "a", "an", "this", "that", "these", "those", "in", "on", "at", "for",
	"with", "and", "but", "or", "as", "by", "from", "to", "of", "it", "its",
	"we", "our", "they", "their", "he", "she", "his", "her",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"ceo", "cfo", "cto", "coo", "president", "chairman", "founder", "co-founder",
	"director", "head", "manager", "vice", "chief", "officer", "executive",
	"mr", "mrs", "ms", "dr", "today", "yesterday", "tomorrow", "news", "read",
	"more", "press", "release", "update", "breaking", "exclusive", "report",
	"according", "however", "meanwhile", "also", "new", "global", "stablecoin",
	"stablecoins", "crypto", "bitcoin", "ethereum", "blockchain", "series",
	"portfolio", "portfolios", "investment", "investments", "updates",
)

// roleTokens split a run: "Paxos CEO Charles Cascarilla" names a company,
// then a person.
var roleTokens = toSet(
	"ceo", "cfo", "cto", "coo", "cso", "cmo", "president", "chairman", "chairwoman",
	"founder", "co-founder", "cofounder", "director", "head", "manager", "chief",
	"officer", "executive", "partner", "analyst", "spokesperson", "mr", "mrs",
	"ms", "dr",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ExtractCompanyNamesFromText returns capitalized one to four word runs
// that look like organization names, in order of first appearance.
// Names in exclude are skipped case-insensitively.
func ExtractCompanyNamesFromText(text string, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[strings.ToLower(strings.TrimSpace(e))] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, raw := range capitalizedRunRe.FindAllString(text, -1) {
		for _, seg := range splitRun(raw) {
			name := trimStopTokens(seg)
			if name == "" || name[0] >= '0' && name[0] <= '9' {
				continue
			}
			key := strings.ToLower(name)
			if skip[key] || seen[key] || nameStoplist[key] || len(name) < 2 {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

// splitRun breaks a capitalized run at role titles and at tokens carrying
// digits ("Q3", "2025"). The words after a role name a person and are
// dropped, unless they read "of X".
func splitRun(raw string) []string {
	var segs []string
	var cur []string
	afterRole := false
	flush := func() {
		if len(cur) > 0 && !afterRole {
			segs = append(segs, strings.Join(cur, " "))
		}
		cur = cur[:0]
	}
	for _, tok := range strings.Fields(raw) {
		lower := strings.ToLower(strings.Trim(tok, ".,'"))
		switch {
		case roleTokens[lower]:
			flush()
			afterRole = true
		case strings.ContainsAny(tok, "0123456789"):
			flush()
			afterRole = false
		case afterRole && len(cur) == 0 && lower == "of":
			afterRole = false
		default:
			cur = append(cur, tok)
		}
	}
	flush()
	return segs
}

// trimStopTokens drops stoplisted tokens from both ends of a run, so "The
// Circle" yields "Circle".
func trimStopTokens(raw string) string {
	toks := strings.Fields(raw)
	for len(toks) > 0 && nameStoplist[strings.ToLower(strings.Trim(toks[0], ".,'"))] {
		toks = toks[1:]
	}
	for len(toks) > 0 && nameStoplist[strings.ToLower(strings.Trim(toks[len(toks)-1], ".,'"))] {
		toks = toks[:len(toks)-1]
	}
	name := strings.Join(toks, " ")
	name = strings.TrimSuffix(strings.TrimSuffix(name, "'s"), "’s")
	return strings.Trim(name, " .,'-")
}
