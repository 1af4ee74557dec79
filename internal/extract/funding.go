package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/normalize"
)

const amountPattern = `\$\s?(\d[\d,]*(?:\.\d+)?\s*(?:billion|million|thousand|bn|mn|[bmk])?)\b`

const approx = `(?:(?:about|approximately|around|roughly|nearly|over|more than|a reported|an estimated|a total of)\s+)?`

var (
	raisedRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:raised|raises|raising|secured|secures|closed|closes|landed|lands)\s+(?:a\s+|an\s+)?` + approx + amountPattern),
		regexp.MustCompile(`(?i)\b(?:total funding|total raised|funding total)\s+(?:of\s+|to\s+|at\s+)?` + approx + amountPattern),
		regexp.MustCompile(`(?i)` + amountPattern + `\s+(?:in\s+)?(?:total\s+)?(?:funding|financing|investment)\b`),
		regexp.MustCompile(`(?i)\bacquired by\s+[A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3}\s+for\s+` + approx + amountPattern),
		regexp.MustCompile(`(?i)\b(?:acquired|acquires|acquisition of|to acquire|bought|buys)\s+[A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3}\s+for\s+` + approx + amountPattern),
	}

	roundRe = regexp.MustCompile(`(?i)\b(pre-seed|seed|series [a-h]\d?|angel|growth|strategic|venture)\s+(?:funding\s+|investment\s+)?round\b|\b(series [a-h]\d?)\b`)

	valuationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvaluation of\s+` + approx + amountPattern),
		regexp.MustCompile(`(?i)\bvalued (?:it )?at\s+` + approx + amountPattern),
		regexp.MustCompile(`(?i)` + amountPattern + `\s+valuation\b`),
	}

	leadInvestorRe = regexp.MustCompile(`(?:led by|co-led by|with participation from|backed by)\s+([A-Z][^.;:]{1,160})`)

	roundDateRe = regexp.MustCompile(`(?i)\b(?:in|on)\s+((?:january|february|march|april|may|june|july|august|september|october|november|december)\s+(?:\d{1,2},\s+)?\d{4})\b`)
)

// ExtractFundingFromText pulls the raised amount, last round label and
// valuation out of text. Returns nil when nothing is found. Acquisition
// prices count as the total raised.
func ExtractFundingFromText(text string) *model.FundingInfo {
	f := &model.FundingInfo{}

	for _, re := range raisedRes {
		if m := re.FindStringSubmatch(text); m != nil {
			f.TotalRaised = normalize.FormatFinancialAmount(m[1])
			break
		}
	}

	if m := roundRe.FindStringSubmatch(text); m != nil {
		label := m[1]
		if label == "" {
			label = m[2]
		}
		f.LastRound = roundLabel(label)
		if d := roundDateRe.FindStringSubmatch(text); d != nil {
			f.LastRoundDate = d[1]
		}
	}

	for _, re := range valuationRes {
		if m := re.FindStringSubmatch(text); m != nil {
			f.Valuation = normalize.FormatFinancialAmount(m[1])
			break
		}
	}

	if m := leadInvestorRe.FindStringSubmatch(text); m != nil {
		f.Investors = splitInvestors(m[1])
	}

	if f.TotalRaised == "" && f.LastRound == "" && f.Valuation == "" {
		return nil
	}
	return f
}

func roundLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "series ") {
		return "Series " + strings.ToUpper(strings.TrimPrefix(s, "series "))
	}
	if s == "pre-seed" {
		return "Pre-Seed"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var investorSplitRe = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)

func splitInvestors(s string) []string {
	var out []string
	for _, part := range investorSplitRe.Split(s, -1) {
		part = leadingCapitalized(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == 8 {
			break
		}
	}
	return out
}

// leadingCapitalized keeps the run of capitalized tokens at the start of s,
// so "Dragonfly in March" yields "Dragonfly".
func leadingCapitalized(s string) string {
	var kept []string
	for _, tok := range strings.Fields(s) {
		if !startsUpper(tok) {
			break
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
