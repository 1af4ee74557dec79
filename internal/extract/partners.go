package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// MaxPartners caps partners extracted from one batch of search results.
const MaxPartners = 10

// namePattern captures a run of up to five capitalized tokens.
const namePattern = `([A-Z][\w&.'-]*(?:\s+(?:[A-Z][\w&.'-]*|of|de|&)){0,4})`

var (
	partnerWithRe = regexp.MustCompile(`(?i:partner(?:s|ed|ing)?\s+with|teams?\s+up\s+with|teamed\s+up\s+with|collaborat(?:es|ed|ing)\s+with|join(?:s|ed)?\s+forces\s+with|(?:in\s+)?partnership\s+with|integrat(?:es|ed)\s+with|alliance\s+with)\s+(?:the\s+)?` + namePattern)

	partnerSubjectRe = regexp.MustCompile(namePattern + `\s+(?:has\s+|have\s+)?(?i:partner(?:s|ed)|teams?\s+up|teamed\s+up|collaborat(?:es|ed)|join(?:s|ed)\s+forces)\b`)

	acquirerRe = regexp.MustCompile(`(?i:acquired\s+by|acquisition\s+by|bought\s+by|to\s+be\s+acquired\s+by)\s+` + namePattern)

	acquiresRe = regexp.MustCompile(namePattern + `\s+(?i:acquires|acquired|buys|bought|to\s+acquire|completes\s+acquisition\s+of)\s+` + namePattern)

	purposeRe = regexp.MustCompile(`(?i)\b(?:partner(?:s|ed|ing|ship)?|teams?\s+up|teamed\s+up|collaborat\w*|join(?:s|ed)?\s+forces|integrat\w*)\b[^.!?]{0,80}?\b(to|for|on)\s+([^.!?;]{6,120})`)

	sentenceSplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
)

// nameNoise ends a captured partner name: headline verbs and prepositions
// that title case makes look like part of the name.
var nameNoise = map[string]bool{
	"to": true, "for": true, "on": true, "in": true, "and": true, "with": true,
	"as": true, "the": true, "at": true, "by": true, "from": true, "after": true,
	"amid": true, "over": true, "via": true, "using": true, "into": true,
	"enable": true, "enables": true, "launch": true, "launches": true,
	"expand": true, "expands": true, "bring": true, "brings": true,
	"offer": true, "offers": true, "power": true, "powers": true,
	"support": true, "supports": true, "announce": true, "announces": true,
	"partnership": true, "partner": true, "partners": true, "partnered": true,
	"deal": true, "agreement": true, "pilot": true, "integration": true,
	"program": true, "initiative": true, "stablecoin": true, "stablecoins": true,
	"team": true, "teams": true, "joins": true, "collaborates": true,
	"is": true, "was": true, "will": true, "has": true, "have": true,
}

// partnerStoplist rejects filler captured in place of a name.
var partnerStoplist = map[string]bool{
	"the": true, "a": true, "an": true, "it": true, "its": true, "this": true,
	"that": true, "they": true, "their": true, "we": true, "our": true, "us": true,
	"company": true, "companies": true, "firm": true, "firms": true,
	"startup": true, "startups": true, "partners": true, "others": true,
	"several": true, "various": true, "major": true, "leading": true,
	"global": true, "new": true, "both": true, "other": true, "many": true,
	"local": true, "top": true, "today": true, "here": true, "report": true,
	"exclusive": true, "breaking": true, "update": true, "news": true,
	"also": true, "how": true, "why": true, "what": true, "banks": true,
}

var (
	investorNameRe = regexp.MustCompile(`(?i)\bcapital(?: (?:partners|management|group))?$|\b(?:ventures?|fund|funds|investments?|holdings|vc|asset management|a16z|andreessen horowitz|paradigm|sequoia|accel|ribbit|pantera|multicoin|polychain|dragonfly|galaxy digital|digital currency group)\b`)

	investorContextRe = regexp.MustCompile(`(?i)\b(?:led by|invested|investment from|backed by|funding round|participation from)\b`)
)

// enterprises are large traditional companies tagged Fortune500Global.
var enterprises = []string{
	"visa", "mastercard", "american express", "amex", "paypal", "stripe",
	"jpmorgan", "j.p. morgan", "goldman sachs", "morgan stanley", "citi",
	"citigroup", "bank of america", "wells fargo", "capital one", "bny", "state street",
	"blackrock", "fidelity", "franklin templeton", "hsbc", "barclays",
	"santander", "deutsche bank", "bnp paribas", "societe generale", "ubs",
	"standard chartered", "microsoft", "google", "amazon", "apple", "meta",
	"walmart", "shopify", "salesforce", "ibm", "oracle", "sony", "samsung",
	"nvidia", "worldpay", "fiserv", "fis", "moneygram", "western union",
	"nasdaq", "cme group", "deloitte", "pwc", "kpmg", "ey", "accenture",
	"mckinsey", "siemens", "telefonica", "vodafone", "uber", "airbnb",
}

// InferPartnerType guesses the relationship type from the partner's name
// and the sentence it came from.
func InferPartnerType(name, context string) model.PartnerType {
	if investorNameRe.MatchString(name) {
		return model.PartnerInvestor
	}
	lower := strings.ToLower(name)
	for _, e := range enterprises {
		if lower == e || strings.HasPrefix(lower, e+" ") {
			return model.PartnerFortune500Global
		}
	}
	if context != "" && investorContextRe.MatchString(context) && strings.Contains(strings.ToLower(context), lower) {
		return model.PartnerInvestor
	}
	return model.PartnerCryptoNative
}

type candidate struct {
	name     string
	sentence string
	acquirer bool
}

// ExtractPartnersFromSearch finds partnership and acquirer relationships
// for companyName in search results. Names are deduplicated
// case-insensitively and at most MaxPartners are returned.
func ExtractPartnersFromSearch(results []model.SearchResult, companyName string) []model.Partner {
	seen := make(map[string]bool)
	var out []model.Partner

	for _, res := range results {
		text := strings.TrimSpace(res.Title + ". " + res.Snippet)
		for _, c := range partnerCandidates(text, companyName) {
			name := cleanPartnerName(c.name)
			if !acceptablePartner(name, companyName) {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true

			p := model.Partner{Name: name, Type: InferPartnerType(name, c.sentence)}
			if c.acquirer {
				p.Description = acquirerDescription(c.sentence, companyName)
			} else {
				p.Description = BuildPartnerDescription(text, companyName, name)
			}
			out = append(out, p)
			if len(out) == MaxPartners {
				return out
			}
		}
	}
	return out
}

// partnerCandidates collects partner names from each sentence. Acquirers
// are kept only when the acquired party is companyName.
func partnerCandidates(text, companyName string) []candidate {
	var out []candidate
	for _, sentence := range splitSentences(text) {
		for _, m := range partnerWithRe.FindAllStringSubmatch(sentence, -1) {
			out = append(out, candidate{name: m[1], sentence: sentence})
		}
		for _, m := range partnerSubjectRe.FindAllStringSubmatch(sentence, -1) {
			out = append(out, candidate{name: m[1], sentence: sentence})
		}
		for _, m := range acquirerRe.FindAllStringSubmatchIndex(sentence, -1) {
			if namesCompany(sentence[:m[0]], companyName) {
				out = append(out, candidate{name: sentence[m[2]:m[3]], sentence: sentence, acquirer: true})
			}
		}
		for _, m := range acquiresRe.FindAllStringSubmatch(sentence, -1) {
			if namesCompany(cleanPartnerName(m[2]), companyName) {
				out = append(out, candidate{name: m[1], sentence: sentence, acquirer: true})
			}
		}
	}
	return out
}

// namesCompany reports whether text names companyName as a whole phrase.
func namesCompany(text, companyName string) bool {
	name := normalizeWords(companyName)
	if name == "" {
		return false
	}
	return strings.Contains(" "+normalizeWords(text)+" ", " "+name+" ")
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cleanPartnerName cuts a captured name at the first noise word and strips
// possessives and dangling connectors.
func cleanPartnerName(raw string) string {
	var kept []string
	for _, tok := range strings.Fields(raw) {
		tok = strings.Trim(tok, `,"“”`)
		if nameNoise[strings.ToLower(tok)] {
			break
		}
		kept = append(kept, tok)
	}
	for len(kept) > 0 {
		last := strings.ToLower(kept[len(kept)-1])
		if last != "of" && last != "de" && last != "&" {
			break
		}
		kept = kept[:len(kept)-1]
	}
	name := strings.Join(kept, " ")
	name = strings.TrimSuffix(strings.TrimSuffix(name, "'s"), "’s")
	return strings.Trim(name, " .'-")
}

func acceptablePartner(name, companyName string) bool {
	if len(name) < 2 || partnerStoplist[strings.ToLower(name)] {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	lname := strings.ToLower(name)
	lcompany := strings.ToLower(strings.TrimSpace(companyName))
	if lcompany == "" {
		return true
	}
	return lname != lcompany && !strings.Contains(lname, lcompany) && !strings.Contains(lcompany, lname)
}

// partnerPurposeLabels map keywords to a description when no purpose
// clause is found. Order matters.
var partnerPurposeLabels = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\bintegrat`), "Technology integration"},
	{regexp.MustCompile(`(?i)\bcustod`), "Custody partnership"},
	{regexp.MustCompile(`(?i)\btokeni[sz]`), "Tokenization partnership"},
	{regexp.MustCompile(`(?i)\bcross-border\b|\bremittance`), "Cross-border payments partnership"},
	{regexp.MustCompile(`(?i)\bsettlement`), "Settlement partnership"},
	{regexp.MustCompile(`(?i)\bcards?\b`), "Card program partnership"},
	{regexp.MustCompile(`(?i)\bpayments?\b`), "Payments partnership"},
	{regexp.MustCompile(`(?i)\bliquidity\b`), "Liquidity partnership"},
	{regexp.MustCompile(`(?i)\bwallets?\b`), "Wallet partnership"},
	{regexp.MustCompile(`(?i)\bon-?ramps?\b|\boff-?ramps?\b`), "On/off-ramp partnership"},
	{regexp.MustCompile(`(?i)\bstablecoins?\b`), "Stablecoin partnership"},
}

// BuildPartnerDescription describes the relationship between companyName
// and partnerName using, in order: a purpose clause near the partnership
// verb, a keyword label, the sentence naming both, or a template.
func BuildPartnerDescription(text, companyName, partnerName string) string {
	sentence := sentenceMentioning(text, partnerName, companyName)

	if m := purposeRe.FindStringSubmatch(sentence); m != nil {
		clause := strings.TrimRight(strings.TrimSpace(m[2]), ",:- ")
		if clause != "" {
			return "Partnership " + strings.ToLower(m[1]) + " " + clause
		}
	}

	for _, l := range partnerPurposeLabels {
		if l.re.MatchString(sentence) {
			return l.label
		}
	}

	if sentence != "" && companyName != "" &&
		strings.Contains(strings.ToLower(sentence), strings.ToLower(companyName)) &&
		len(sentence) <= 200 {
		return sentence
	}

	if companyName == "" {
		return fmt.Sprintf("Partner of record: %s", partnerName)
	}
	return fmt.Sprintf("Partnership between %s and %s", companyName, partnerName)
}

// sentenceMentioning returns the first sentence naming both entities,
// else the first naming the partner.
func sentenceMentioning(text, partnerName, companyName string) string {
	lp := strings.ToLower(partnerName)
	lc := strings.ToLower(companyName)
	var fallback string
	for _, s := range splitSentences(text) {
		ls := strings.ToLower(s)
		if !strings.Contains(ls, lp) {
			continue
		}
		if lc != "" && strings.Contains(ls, lc) {
			return s
		}
		if fallback == "" {
			fallback = s
		}
	}
	return fallback
}

func acquirerDescription(sentence, companyName string) string {
	desc := "Acquirer"
	if companyName != "" {
		desc = "Acquired " + companyName
	}
	if f := ExtractFundingFromText(sentence); f != nil && f.TotalRaised != "" {
		desc += " for " + f.TotalRaised
	}
	return desc
}
