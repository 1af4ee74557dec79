package extract

import "regexp"

// DefaultIndustry is used when no pattern matches.
const DefaultIndustry = "Technology"

type industryPattern struct {
	industry string
	re       *regexp.Regexp
}

// First match wins.
var industryTable = []industryPattern{
	{"Central Banking", regexp.MustCompile(`(?i)\bcentral bank|\bmonetary authority\b`)},
	{"Banking", regexp.MustCompile(`(?i)\bbank(?:s|ing)?\b|\bcredit union\b`)},
	{"Payments", regexp.MustCompile(`(?i)\bpayments?\b|\bremittances?\b|\bcard network\b|\bmerchant acquir`)},
	{"Asset Management", regexp.MustCompile(`(?i)\basset manage(?:r|ment)\b|\bwealth management\b|\bfund manager\b|\betfs?\b`)},
	{"Venture Capital", regexp.MustCompile(`(?i)\bventure capital\b|\bventure firm\b|\binvestment firm\b`)},
	{"Insurance", regexp.MustCompile(`(?i)\binsur(?:ance|er)\b|\breinsurance\b`)},
	{"Consulting", regexp.MustCompile(`(?i)\bconsult(?:ancy|ing)\b|\badvisory\b|\bprofessional services\b`)},
	{"Cryptocurrency", regexp.MustCompile(`(?i)\bcrypto(?:currency)?\b|\bblockchain\b|\bstablecoins?\b|\bweb3\b|\bdefi\b|\bdigital assets?\b`)},
	{"Fintech", regexp.MustCompile(`(?i)\bfintech\b|\bneobank\b|\bfinancial technology\b`)},
	{"E-commerce", regexp.MustCompile(`(?i)\be-?commerce\b|\bretail(?:er)?\b|\bmarketplace\b`)},
	{"Telecommunications", regexp.MustCompile(`(?i)\btelecom(?:munications)?\b|\bmobile operator\b|\bcarrier\b`)},
}

// DetermineIndustry returns the first industry whose pattern matches text.
func DetermineIndustry(text string) string {
	for _, p := range industryTable {
		if p.re.MatchString(text) {
			return p.industry
		}
	}
	return DefaultIndustry
}
