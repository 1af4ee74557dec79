package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// corporateSuffixes are trailing name tokens dropped before slugging.
var corporateSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"llc":          true,
	"ltd":          true,
	"limited":      true,
	"plc":          true,
	"gmbh":         true,
	"ag":           true,
	"sa":           true,
	"sas":          true,
	"bv":           true,
	"nv":           true,
	"lp":           true,
	"llp":          true,
	"pte":          true,
	"pty":          true,
	"srl":          true,
	"spa":          true,
	"kk":           true,
}

// CompanyID derives the deterministic directory id for a company name:
// accents folded, lowercased, punctuation stripped and trailing corporate
// suffixes removed. "Acme Corp, Inc." and "Acme Corp Inc" share an id.
func CompanyID(name string) string {
	tokens := slugTokens(name)
	end := len(tokens)
	for end > 1 && corporateSuffixes[tokens[end-1]] {
		end--
	}
	return strings.Join(tokens[:end], "-")
}

func slugTokens(name string) []string {
	folded := foldAccents(strings.ToLower(strings.TrimSpace(name)))
	folded = strings.ReplaceAll(folded, "&", " and ")
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
