package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(billion|million|thousand|bn|mn|b|m|k)?\b`)

var unitScale = map[string]float64{
	"billion":  1e9,
	"bn":       1e9,
	"b":        1e9,
	"million":  1e6,
	"mn":       1e6,
	"m":        1e6,
	"thousand": 1e3,
	"k":        1e3,
}

// FormatFinancialAmount renders the first amount in raw as $nK, $nM or $nB.
// "450 million" becomes "$450M" and "2000000" becomes "$2M". Input with no
// number is returned trimmed.
func FormatFinancialAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	v, ok := ParseAmount(raw)
	if !ok {
		return raw
	}
	return FormatUSD(v)
}

// ParseAmount reads the first number in s with its optional magnitude
// suffix and returns the value in base units.
func ParseAmount(s string) (float64, bool) {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if scale, ok := unitScale[strings.ToLower(m[2])]; ok {
		n *= scale
	}
	return n, true
}

// FormatUSD renders a base-unit dollar value in compact notation.
func FormatUSD(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e9:
		return "$" + trimDecimal(v/1e9) + "B"
	case abs >= 1e6:
		return "$" + trimDecimal(v/1e6) + "M"
	case abs >= 1e3:
		return "$" + trimDecimal(v/1e3) + "K"
	default:
		return "$" + trimDecimal(v)
	}
}

func trimDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
