// Package relevance drops crypto news noise (price talk, token promos,
// referral spam, explainers) before it reaches any feed.
package relevance

import (
	"regexp"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/sources"
)

// Group names a family of irrelevance rules.
type Group string

const (
	GroupPriceSpeculation Group = "price_speculation"
	GroupTokenPromotion   Group = "token_promotion"
	GroupExchangeSpam     Group = "exchange_spam"
	GroupTradingSignals   Group = "trading_signals"
	GroupExplainer        Group = "explainer"
	GroupBlockedDomain    Group = "blocked_domain"
)

type rule struct {
	group     Group
	re        *regexp.Regexp
	titleOnly bool
}

func r(g Group, pattern string) rule {
	return rule{group: g, re: regexp.MustCompile(`(?i)` + pattern)}
}

func titleRule(g Group, pattern string) rule {
	ru := r(g, pattern)
	ru.titleOnly = true
	return ru
}

// Order matters only for which reason is reported.
var rules = []rule{
	r(GroupPriceSpeculation, `\bprice (?:prediction|forecast|analysis|outlook|target)s?\b`),
	r(GroupPriceSpeculation, `\b(?:will|can|could) [a-z0-9 ]{1,30} (?:reach|hit|surpass|break) \$?\d`),
	r(GroupPriceSpeculation, `\b(?:bull|bear)(?:ish)? (?:run|market|case|signal)s?\b`),
	r(GroupPriceSpeculation, `\b(?:price|prices) (?:surges?|soars?|plunges?|dips?|crash(?:es)?|rall(?:y|ies)|pumps?|dumps?)\b`),
	r(GroupPriceSpeculation, `\b(?:to the moon|100x|1000x|10x gains?)\b`),
	r(GroupPriceSpeculation, `\bmarket (?:cap|capitalization) (?:ranking|milestone)s?\b`),

	r(GroupTokenPromotion, `\bairdrops?\b`),
	r(GroupTokenPromotion, `\b(?:ico|ido|ieo)s?\b`),
	r(GroupTokenPromotion, `\bpre-?sales?\b`),
	r(GroupTokenPromotion, `\btoken (?:launch|sale|generation event)\b`),
	r(GroupTokenPromotion, `\bmeme ?coins?\b`),
	r(GroupTokenPromotion, `\bnext (?:big )?(?:crypto|coin|altcoin) to (?:explode|buy)\b`),
	r(GroupTokenPromotion, `\bnft (?:drop|mint|collection)s?\b`),

	r(GroupExchangeSpam, `\bbest (?:crypto )?(?:exchanges?|wallets?|apps?|platforms?) (?:for|in|of) \d{4}\b`),
	r(GroupExchangeSpam, `\btop \d+ (?:crypto|exchanges?|coins?|altcoins?|tokens?)\b`),
	r(GroupExchangeSpam, `\b(?:referral|promo|bonus) codes?\b`),
	r(GroupExchangeSpam, `\bsign[- ]?up bonus\b`),
	r(GroupExchangeSpam, `\b(?:review|rating)s? (?:and|&) (?:fees|bonus)\b`),

	r(GroupTradingSignals, `\btrading signals?\b`),
	r(GroupTradingSignals, `\b(?:buy|sell) signals?\b`),
	r(GroupTradingSignals, `\btechnical analysis\b`),
	r(GroupTradingSignals, `\b(?:support|resistance) levels?\b`),
	r(GroupTradingSignals, `\b(?:rsi|macd|fibonacci)\b`),

	titleRule(GroupExplainer, `^\s*what (?:is|are) (?:a |an |the )?[a-z0-9 -]{1,40}\??\s*(?:$|[-:|])`),
	r(GroupExplainer, `\b(?:beginner'?s guide|explained|for dummies|101)\b`),
	titleRule(GroupExplainer, `^\s*how to (?:buy|sell|trade|stake|mine|earn)\b`),
}

// blockedDomains are promotional, audit-marketing or encyclopedia hosts.
var blockedDomains = []string{
	"investopedia.com",
	"wikipedia.org",
	"britannica.com",
	"coinmarketcap.com",
	"coingecko.com",
	"coincodex.com",
	"changelly.com",
	"certik.com",
	"hacken.io",
	"quantstamp.com",
	"cryptonews.net",
	"u.today",
	"ambcrypto.com",
	"coinpedia.org",
	"youtube.com",
	"reddit.com",
	"quora.com",
}

// Verdict explains why an item was rejected.
type Verdict struct {
	Irrelevant bool
	Group      Group
	Rule       string
}

// IsIrrelevantNews reports whether a news item is noise.
func IsIrrelevantNews(title, summary, rawURL string) bool {
	return Reason(title, summary, rawURL).Irrelevant
}

// Reason evaluates the rule table and domain blocklist and reports the
// first rule that fired.
func Reason(title, summary, rawURL string) Verdict {
	if d, ok := blockedDomain(rawURL); ok {
		return Verdict{Irrelevant: true, Group: GroupBlockedDomain, Rule: d}
	}

	title = strings.TrimSpace(title)
	text := title + "\n" + strings.TrimSpace(summary)
	for _, ru := range rules {
		target := text
		if ru.titleOnly {
			target = title
		}
		if ru.re.MatchString(target) {
			return Verdict{Irrelevant: true, Group: ru.group, Rule: ru.re.String()}
		}
	}
	return Verdict{}
}

func blockedDomain(rawURL string) (string, bool) {
	host := sources.HostOf(rawURL)
	if host == "" {
		return "", false
	}
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d, true
		}
	}
	return "", false
}
