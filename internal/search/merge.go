package search

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/sources"
)

var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "fbclid": true, "gclid": true,
	"ref": true, "mc_cid": true, "mc_eid": true,
}

// NormalizeURL reduces a link to a dedupe key: lowercased host without
// "www.", no scheme, fragment, tracking parameters or trailing slash.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	q := u.Query()
	for k := range q {
		if trackingParams[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	key := sources.HostOf(u.Host) + strings.TrimRight(u.EscapedPath(), "/")
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}

// Merge concatenates result lists, dropping results without a link and
// repeats of a link already seen. First occurrence wins.
func Merge(lists ...[]model.SearchResult) []model.SearchResult {
	seen := make(map[string]bool)
	var out []model.SearchResult
	for _, list := range lists {
		for _, r := range list {
			key := NormalizeURL(r.Link)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}

// SortTrusted orders results registry sources first, best tier first.
// Order within a tier, and among untrusted results, is preserved.
func SortTrusted(reg *sources.Registry, results []model.SearchResult) []model.SearchResult {
	out := append([]model.SearchResult(nil), results...)
	rank := func(r model.SearchResult) int {
		if t := reg.TierOf(r.Link); t > 0 {
			return int(t)
		}
		if t := reg.TierOf(r.DisplayLink); t > 0 {
			return int(t)
		}
		return 1 << 10
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}
