package sources

import (
	"math/rand/v2"
	"strings"
)

// SiteClause renders sources as a parenthesized `site:` OR-clause. Returns
// "" for an empty list.
func SiteClause(srcs []Source) string {
	if len(srcs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(srcs))
	for _, s := range srcs {
		parts = append(parts, "site:"+s.Domain)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// TargetedQuery appends a site clause over a random sample of n active
// sources to base.
func (r *Registry) TargetedQuery(base string, cfg Config, n int, rng *rand.Rand) string {
	clause := SiteClause(r.Sample(cfg, n, rng))
	base = strings.TrimSpace(base)
	if clause == "" {
		return base
	}
	return base + " " + clause
}
