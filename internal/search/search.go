// Package search runs web searches across interchangeable backends and
// merges their results into one trusted-first list.
package search

import (
	"context"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// DefaultNum is the page size requested when Options.Num is unset.
const DefaultNum = 10

// Options narrows a query.
type Options struct {
	Num int
	// DateRestrict is a recency window: d[n], w[n], m[n] or y[n].
	DateRestrict string
	// SiteSearch limits results to one domain.
	SiteSearch string
	// Sort is "date" for newest first.
	Sort string
}

func (o Options) num() int {
	if o.Num <= 0 {
		return DefaultNum
	}
	return o.Num
}

// Response is one backend's answer.
type Response struct {
	Results []model.SearchResult
	// ModelSummary is set by answer-engine backends that return prose
	// alongside their citations.
	ModelSummary string
	Backend      string
}

// Searcher is one web search backend.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) (*Response, error)
}

// splitRestrict splits "m6" into ("m", 6). A bare unit counts as 1.
func splitRestrict(s string) (unit string, n int) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", 0
	}
	unit, rest := s[:1], s[1:]
	if !strings.Contains("dwmy", unit) {
		return "", 0
	}
	n = 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return "", 0
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		n = 1
	}
	return unit, n
}
