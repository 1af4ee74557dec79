package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/sources"
)

// Combined is the merged answer to several queries.
type Combined struct {
	Results   []model.SearchResult
	Summaries []string
	// Failed counts queries whose search errored.
	Failed int
}

// Summary joins the model summaries.
func (c Combined) Summary() string {
	return strings.Join(c.Summaries, "\n\n")
}

// FanOut runs queries concurrently and merges the answers: deduped by
// URL, trusted sources first. A failing query is logged and skipped; an
// error is returned only when every query failed.
func FanOut(ctx context.Context, s Searcher, reg *sources.Registry, queries []string, opts Options) (Combined, error) {
	resps := make([]*Response, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			resps[i], errs[i] = s.Search(gctx, q, opts)
			return nil
		})
	}
	_ = g.Wait()

	var out Combined
	lists := make([][]model.SearchResult, 0, len(queries))
	for i, resp := range resps {
		if errs[i] != nil {
			out.Failed++
			zap.L().Warn("search: query failed",
				zap.String("searcher", s.Name()),
				zap.String("query", queries[i]),
				zap.Error(errs[i]),
			)
			continue
		}
		if resp == nil {
			continue
		}
		lists = append(lists, resp.Results)
		if resp.ModelSummary != "" {
			out.Summaries = append(out.Summaries, resp.ModelSummary)
		}
	}

	if len(queries) > 0 && out.Failed == len(queries) {
		return out, eris.Wrapf(errs[0], "search: all %d queries failed", len(queries))
	}
	out.Results = SortTrusted(reg, Merge(lists...))
	zap.L().Debug("search: fan-out merged",
		zap.Int("queries", len(queries)),
		zap.Int("results", len(out.Results)),
		zap.Int("failed", out.Failed),
	)
	return out, nil
}
