package enrich

import (
	"context"
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/structure"
)

// FetchFunding researches a company's capital raises. Snippet regexes run
// first and the model reply, when usable, overrides field by field. A nil
// result means nothing was found.
func (s *Service) FetchFunding(ctx context.Context, companyName string) (*model.FundingInfo, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, eris.New("enrich: company name is required")
	}

	queries := fundingQueries(companyName)
	queries[0] = s.targeted(queries[0], s.exclusions(ctx))
	combined := s.searchAll(ctx, "funding", queries, search.Options{})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: funding")
	}
	if len(combined.Results) == 0 && combined.Summary() == "" {
		return nil, nil
	}

	var funding *model.FundingInfo
	named := newMentionMatcher(companyName)
	for _, r := range combined.Results {
		if !named.in(r.Title + " " + r.Snippet) {
			continue
		}
		funding = model.MergeFunding(funding, extract.ExtractFundingFromText(r.Title+". "+r.Snippet))
	}
	if sum := combined.Summary(); sum != "" {
		funding = model.MergeFunding(funding, extract.ExtractFundingFromText(sum))
	}

	if text, ok := s.complete(ctx, "funding", structure.FundingPrompt(companyName, promptContext(combined))); ok {
		funding = model.MergeFunding(funding, structure.ParseFunding(text))
	}

	zap.L().Debug("enrich: funding fetched",
		zap.String("company", companyName),
		zap.Bool("found", funding != nil),
	)
	return funding, nil
}

// BatchProgress reports one finished company in a funding batch.
type BatchProgress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Group   int    `json:"group"`
	Company string `json:"company"`
	Updated bool   `json:"updated"`
}

// FundingUpdate is a company whose funding changed.
type FundingUpdate struct {
	Company model.Company      `json:"company"`
	Before  *model.FundingInfo `json:"before,omitempty"`
}

// BatchFetchFunding refreshes funding for companies in sequential groups,
// pausing between groups to respect rate limits. progress, when set, is
// called after every company. On cancellation the updates gathered so far
// are returned with the error.
func (s *Service) BatchFetchFunding(ctx context.Context, companies []model.Company, progress func(BatchProgress)) ([]FundingUpdate, error) {
	limiter := s.pacer()
	size := s.cfg.BatchGroupSize
	total := len(companies)

	var updates []FundingUpdate
	done := 0
	for start, group := 0, 1; start < total; start, group = start+size, group+1 {
		if err := limiter.Wait(ctx); err != nil {
			return updates, eris.Wrap(err, "enrich: batch funding")
		}
		end := min(start+size, total)
		zap.L().Info("enrich: funding batch group",
			zap.Int("group", group),
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("total", total),
		)

		for _, c := range companies[start:end] {
			found, err := s.FetchFunding(ctx, c.Name)
			if err != nil {
				if ctx.Err() != nil {
					return updates, eris.Wrap(ctx.Err(), "enrich: batch funding")
				}
				zap.L().Warn("enrich: funding skipped", zap.String("company", c.Name), zap.Error(err))
			}

			merged := model.MergeFunding(c.Funding, found)
			changed := !reflect.DeepEqual(normalizedFunding(c.Funding), normalizedFunding(merged))
			if changed {
				updated := c
				updated.Funding = merged
				updated.UpdatedAt = s.now()
				updates = append(updates, FundingUpdate{Company: updated, Before: c.Funding})
			}

			done++
			if progress != nil {
				progress(BatchProgress{Done: done, Total: total, Group: group, Company: c.Name, Updated: changed})
			}
		}
	}
	return updates, nil
}

// normalizedFunding maps empty funding to nil so an empty value and a
// missing one compare equal.
func normalizedFunding(f *model.FundingInfo) *model.FundingInfo {
	if f.IsEmpty() {
		return nil
	}
	return f
}
