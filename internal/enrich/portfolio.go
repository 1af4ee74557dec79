package enrich

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/structure"
)

// maxPortfolio caps the companies taken from one investor.
const maxPortfolio = 25

var investmentWordRe = regexp.MustCompile(`(?i)\b(?:invest(?:s|ed|ment)?|back(?:s|ed|ing)?|led|leads|portfolio|funding|raises?|raised|round)\b`)

// PortfolioResult lists the companies found in an investor's portfolio.
type PortfolioResult struct {
	Investor  string          `json:"investor"`
	Companies []model.Company `json:"companies"`
	// FetchFailed is set by LookupInvestorPortfolioFromURL when the page
	// could not be read.
	FetchFailed bool `json:"fetch_failed"`
	Structured  bool `json:"structured"`
}

// LookupInvestorPortfolio searches for the stablecoin-relevant portfolio
// companies of an investor.
func (s *Service) LookupInvestorPortfolio(ctx context.Context, investor string) (*PortfolioResult, error) {
	investor = strings.TrimSpace(investor)
	if investor == "" {
		return nil, eris.New("enrich: investor name is required")
	}

	queries := portfolioQueries(investor)
	queries[0] = s.targeted(queries[0], s.exclusions(ctx))
	combined := s.searchAll(ctx, "portfolio", queries, search.Options{})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: portfolio")
	}
	if len(combined.Results) == 0 && combined.Summary() == "" {
		return &PortfolioResult{Investor: investor}, nil
	}
	return s.portfolio(ctx, investor, promptContext(combined), snippetLines(combined.Results), true), nil
}

// LookupInvestorPortfolioFromURL reads an investor's portfolio page. An
// unreadable page is reported through FetchFailed.
func (s *Service) LookupInvestorPortfolioFromURL(ctx context.Context, investor, pageURL string) (*PortfolioResult, error) {
	investor = strings.TrimSpace(investor)
	if investor == "" {
		return nil, eris.New("enrich: investor name is required")
	}
	if s.fetch == nil {
		return &PortfolioResult{Investor: investor, FetchFailed: true}, nil
	}

	page, err := s.fetch.Fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, scrape.ErrFetchFailed) {
			zap.L().Info("enrich: portfolio page unreadable", zap.String("url", pageURL), zap.Error(err))
			return &PortfolioResult{Investor: investor, FetchFailed: true}, nil
		}
		return nil, eris.Wrap(err, "enrich: portfolio from url")
	}
	return s.portfolio(ctx, investor, page.Content, page.Content, false), nil
}

func (s *Service) portfolio(ctx context.Context, investor, promptText, fallbackText string, needCue bool) *PortfolioResult {
	res := &PortfolioResult{Investor: investor}
	now := s.now()

	var entries []structure.PortfolioEntry
	if text, ok := s.complete(ctx, "portfolio", structure.PortfolioPrompt(investor, promptText)); ok {
		entries = structure.ParsePortfolio(text, investor)
		res.Structured = len(entries) > 0
	}
	if len(entries) == 0 {
		entries = portfolioFromText(fallbackText, investor, needCue)
	}

	backer := model.Partner{
		Name:        investor,
		Type:        model.PartnerInvestor,
		Description: investor + " is an investor in the company.",
	}
	for _, e := range entries {
		if len(res.Companies) == maxPortfolio {
			break
		}
		c := model.NewCompany(e.Name)
		if c.ID == "" {
			continue
		}
		c.Description = e.Description
		c.Website = e.Website
		c.Partners = []model.Partner{backer}
		if e.Category != "" {
			c.Categories = []model.Category{e.Category}
		} else if e.Description != "" {
			c.Categories = extract.CategorizeFromText(e.Description, e.Name)
		}
		if e.Description != "" {
			c.Focus = extract.DetermineFocus(e.Description, e.Name)
			c.SetLocation(extract.ExtractLocationFromText(e.Description))
		}
		c.CreatedAt, c.UpdatedAt = now, now
		res.Companies = append(res.Companies, c)
	}

	zap.L().Info("enrich: portfolio resolved",
		zap.String("investor", investor),
		zap.Int("companies", len(res.Companies)),
		zap.Bool("structured", res.Structured),
	)
	return res
}

// snippetLines joins result snippets one per line. Titles are left out:
// headline words read as names.
func snippetLines(results []model.SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if sn := strings.TrimSpace(r.Snippet); sn != "" {
			lines = append(lines, sn)
		}
	}
	return strings.Join(lines, "\n")
}

// portfolioFromText falls back to organization-like names in text. With
// needCue only lines carrying investment wording are read.
func portfolioFromText(text, investor string, needCue bool) []structure.PortfolioEntry {
	var out []structure.PortfolioEntry
	seen := make(map[string]bool)
	backer := newMentionMatcher(investor)
	for _, line := range strings.Split(text, "\n") {
		if needCue && !investmentWordRe.MatchString(line) {
			continue
		}
		for _, name := range extract.ExtractCompanyNamesFromText(line, []string{investor}) {
			id := model.CompanyID(name)
			if id == "" || seen[id] || backer.in(name) {
				continue
			}
			seen[id] = true
			out = append(out, structure.PortfolioEntry{Name: name})
		}
	}
	return out
}
