package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/normalize"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/sources"
	"github.com/sells-group/stablecoin-intel/internal/structure"
)

// classifySnippets bounds how many results feed the heuristics.
const classifySnippets = 5

// CompanyResult is an enriched company and the evidence behind it.
type CompanyResult struct {
	Company model.Company        `json:"company"`
	Sources []model.SearchResult `json:"sources"`
	// Structured is false when the model reply was missing or unusable
	// and the profile came from heuristics alone.
	Structured bool `json:"structured"`
}

// EnrichCompanyData researches a company by name and returns a filled
// profile. Only an empty name or a cancelled context is an error.
func (s *Service) EnrichCompanyData(ctx context.Context, name string) (*CompanyResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.New("enrich: company name is required")
	}
	log := zap.L().With(zap.String("company", name))
	excl := s.exclusions(ctx)

	queries := companyQueries(name)
	queries[0] = s.targeted(queries[0], excl)
	combined := s.searchAll(ctx, "company", queries, search.Options{})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: company")
	}

	c := model.NewCompany(name)
	res := &CompanyResult{Sources: combined.Results}

	if text, ok := s.complete(ctx, "company", structure.CompanyPrompt(name, promptContext(combined))); ok {
		block, err := structure.ParseCompany(text, name)
		if err != nil {
			log.Warn("enrich: company reply unparseable, using fallback", zap.Error(err))
		} else {
			res.Structured = true
			c.Description = block.Description
			c.Website = block.Website
			c.Partners = block.Partners
		}
	}

	if c.Description == "" {
		c.Description = structure.TemplateDescription(name, combined.Results)
	}
	if c.Website == "" {
		c.Website = guessWebsite(name, combined.Results)
	}
	c.Partners = model.MergePartners(c.Partners, extract.ExtractPartnersFromSearch(combined.Results, name)...)
	if len(c.Partners) > extract.MaxPartners {
		c.Partners = c.Partners[:extract.MaxPartners]
	}

	classify(&c, snippetText(combined.Results, classifySnippets))

	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now

	log.Info("enrich: company enriched",
		zap.Int("sources", len(combined.Results)),
		zap.Int("partners", len(c.Partners)),
		zap.Bool("structured", res.Structured),
	)
	res.Company = c
	return res, nil
}

// classify fills the heuristic fields from the description, falling back
// to evidence text when the description says nothing about location.
func classify(c *model.Company, evidence string) {
	desc := c.Description
	text := strings.TrimSpace(desc + "\n" + evidence)

	c.Categories = extract.CategorizeFromText(desc, c.Name)
	if len(c.Categories) == 0 {
		c.Categories = extract.CategorizeFromText(text, c.Name)
	}
	c.Focus = extract.DetermineFocus(text, c.Name)
	c.Industry = extract.DetermineIndustry(desc)
	if c.Industry == extract.DefaultIndustry {
		c.Industry = extract.DetermineIndustry(text)
	}

	loc := extract.ExtractLocationFromText(desc)
	if loc.Country == "" {
		if alt := extract.ExtractLocationFromText(text); alt.Country != "" {
			loc = alt
		}
	}
	c.SetLocation(loc)

	c.Funding = model.MergeFunding(c.Funding, extract.ExtractFundingFromText(text))
}

// guessWebsite picks the first result whose host carries the company's
// id tokens, e.g. circle.com for "Circle Internet Financial".
func guessWebsite(name string, results []model.SearchResult) string {
	id := model.CompanyID(name)
	if id == "" {
		return ""
	}
	first := strings.SplitN(id, "-", 2)[0]
	joined := strings.ReplaceAll(id, "-", "")
	for _, r := range results {
		host := sources.HostOf(r.Link)
		label := strings.SplitN(host, ".", 2)[0]
		if label == joined || label == first {
			return normalize.SanitizeWebsite(host)
		}
	}
	return ""
}
