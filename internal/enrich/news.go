package enrich

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/normalize"
	"github.com/sells-group/stablecoin-intel/internal/relevance"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/structure"
	"github.com/sells-group/stablecoin-intel/pkg/newsapi"
)

const (
	maxRelated      = 5
	newsAPIPageSize = 50
	companyNewsWin  = "m3"

	// removedArticle is the placeholder title of withdrawn news API articles.
	removedArticle = "[Removed]"
)

var leadingDateRe = regexp.MustCompile(`^\s*((?:\d+|an?) (?:hour|day|week|month)s? ago|[A-Z][a-z]{2,8}\.? \d{1,2}, \d{4}|\d{1,2} [A-Z][a-z]{2,8} \d{4}|\d{4}-\d{2}-\d{2})\s*(?:\.\.\.|…|[-–—·])\s*`)

// leadingDate returns the date prefix search engines put on snippets,
// e.g. "Mar 4, 2025 ... Circle announced".
func leadingDate(snippet string) string {
	m := leadingDateRe.FindStringSubmatch(snippet)
	if m == nil {
		return ""
	}
	return strings.TrimSuffix(m[1], ".")
}

func stripLeadingDate(snippet string) string {
	return strings.TrimSpace(leadingDateRe.ReplaceAllString(snippet, ""))
}

// newsFromResults converts search results into news items. related names
// the directory entity the scan was about.
func (s *Service) newsFromResults(results []model.SearchResult, now time.Time, related string) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(results))
	for _, r := range results {
		title := normalize.CleanSearchTitle(r.Title, r.Snippet)
		summary := stripLeadingDate(r.Snippet)
		date := parseDate(leadingDate(r.Snippet), now)
		source := normalize.ResolveSourceName(s.reg, r.Link, r.DisplayLink)
		out = append(out, newsItem(title, summary, r.Link, source, date, related))
	}
	return out
}

func (s *Service) newsFromArticles(articles []newsapi.Article, now time.Time) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" || a.Title == removedArticle {
			continue
		}
		source := strings.TrimSpace(a.Source.Name)
		if source == "" {
			source = normalize.ResolveSourceName(s.reg, a.URL, "")
		}
		date := a.PublishedAt
		if date.IsZero() {
			date = now
		}
		out = append(out, newsItem(a.Title, a.Description, a.URL, source, date, ""))
	}
	return out
}

func newsItem(title, summary, link, source string, date time.Time, related string) model.NewsItem {
	var exclude []string
	var names []string
	if related != "" {
		names = append(names, related)
		exclude = append(exclude, related)
	}
	names = append(names, extract.ExtractCompanyNamesFromText(title, exclude)...)
	if len(names) > maxRelated {
		names = names[:maxRelated]
	}
	return model.NewsItem{
		ID:               model.NewsID(link, title),
		Title:            title,
		Source:           source,
		Date:             date,
		Summary:          summary,
		URL:              link,
		RelatedCompanies: names,
		SourceType:       extract.ClassifySourceType(title, summary, source),
	}
}

func parseDate(s string, now time.Time) time.Time {
	t := structure.ParsePostedDate(s, now)
	if t.IsZero() {
		return now
	}
	return t
}

// finishNews drops irrelevant and duplicate stories and sorts newest
// first. keep, when set, must also accept an item.
func finishNews(items []model.NewsItem, keep func(model.NewsItem) bool) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(items))
	for _, it := range items {
		if it.Title == "" || relevance.IsIrrelevantNews(it.Title, it.Summary, it.URL) {
			continue
		}
		if keep != nil && !keep(it) {
			continue
		}
		out = append(out, it)
	}
	out = model.DedupeNews(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// FetchIndustryNews gathers recent stablecoin industry stories from web
// search and, when configured, the news API.
func (s *Service) FetchIndustryNews(ctx context.Context) ([]model.NewsItem, error) {
	excl := s.exclusions(ctx)
	queries := industryNewsQueries()
	queries[0] = s.targeted(queries[0], excl)

	now := s.now()
	opts := search.Options{DateRestrict: s.cfg.NewsWindow, Sort: "date"}
	combined := s.searchAll(ctx, "industry_news", queries, opts)
	items := s.newsFromResults(combined.Results, now, "")

	if s.news != nil {
		resp, err := s.news.Everything(ctx, newsapi.EverythingRequest{
			Query:    "stablecoin OR stablecoins",
			From:     now.AddDate(0, 0, -s.cfg.NewsAPIDays),
			PageSize: newsAPIPageSize,
		})
		if err != nil {
			zap.L().Warn("enrich: news api failed, continuing with search results", zap.Error(err))
		} else {
			items = append(items, s.newsFromArticles(resp.Articles, now)...)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: industry news")
	}

	out := finishNews(items, nil)
	zap.L().Info("enrich: industry news fetched",
		zap.Int("candidates", len(items)),
		zap.Int("kept", len(out)),
	)
	return out, nil
}

// ScanCompanyNews finds recent stories that mention a company.
func (s *Service) ScanCompanyNews(ctx context.Context, companyName string) ([]model.NewsItem, error) {
	return s.scanEntityNews(ctx, "company_news", companyName, companyNewsQueries(companyName))
}

// ScanInvestorNews finds recent deal stories that mention an investor.
func (s *Service) ScanInvestorNews(ctx context.Context, investorName string) ([]model.NewsItem, error) {
	return s.scanEntityNews(ctx, "investor_news", investorName, investorNewsQueries(investorName))
}

func (s *Service) scanEntityNews(ctx context.Context, op, name string, queries []string) ([]model.NewsItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.Errorf("enrich: %s: name is required", op)
	}
	queries[0] = s.targeted(queries[0], s.exclusions(ctx))

	combined := s.searchAll(ctx, op, queries, search.Options{DateRestrict: companyNewsWin})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrapf(err, "enrich: %s", op)
	}

	items := s.newsFromResults(combined.Results, s.now(), name)
	named := newMentionMatcher(name)
	out := finishNews(items, func(it model.NewsItem) bool {
		return named.in(it.Title + " " + it.Summary)
	})
	zap.L().Info("enrich: entity news scanned",
		zap.String("op", op),
		zap.String("name", name),
		zap.Int("kept", len(out)),
	)
	return out, nil
}

// mentionMatcher reports whether text names an entity, by full name or by
// its distinctive first token.
type mentionMatcher struct {
	full  string
	first *regexp.Regexp
}

func newMentionMatcher(name string) mentionMatcher {
	m := mentionMatcher{full: strings.ToLower(strings.TrimSpace(name))}
	first := strings.SplitN(model.CompanyID(name), "-", 2)[0]
	if len(first) >= 4 {
		m.first = regexp.MustCompile(`\b` + regexp.QuoteMeta(first) + `\b`)
	}
	return m
}

func (m mentionMatcher) in(text string) bool {
	lower := strings.ToLower(text)
	if m.full != "" && strings.Contains(lower, m.full) {
		return true
	}
	return m.first != nil && m.first.MatchString(lower)
}
