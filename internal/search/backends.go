package search

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/sources"
	"github.com/sells-group/stablecoin-intel/pkg/google"
	"github.com/sells-group/stablecoin-intel/pkg/jina"
	"github.com/sells-group/stablecoin-intel/pkg/openai"
	"github.com/sells-group/stablecoin-intel/pkg/serpapi"
)

const maxSnippetLen = 300

type googleSearcher struct{ client google.Client }

// NewGoogle searches a Programmable Search engine.
func NewGoogle(client google.Client) Searcher { return &googleSearcher{client: client} }

func (s *googleSearcher) Name() string { return "google" }

func (s *googleSearcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	resp, err := s.client.Search(ctx, google.SearchRequest{
		Query:        query,
		Num:          opts.num(),
		DateRestrict: opts.DateRestrict,
		SiteSearch:   opts.SiteSearch,
		Sort:         opts.Sort,
	})
	if err != nil {
		return nil, err
	}
	out := &Response{Backend: s.Name()}
	for _, it := range resp.Items {
		out.Results = append(out.Results, model.SearchResult{
			Title:       it.Title,
			Link:        it.Link,
			Snippet:     it.Snippet,
			DisplayLink: it.DisplayLink,
		})
	}
	return out, nil
}

type serpSearcher struct{ client serpapi.Client }

// NewSerpAPI searches Google through SerpApi. SiteSearch is folded into the
// query since the engine has no separate parameter for it.
func NewSerpAPI(client serpapi.Client) Searcher { return &serpSearcher{client: client} }

func (s *serpSearcher) Name() string { return "serpapi" }

func (s *serpSearcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	if opts.SiteSearch != "" {
		query += " site:" + opts.SiteSearch
	}
	req := serpapi.SearchRequest{
		Query:      query,
		Num:        opts.num(),
		SortByDate: opts.Sort == "date",
	}
	if unit, n := splitRestrict(opts.DateRestrict); unit != "" {
		req.Recency = unit
		if n > 1 {
			req.Recency += strconv.Itoa(n)
		}
	}
	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &Response{Backend: s.Name()}
	for _, r := range resp.Results {
		display := displayHost(r.DisplayedLink)
		if display == "" {
			display = sources.HostOf(r.Link)
		}
		out.Results = append(out.Results, model.SearchResult{
			Title:       r.Title,
			Link:        r.Link,
			Snippet:     r.Snippet,
			DisplayLink: display,
		})
	}
	return out, nil
}

// displayHost reduces a breadcrumb such as "https://www.x.com › news" to
// its host.
func displayHost(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, " /›"); i >= 0 {
		s = s[:i]
	}
	return s
}

type jinaSearcher struct{ client jina.Client }

// NewJina searches with Jina AI Search. Recency and sort options are not
// supported and are ignored.
func NewJina(client jina.Client) Searcher { return &jinaSearcher{client: client} }

func (s *jinaSearcher) Name() string { return "jina" }

func (s *jinaSearcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	jopts := []jina.SearchOption{jina.WithCount(opts.num())}
	if opts.SiteSearch != "" {
		jopts = append(jopts, jina.WithSiteFilter(opts.SiteSearch))
	}
	resp, err := s.client.Search(ctx, query, jopts...)
	if err != nil {
		return nil, err
	}
	out := &Response{Backend: s.Name()}
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = clip(r.Content, maxSnippetLen)
		}
		out.Results = append(out.Results, model.SearchResult{
			Title:       r.Title,
			Link:        r.URL,
			Snippet:     snippet,
			DisplayLink: sources.HostOf(r.URL),
		})
	}
	return out, nil
}

type perplexitySearcher struct {
	client openai.Client
	model  string
}

// NewPerplexity asks an answer engine and returns its citations as
// results, with the answer itself as the ModelSummary.
func NewPerplexity(client openai.Client, model string) Searcher {
	if model == "" {
		model = "sonar"
	}
	return &perplexitySearcher{client: client, model: model}
}

func (s *perplexitySearcher) Name() string { return "perplexity" }

var recencyFilter = map[string]string{"d": "day", "w": "week", "m": "month", "y": "year"}

func (s *perplexitySearcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.Message{
			{Role: "system", Content: "Answer with concise factual statements and cite your sources."},
			{Role: "user", Content: query},
		},
	}
	if unit, _ := splitRestrict(opts.DateRestrict); unit != "" {
		req.SearchRecencyFilter = recencyFilter[unit]
	}
	if opts.SiteSearch != "" {
		req.SearchDomainFilter = []string{opts.SiteSearch}
	}

	resp, err := s.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(resp.Text())
	if answer == "" && len(resp.Citations) == 0 {
		return nil, eris.New("search: perplexity returned nothing")
	}

	out := &Response{Backend: s.Name(), ModelSummary: answer}
	for i, link := range resp.Citations {
		if i == opts.num() {
			break
		}
		host := sources.HostOf(link)
		out.Results = append(out.Results, model.SearchResult{
			Title:       host,
			Link:        link,
			Snippet:     clip(answer, maxSnippetLen),
			DisplayLink: host,
		})
	}
	return out, nil
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut] + "..."
}
