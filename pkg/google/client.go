// Package google wraps the Programmable Search (Custom Search JSON) API.
package google

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// maxNum is the largest page the API returns.
const maxNum = 10

// Client performs web searches against a Programmable Search engine.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest mirrors the cse.list parameters the pipeline uses.
type SearchRequest struct {
	Query string
	Num   int
	// DateRestrict is d[n], w[n], m[n] or y[n].
	DateRestrict string
	SiteSearch   string
	// Sort is "date" for newest first, "" for relevance.
	Sort string
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Items        []Item
	TotalResults string
}

// Item is a single search hit.
type Item struct {
	Title       string
	Link        string
	Snippet     string
	DisplayLink string
}

// Option configures the client.
type Option func(*[]option.ClientOption)

// WithEndpoint overrides the API endpoint (for testing).
func WithEndpoint(url string) Option {
	return func(o *[]option.ClientOption) {
		*o = append(*o, option.WithEndpoint(url))
	}
}

type apiClient struct {
	svc *customsearch.Service
	cx  string
}

// NewClient creates a client for the search engine cx.
func NewClient(ctx context.Context, apiKey, cx string, opts ...Option) (Client, error) {
	if apiKey == "" || cx == "" {
		return nil, eris.New("google: api key and engine id are required")
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	for _, o := range opts {
		o(&clientOpts)
	}
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "google: create service")
	}
	return &apiClient{svc: svc, cx: cx}, nil
}

func (c *apiClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	call := c.svc.Cse.List().Cx(c.cx).Q(req.Query)
	if n := req.Num; n > 0 {
		if n > maxNum {
			n = maxNum
		}
		call = call.Num(int64(n))
	}
	if req.DateRestrict != "" {
		call = call.DateRestrict(req.DateRestrict)
	}
	if req.SiteSearch != "" {
		call = call.SiteSearch(req.SiteSearch).SiteSearchFilter("i")
	}
	if req.Sort != "" {
		call = call.Sort(req.Sort)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrap(err, "google: search")
	}

	out := &SearchResponse{Items: make([]Item, 0, len(res.Items))}
	if res.SearchInformation != nil {
		out.TotalResults = res.SearchInformation.TotalResults
	}
	for _, it := range res.Items {
		if it == nil || it.Link == "" {
			continue
		}
		out.Items = append(out.Items, Item{
			Title:       it.Title,
			Link:        it.Link,
			Snippet:     it.Snippet,
			DisplayLink: it.DisplayLink,
		})
	}
	return out, nil
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if eris.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
