// Package notion keeps the company directory mirrored in a Notion
// database: one page per company, matched by its title.
package notion

import (
	"context"
	"net/http"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultTitleProperty is the title column of the directory database.
const DefaultTitleProperty = "Name"

// queryPageSize is the largest page Notion serves per query.
const queryPageSize = 100

// CompanyPage is one row of the directory database.
type CompanyPage struct {
	ID   string
	Name string
}

// Client reads and writes company pages of one directory database.
type Client interface {
	// QueryCompanies lists every titled page in the database.
	QueryCompanies(ctx context.Context) ([]CompanyPage, error)
	// UpsertCompanyPage updates pageID, or creates a page in the database
	// when pageID is empty. It returns the page id.
	UpsertCompanyPage(ctx context.Context, pageID string, props notionapi.Properties) (string, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*directoryClient)

// WithRateLimit overrides the default rate limit (3 req/s). A rate of
// zero or less disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *directoryClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithTitleProperty names the database's title column.
func WithTitleProperty(name string) ClientOption {
	return func(c *directoryClient) {
		if name != "" {
			c.titleProp = name
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *directoryClient) { c.httpClient = hc }
}

type directoryClient struct {
	token      string
	dbID       notionapi.DatabaseID
	titleProp  string
	limiter    *rate.Limiter
	httpClient *http.Client
	api        *notionapi.Client
}

// NewClient returns a client for the directory database dbID.
func NewClient(token, dbID string, opts ...ClientOption) Client {
	c := &directoryClient{
		token:     token,
		dbID:      notionapi.DatabaseID(dbID),
		titleProp: DefaultTitleProperty,
		limiter:   rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	var apiOpts []notionapi.ClientOption
	if c.httpClient != nil {
		apiOpts = append(apiOpts, notionapi.WithHTTPClient(c.httpClient))
	}
	c.api = notionapi.NewClient(notionapi.Token(c.token), apiOpts...)
	return c
}

func (c *directoryClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	return eris.Wrap(c.limiter.Wait(ctx), "notion: rate limit")
}

func (c *directoryClient) QueryCompanies(ctx context.Context) ([]CompanyPage, error) {
	var out []CompanyPage
	req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.api.Database.Query(ctx, c.dbID, req)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query database %s", c.dbID)
		}
		for _, p := range resp.Results {
			tp, ok := p.Properties[c.titleProp].(*notionapi.TitleProperty)
			if !ok {
				continue
			}
			if name := strings.TrimSpace(PlainText(tp.Title)); name != "" {
				out = append(out, CompanyPage{ID: string(p.ID), Name: name})
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		req = &notionapi.DatabaseQueryRequest{PageSize: queryPageSize, StartCursor: resp.NextCursor}
	}
}

func (c *directoryClient) UpsertCompanyPage(ctx context.Context, pageID string, props notionapi.Properties) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if pageID != "" {
		page, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props})
		if err != nil {
			return "", eris.Wrapf(err, "notion: update page %s", pageID)
		}
		return string(page.ID), nil
	}
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.dbID,
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: create page")
	}
	return string(page.ID), nil
}

// IndexByName maps company page titles to page ids. A repeated title
// keeps its first page.
func IndexByName(pages []CompanyPage) map[string]string {
	idx := make(map[string]string, len(pages))
	for _, p := range pages {
		if _, ok := idx[p.Name]; !ok {
			idx[p.Name] = p.ID
		}
	}
	return idx
}

// PlainText concatenates the plain text of rich text segments.
func PlainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, r := range rt {
		sb.WriteString(r.PlainText)
	}
	return sb.String()
}

// Text wraps s as a single rich text segment.
func Text(s string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}
