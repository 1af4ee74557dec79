// Package newsapi provides a client for the NewsAPI.org "everything" endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/resilience"
)

// DefaultBaseURL is the public NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org"

const maxPageSize = 100

// Client queries recent articles.
type Client interface {
	Everything(ctx context.Context, req EverythingRequest) (*EverythingResponse, error)
}

// EverythingRequest holds the query parameters.
type EverythingRequest struct {
	Query    string
	From     time.Time
	PageSize int
	// Domains restricts results to a comma-separated domain list.
	Domains string
}

// EverythingResponse is the decoded reply.
type EverythingResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Article is one story.
type Article struct {
	Source      ArticleSource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt time.Time     `json:"publishedAt"`
	Content     string        `json:"content"`
}

// ArticleSource names the publication.
type ArticleSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError is an error reply.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a NewsAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("newsapi", "everything")
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		retry:   retry,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Everything(ctx context.Context, req EverythingRequest) (*EverythingResponse, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	if !req.From.IsZero() {
		q.Set("from", req.From.UTC().Format("2006-01-02"))
	}
	if n := req.PageSize; n > 0 {
		if n > maxPageSize {
			n = maxPageSize
		}
		q.Set("pageSize", strconv.Itoa(n))
	}
	if req.Domains != "" {
		q.Set("domains", req.Domains)
	}
	reqURL := c.baseURL + "/v2/everything?" + q.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*EverythingResponse, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "newsapi: create request")
		}
		httpReq.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "newsapi: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "newsapi: read body")
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			_ = json.Unmarshal(body, apiErr)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
			}
			return nil, apiErr
		}

		var out EverythingResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, eris.Wrap(err, "newsapi: unmarshal response")
		}
		return &out, nil
	})
}
