// Package serpapi wraps the SerpApi Google engine.
package serpapi

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	g "github.com/serpapi/google-search-results-golang"
)

// Client runs Google searches through SerpApi.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest holds the query parameters.
type SearchRequest struct {
	Query string
	Num   int
	// Recency is a qdr window such as d, w, m, y or m6.
	Recency    string
	SortByDate bool
}

// SearchResponse holds organic results in rank order.
type SearchResponse struct {
	Results []Result
}

// Result is one organic result.
type Result struct {
	Position      int
	Title         string
	Link          string
	Snippet       string
	DisplayedLink string
	Date          string
}

type fetchFunc func(params map[string]string, apiKey string) (map[string]interface{}, error)

func fetchGoogle(params map[string]string, apiKey string) (map[string]interface{}, error) {
	search := g.NewGoogleSearch(params, apiKey)
	return search.GetJSON()
}

type client struct {
	apiKey string
	fetch  fetchFunc
}

// NewClient creates a SerpApi client.
func NewClient(apiKey string) Client {
	return &client{apiKey: apiKey, fetch: fetchGoogle}
}

// Params builds the engine parameters for req.
func Params(req SearchRequest) map[string]string {
	p := map[string]string{
		"engine":        "google",
		"q":             req.Query,
		"google_domain": "google.com",
		"gl":            "us",
		"hl":            "en",
	}
	if req.Num > 0 {
		p["num"] = strconv.Itoa(req.Num)
	}
	tbs := ""
	if req.Recency != "" {
		tbs = "qdr:" + req.Recency
	}
	if req.SortByDate {
		if tbs != "" {
			tbs += ","
		}
		tbs += "sbd:1"
	}
	if tbs != "" {
		p["tbs"] = tbs
	}
	return p
}

// Search runs the query. The underlying library is not context aware, so
// cancellation abandons the in-flight call rather than aborting it.
func (c *client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("serpapi: api key is not set")
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := c.fetch(Params(req), c.apiKey)
		done <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "serpapi: search")
	case r := <-done:
		if r.err != nil {
			return nil, eris.Wrap(r.err, "serpapi: search")
		}
		if msg, ok := r.body["error"].(string); ok && msg != "" {
			// "no results" is reported as an error string.
			if _, has := r.body["organic_results"]; !has && isNoResults(msg) {
				return &SearchResponse{}, nil
			}
			return nil, eris.Errorf("serpapi: %s", msg)
		}
		return &SearchResponse{Results: parseOrganic(r.body)}, nil
	}
}

func isNoResults(msg string) bool {
	return msg == "Google hasn't returned any results for this query."
}

func parseOrganic(body map[string]interface{}) []Result {
	items, ok := body["organic_results"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Result, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		r := Result{
			Position:      i + 1,
			Title:         str(m, "title"),
			Link:          str(m, "link"),
			Snippet:       str(m, "snippet"),
			DisplayedLink: str(m, "displayed_link"),
			Date:          str(m, "date"),
		}
		if pos, ok := m["position"].(float64); ok {
			r.Position = int(pos)
		}
		if r.Title == "" || r.Link == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
