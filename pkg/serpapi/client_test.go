package serpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClient(body map[string]interface{}, err error, seen *map[string]string) *client {
	return &client{
		apiKey: "key",
		fetch: func(params map[string]string, apiKey string) (map[string]interface{}, error) {
			if seen != nil {
				*seen = params
			}
			return body, err
		},
	}
}

func TestParams(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		tbs  string
		num  string
	}{
		{name: "plain", req: SearchRequest{Query: "q"}},
		{name: "recency", req: SearchRequest{Query: "q", Recency: "m"}, tbs: "qdr:m"},
		{name: "sort only", req: SearchRequest{Query: "q", SortByDate: true}, tbs: "sbd:1"},
		{name: "both", req: SearchRequest{Query: "q", Num: 10, Recency: "w", SortByDate: true}, tbs: "qdr:w,sbd:1", num: "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params(tt.req)
			assert.Equal(t, "google", p["engine"])
			assert.Equal(t, "q", p["q"])
			assert.Equal(t, tt.tbs, p["tbs"])
			assert.Equal(t, tt.num, p["num"])
		})
	}
}

func TestSearch_ParsesOrganicResults(t *testing.T) {
	body := map[string]interface{}{
		"organic_results": []interface{}{
			map[string]interface{}{
				"position":       float64(1),
				"title":          "Paxos launches USDG in Singapore",
				"link":           "https://www.theblock.co/post/1",
				"snippet":        "Paxos Global launched...",
				"displayed_link": "www.theblock.co",
				"date":           "Nov 1, 2024",
			},
			map[string]interface{}{"title": "missing link"},
			"garbage",
		},
	}
	var seen map[string]string
	c := stubClient(body, nil, &seen)

	resp, err := c.Search(context.Background(), SearchRequest{Query: "paxos", Num: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, Result{
		Position:      1,
		Title:         "Paxos launches USDG in Singapore",
		Link:          "https://www.theblock.co/post/1",
		Snippet:       "Paxos Global launched...",
		DisplayedLink: "www.theblock.co",
		Date:          "Nov 1, 2024",
	}, resp.Results[0])
	assert.Equal(t, "5", seen["num"])
}

func TestSearch_NoResultsIsEmpty(t *testing.T) {
	c := stubClient(map[string]interface{}{
		"error": "Google hasn't returned any results for this query.",
	}, nil, nil)

	resp, err := c.Search(context.Background(), SearchRequest{Query: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_APIErrorString(t *testing.T) {
	c := stubClient(map[string]interface{}{"error": "Invalid API key."}, nil, nil)

	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSearch_FetchError(t *testing.T) {
	c := stubClient(nil, errors.New("dial tcp: timeout"), nil)

	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serpapi: search")
}

func TestSearch_MissingKey(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
}

func TestSearch_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	c := &client{apiKey: "k", fetch: func(map[string]string, string) (map[string]interface{}, error) {
		<-block
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, SearchRequest{Query: "q"})
	require.ErrorIs(t, err, context.Canceled)
}
