package enrich

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/stablecoin-intel/internal/llm"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/pkg/newsapi"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Name() string { return "mock" }

func (m *mockSearcher) Search(ctx context.Context, query string, opts search.Options) (*search.Response, error) {
	args := m.Called(ctx, query, opts)
	resp, _ := args.Get(0).(*search.Response)
	return resp, args.Error(1)
}

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Name() string { return "mock" }

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*scrape.Page, error) {
	args := m.Called(ctx, url)
	page, _ := args.Get(0).(*scrape.Page)
	return page, args.Error(1)
}

type mockCompleter struct{ mock.Mock }

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockNews struct{ mock.Mock }

func (m *mockNews) Everything(ctx context.Context, req newsapi.EverythingRequest) (*newsapi.EverythingResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*newsapi.EverythingResponse)
	return resp, args.Error(1)
}

// searchReturning answers every query with results.
func searchReturning(results ...model.SearchResult) *mockSearcher {
	m := &mockSearcher{}
	m.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(&search.Response{Results: results}, nil)
	return m
}

// taskIs matches a model request by its task label.
func taskIs(task string) interface{} {
	return mock.MatchedBy(func(req llm.Request) bool { return req.Task == task })
}

func newTestService(t *testing.T, s search.Searcher, f scrape.Fetcher, ai Completer, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return testNow }),
		WithConfig(Config{BatchInterval: 0}),
	}
	return New(s, f, ai, nil, append(base, opts...)...)
}
