package search

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/stablecoin-intel/pkg/jina"
	"github.com/sells-group/stablecoin-intel/pkg/openai"
	"github.com/sells-group/stablecoin-intel/pkg/serpapi"
)

type mockSearcher struct {
	mock.Mock
	name string
}

func (m *mockSearcher) Name() string { return m.name }

func (m *mockSearcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	args := m.Called(ctx, query, opts)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

type mockSerp struct{ mock.Mock }

func (m *mockSerp) Search(ctx context.Context, req serpapi.SearchRequest) (*serpapi.SearchResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*serpapi.SearchResponse)
	return resp, args.Error(1)
}

type mockJina struct{ mock.Mock }

func (m *mockJina) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	resp, _ := args.Get(0).(*jina.ReadResponse)
	return resp, args.Error(1)
}

func (m *mockJina) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query, len(opts))
	resp, _ := args.Get(0).(*jina.SearchResponse)
	return resp, args.Error(1)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*openai.ChatCompletionResponse)
	return resp, args.Error(1)
}
