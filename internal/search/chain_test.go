package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/resilience"
)

func fastChain(backends ...Searcher) *Chain {
	return NewChain(backends, WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}))
}

func hit(link string) *Response {
	return &Response{Results: []model.SearchResult{{Title: "t", Link: link}}}
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	a := &mockSearcher{name: "a"}
	b := &mockSearcher{name: "b"}
	c := &mockSearcher{name: "c"}
	a.On("Search", mock.Anything, "q", Options{}).Return(&Response{}, nil)
	b.On("Search", mock.Anything, "q", Options{}).Return(hit("https://b.com"), nil)

	resp, err := fastChain(a, b, c).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://b.com", resp.Results[0].Link)
	a.AssertExpectations(t)
	b.AssertExpectations(t)
	c.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestChain_FallsBackOnError(t *testing.T) {
	a := &mockSearcher{name: "a"}
	b := &mockSearcher{name: "b"}
	a.On("Search", mock.Anything, "q", Options{}).Return(nil, errors.New("401 unauthorized")).Once()
	b.On("Search", mock.Anything, "q", Options{}).Return(hit("https://b.com"), nil)

	resp, err := fastChain(a, b).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	a.AssertExpectations(t)
}

func TestChain_RetriesTransient(t *testing.T) {
	a := &mockSearcher{name: "a"}
	a.On("Search", mock.Anything, "q", Options{}).Return(nil, resilience.NewTransientError(errors.New("503"), 503)).Once()
	a.On("Search", mock.Anything, "q", Options{}).Return(hit("https://a.com"), nil).Once()

	resp, err := fastChain(a).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	a.AssertExpectations(t)
}

func TestChain_AllFail(t *testing.T) {
	a := &mockSearcher{name: "a"}
	b := &mockSearcher{name: "b"}
	a.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("a down"))
	b.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("b down"))

	_, err := fastChain(a, b).Search(context.Background(), "q", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestChain_EmptyIsNotError(t *testing.T) {
	a := &mockSearcher{name: "a"}
	b := &mockSearcher{name: "b"}
	a.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	b.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(&Response{}, nil)

	resp, err := fastChain(a, b).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestChain_ModelSummaryCountsAsAnswer(t *testing.T) {
	a := &mockSearcher{name: "perplexity"}
	a.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(&Response{ModelSummary: "answer"}, nil)

	resp, err := fastChain(a).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.ModelSummary)
}

func TestChain_OpenCircuitSkipsBackend(t *testing.T) {
	a := &mockSearcher{name: "a"}
	b := &mockSearcher{name: "b"}
	a.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
	b.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hit("https://b.com"), nil)

	sb := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	chain := NewChain([]Searcher{a, b}, WithBreakers(sb), WithRetry(resilience.RetryConfig{MaxAttempts: 1}))

	for i := 0; i < 3; i++ {
		_, err := chain.Search(context.Background(), "q", Options{})
		require.NoError(t, err)
	}
	a.AssertNumberOfCalls(t, "Search", 1)
	assert.Equal(t, resilience.CircuitOpen, sb.States()["a"])
}

func TestChain_NoBackends(t *testing.T) {
	_, err := NewChain([]Searcher{nil}).Search(context.Background(), "q", Options{})
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestChain_CancelledContext(t *testing.T) {
	a := &mockSearcher{name: "a"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastChain(a).Search(ctx, "q", Options{})
	require.ErrorIs(t, err, context.Canceled)
	a.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestChain_Name(t *testing.T) {
	assert.Equal(t, "chain(a,b)", fastChain(&mockSearcher{name: "a"}, &mockSearcher{name: "b"}).Name())
}
