package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/sources"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.CoinDesk.com/markets/a/?utm_source=x#top", "coindesk.com/markets/a"},
		{"http://coindesk.com/markets/a", "coindesk.com/markets/a"},
		{"https://example.com/p?id=2&utm_medium=email", "example.com/p?id=2"},
		{"https://example.com/", "example.com"},
		{"", ""},
		{"not a url/", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

func TestMerge(t *testing.T) {
	a := []model.SearchResult{
		{Title: "A", Link: "https://www.reuters.com/x"},
		{Title: "no link"},
	}
	b := []model.SearchResult{
		{Title: "A again", Link: "http://reuters.com/x/?utm_source=feed"},
		{Title: "B", Link: "https://blog.example.com/b"},
	}
	got := Merge(a, b)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
}

func TestSortTrusted(t *testing.T) {
	reg := sources.Default()
	in := []model.SearchResult{
		{Title: "blog", Link: "https://random.blog/post"},
		{Title: "prnewswire", Link: "https://www.prnewswire.com/a"},
		{Title: "coindesk", Link: "https://www.coindesk.com/a"},
		{Title: "reuters", Link: "https://www.reuters.com/a"},
		{Title: "display only", Link: "https://amp.cdn.net/x", DisplayLink: "www.theblock.co"},
		{Title: "other", Link: "https://other.io"},
	}
	got := SortTrusted(reg, in)

	titles := make([]string, len(got))
	for i, r := range got {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"reuters", "coindesk", "display only", "prnewswire", "blog", "other"}, titles)
	assert.Equal(t, "blog", in[0].Title, "input is not reordered")
}

func TestFanOut(t *testing.T) {
	s := &mockSearcher{name: "s"}
	s.On("Search", mock.Anything, "q1", Options{Num: 5}).Return(&Response{
		Results: []model.SearchResult{
			{Title: "blog", Link: "https://random.blog/a"},
			{Title: "reuters", Link: "https://www.reuters.com/a"},
		},
		ModelSummary: "summary one",
	}, nil)
	s.On("Search", mock.Anything, "q2", Options{Num: 5}).Return(&Response{
		Results: []model.SearchResult{{Title: "reuters dup", Link: "https://reuters.com/a/"}},
	}, nil)
	s.On("Search", mock.Anything, "q3", Options{Num: 5}).Return(nil, errors.New("boom"))

	got, err := FanOut(context.Background(), s, sources.Default(), []string{"q1", "q2", "q3"}, Options{Num: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "reuters", got.Results[0].Title)
	assert.Equal(t, "blog", got.Results[1].Title)
	assert.Equal(t, "summary one", got.Summary())
}

func TestFanOut_AllFail(t *testing.T) {
	s := &mockSearcher{name: "s"}
	s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	_, err := FanOut(context.Background(), s, sources.Default(), []string{"a", "b"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 queries failed")
}

func TestFanOut_NoQueries(t *testing.T) {
	got, err := FanOut(context.Background(), &mockSearcher{name: "s"}, sources.Default(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Results)
}
