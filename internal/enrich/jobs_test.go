package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
)

func TestFindJobOpenings_Structured(t *testing.T) {
	t.Parallel()

	s := searchReturning(model.SearchResult{
		Title: "Head of Partnerships - Paxos",
		Link:  "https://jobs.lever.co/paxos/123",
	})
	ai := &mockCompleter{}
	ai.On("Complete", mock.Anything, taskIs("jobs")).Return(
		"TITLE: Head of Partnerships\nDEPARTMENT: Partnerships\nLOCATIONS: New York, Remote\n"+
			"URL: https://jobs.lever.co/paxos/123\nPOSTED: 2025-06-01\nSALARY: Unknown\n---\n"+
			"TITLE: Senior Engineer\nDEPARTMENT: Other\nURL: https://jobs.lever.co/paxos/456\nPOSTED: 2023-01-10", nil)

	svc := newTestService(t, s, nil, ai)
	jobs, err := svc.FindJobOpenings(context.Background(), "Paxos")
	require.NoError(t, err)

	require.Len(t, jobs, 1, "the 2023 posting is outside the recency window")
	assert.Equal(t, "Head of Partnerships", jobs[0].Title)
	assert.Equal(t, model.DepartmentPartnerships, jobs[0].Department)
	assert.Equal(t, []string{"New York", "Remote"}, jobs[0].Locations)

	for _, call := range s.Calls {
		assert.Equal(t, jobWindow, call.Arguments.Get(2).(search.Options).DateRestrict)
	}
}

func TestFindJobOpenings_FallbackFromResults(t *testing.T) {
	t.Parallel()

	s := searchReturning(
		model.SearchResult{Title: "Business Development Manager - Paxos", Link: "https://boards.greenhouse.io/paxos/jobs/1"},
		model.SearchResult{Title: "Paxos careers", Link: "https://paxos.com/careers"},
		model.SearchResult{Title: "Software Engineer", Link: "https://boards.greenhouse.io/paxos/jobs/2"},
	)
	ai := &mockCompleter{}
	ai.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("down"))

	svc := newTestService(t, s, nil, ai)
	jobs, err := svc.FindJobOpenings(context.Background(), "Paxos")
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	assert.Equal(t, model.DepartmentBusinessDev, jobs[0].Department)
	assert.Equal(t, "https://boards.greenhouse.io/paxos/jobs/1", jobs[0].URL)
}

func TestFindJobOpenings_NoResults(t *testing.T) {
	t.Parallel()

	ai := &mockCompleter{}
	svc := newTestService(t, searchReturning(), nil, ai)
	jobs, err := svc.FindJobOpenings(context.Background(), "Paxos")
	require.NoError(t, err)
	assert.Empty(t, jobs)
	ai.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestAnalyzeJobLink_FetchFailed(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, "https://example.com/job").
		Return(nil, eris.Wrap(scrape.ErrFetchFailed, "blocked: cloudflare"))

	svc := newTestService(t, nil, f, nil)
	res, err := svc.AnalyzeJobLink(context.Background(), "https://example.com/job")
	require.NoError(t, err)
	assert.True(t, res.FetchFailed)
	assert.Nil(t, res.Job)
}

func TestAnalyzeJobLink_OtherErrorsPropagate(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	svc := newTestService(t, nil, f, nil)
	_, err := svc.AnalyzeJobLink(context.Background(), "https://example.com/job")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeJobLink_Structured(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, "https://example.com/job").
		Return(&scrape.Page{Title: "Job", Content: "Strategy Lead at Agora"}, nil)
	ai := &mockCompleter{}
	ai.On("Complete", mock.Anything, taskIs("job_detail")).Return(
		"TITLE: Strategy Lead\nDEPARTMENT: Strategy\nLOCATIONS: London\nSALARY: Unknown\nPOSTED: 3 days ago\n"+
			"DESCRIPTION: Own the strategy.\nREQUIREMENTS:\n- 5 years in payments\nBENEFITS:\n- Equity", nil)

	svc := newTestService(t, nil, f, ai)
	res, err := svc.AnalyzeJobLink(context.Background(), "https://example.com/job")
	require.NoError(t, err)

	require.NotNil(t, res.Job)
	assert.False(t, res.FetchFailed)
	assert.Equal(t, "Strategy Lead", res.Job.Title)
	assert.Equal(t, model.DepartmentStrategy, res.Job.Department)
	assert.Equal(t, testNow.AddDate(0, 0, -3), res.Job.PostedDate)
	assert.Equal(t, []string{"5 years in payments"}, res.Job.Requirements)
	assert.Equal(t, "https://example.com/job", res.Job.URL)
}

func TestAnalyzeJobText_Fallback(t *testing.T) {
	t.Parallel()

	ai := &mockCompleter{}
	ai.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("down"))

	svc := newTestService(t, nil, nil, ai)
	res, err := svc.AnalyzeJobText(context.Background(), "https://example.com/job",
		"# Customer Success Manager\n\nHelp banks adopt stablecoin settlement.")
	require.NoError(t, err)

	require.NotNil(t, res.Job)
	assert.Equal(t, "Customer Success Manager", res.Job.Title)
	assert.Equal(t, model.DepartmentCustomerSuccess, res.Job.Department)
	assert.Contains(t, res.Job.Description, "Help banks adopt stablecoin settlement.")

	_, err = svc.AnalyzeJobText(context.Background(), "", " ")
	require.Error(t, err)
}

func TestAnalyzeJobLink_NoFetcher(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil)
	res, err := svc.AnalyzeJobLink(context.Background(), "https://example.com/job")
	require.NoError(t, err)
	assert.True(t, res.FetchFailed)
}

func TestClip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "caf", clip("café au lait", 4))
}
