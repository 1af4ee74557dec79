package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

var serveNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// offlineService has no search, fetch or model backends, so every
// operation takes its fallback path.
func offlineService() *enrich.Service {
	return enrich.New(nil, nil, nil, nil, enrich.WithClock(func() time.Time { return serveNow }))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildRouter_Health(t *testing.T) {
	h := buildRouter(context.Background(), newTestStore(t), nil, nil)

	rr := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_CORS(t *testing.T) {
	h := buildRouter(context.Background(), newTestStore(t), nil, []string{"https://intel.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/companies", nil)
	req.Header.Set("Origin", "https://intel.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://intel.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildRouter_Companies(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	circle := model.NewCompany("Circle")
	circle.Categories = []model.Category{model.CategoryIssuer}
	circle.Jobs = []model.Job{
		{ID: "j1", Title: "BD Lead", PostedDate: time.Now().AddDate(0, -1, 0)},
		{ID: "j2", Title: "Dismissed", PostedDate: time.Now(), Hidden: true},
	}
	bitpanda := model.NewCompany("Bitpanda")
	bitpanda.Categories = []model.Category{model.CategoryWallet}
	_, err := st.SaveCompanies(ctx, []model.Company{circle, bitpanda})
	require.NoError(t, err)

	h := buildRouter(ctx, st, nil, nil)

	rr := do(t, h, http.MethodGet, "/api/companies?category=Issuer", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.Company
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Circle", list[0].Name)
	assert.Len(t, list[0].Jobs, 1, "hidden jobs are not served")

	rr = do(t, h, http.MethodGet, "/api/companies/circle", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/companies/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, "/api/companies/bitpanda", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, h, http.MethodDelete, "/api/companies/bitpanda", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildRouter_DismissJob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	circle := model.NewCompany("Circle")
	circle.Jobs = []model.Job{
		{ID: "j1", Title: "BD Lead", PostedDate: time.Now().AddDate(0, -1, 0)},
		{ID: "j2", Title: "Partnerships Manager", PostedDate: time.Now()},
	}
	require.NoError(t, st.SaveCompany(ctx, circle))

	h := buildRouter(ctx, st, nil, nil)

	rr := do(t, h, http.MethodPost, "/api/companies/circle/jobs/j1/dismiss", map[string]string{"reason": "filled"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got model.Company
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "j2", got.Jobs[0].ID)

	stored, err := st.GetCompany(ctx, "circle")
	require.NoError(t, err)
	require.Len(t, stored.Jobs, 2, "dismissed jobs are kept, only hidden")
	assert.True(t, stored.Jobs[0].Hidden)
	assert.Equal(t, "filled", stored.Jobs[0].DismissReason)

	rr = do(t, h, http.MethodGet, "/api/companies/circle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Jobs, 1)

	rr = do(t, h, http.MethodPost, "/api/companies/circle/jobs/j2/dismiss", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "reason is optional")

	rr = do(t, h, http.MethodPost, "/api/companies/circle/jobs/missing/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/companies/nobody/jobs/j1/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildRouter_ResearchNeedsService(t *testing.T) {
	h := buildRouter(context.Background(), newTestStore(t), nil, nil)

	rr := do(t, h, http.MethodPost, "/api/companies/enrich", map[string]any{"name": "Circle"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBuildRouter_EnrichSaves(t *testing.T) {
	st := newTestStore(t)
	h := buildRouter(context.Background(), st, offlineService(), nil)

	rr := do(t, h, http.MethodPost, "/api/companies/enrich", map[string]any{"name": "Circle", "save": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res enrich.CompanyResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "circle", res.Company.ID)
	assert.False(t, res.Structured)

	got, err := st.GetCompany(context.Background(), "circle")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Description)

	rr = do(t, h, http.MethodPost, "/api/companies/enrich", map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildRouter_InvalidBody(t *testing.T) {
	h := buildRouter(context.Background(), newTestStore(t), offlineService(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildRouter_AnalyzeJob(t *testing.T) {
	h := buildRouter(context.Background(), newTestStore(t), offlineService(), nil)

	rr := do(t, h, http.MethodPost, "/api/jobs/analyze", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/jobs/analyze", map[string]any{"url": "https://jobs.example.com/1"})
	require.Equal(t, http.StatusOK, rr.Code)
	var res enrich.JobAnalysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.FetchFailed)
}

func TestBuildRouter_NewsAndVotes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	item := model.NewsItem{
		ID:               "n1",
		Title:            "Circle files for IPO",
		Source:           "CoinDesk",
		Date:             serveNow,
		URL:              "https://www.coindesk.com/circle-ipo",
		RelatedCompanies: []string{"Circle"},
		SourceType:       model.SourceTypePress,
	}
	_, err := st.SaveNews(ctx, []model.NewsItem{item})
	require.NoError(t, err)

	h := buildRouter(ctx, st, nil, nil)

	rr := do(t, h, http.MethodPost, "/api/news/n1/vote", map[string]any{"user_id": "u1", "value": 1})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/news/n1/vote", map[string]any{"user_id": "u2", "value": -1})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/news/n1/vote", map[string]any{"user_id": "u3", "value": 2})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/news/n1/vote", map[string]any{"value": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/news?company=circle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var items []newsItemView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Circle files for IPO", items[0].Title)
	assert.Equal(t, 1, items[0].Up)
	assert.Equal(t, 1, items[0].Down)
	assert.Equal(t, 0, items[0].Score)

	rr = do(t, h, http.MethodGet, "/api/news?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildRouter_SourceConfig(t *testing.T) {
	st := newTestStore(t)
	h := buildRouter(context.Background(), st, nil, nil)

	rr := do(t, h, http.MethodGet, "/api/config/sources", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"excluded_domains":[]`)

	rr = do(t, h, http.MethodPut, "/api/config/sources", map[string]any{"excluded_domains": []string{"decrypt.co"}})
	require.Equal(t, http.StatusOK, rr.Code)

	sc, err := st.GetSourceConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"decrypt.co"}, sc.ExcludedDomains)
}

func TestBuildRouter_FixCentralBanks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	solana := model.NewCompany("Solana")
	solana.Description = "Solana is a high-performance Layer-1 blockchain"
	solana.Categories = []model.Category{model.CategoryCentralBanks, model.CategoryInfrastructure}
	require.NoError(t, st.SaveCompany(ctx, solana))

	h := buildRouter(ctx, st, nil, nil)

	rr := do(t, h, http.MethodPost, "/api/central-banks/fix?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var fixes []enrich.CategoryFix
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fixes))
	require.Len(t, fixes, 1)

	got, err := st.GetCompany(ctx, "solana")
	require.NoError(t, err)
	assert.True(t, got.HasCategory(model.CategoryCentralBanks), "dry run leaves the store alone")

	rr = do(t, h, http.MethodPost, "/api/central-banks/fix", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got, err = st.GetCompany(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.CategoryInfrastructure}, got.Categories)
}

func TestBuildRouter_FundingBatchAccepted(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := st.SaveCompanies(ctx, []model.Company{model.NewCompany("Circle"), model.NewCompany("Paxos")})
	require.NoError(t, err)

	h := buildRouter(ctx, st, offlineService(), nil)
	rr := do(t, h, http.MethodPost, "/api/funding/batch", map[string]any{})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])
	assert.InDelta(t, 2, body["companies"], 0)
}

func TestBuildRouter_ExportXLSX(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.SaveCompany(context.Background(), model.NewCompany("Circle")))

	h := buildRouter(context.Background(), st, nil, nil)
	rr := do(t, h, http.MethodGet, "/api/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rr.Body.Len())
}
