package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/export"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the directory HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(ctx, env.Store, env.Service, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// api serves the directory over HTTP. ctx outlives single requests and
// bounds background batch jobs.
type api struct {
	ctx context.Context
	st  store.Store
	svc *enrich.Service
	now func() time.Time
}

// buildRouter wires every route. A nil svc leaves the research routes
// answering 503, which keeps the read-only routes testable alone.
func buildRouter(ctx context.Context, st store.Store, svc *enrich.Service, origins []string) http.Handler {
	a := &api{ctx: ctx, st: st, svc: svc, now: time.Now}

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", a.listCompanies)
			r.Post("/enrich", a.research(a.enrichCompany))
			r.Get("/{id}", a.getCompany)
			r.Delete("/{id}", a.deleteCompany)
			r.Post("/{id}/jobs/{jobID}/dismiss", a.dismissJob)
		})

		r.Post("/jobs/search", a.research(a.findJobs))
		r.Post("/jobs/analyze", a.research(a.analyzeJob))

		r.Route("/news", func(r chi.Router) {
			r.Get("/", a.listNews)
			r.Post("/industry", a.research(a.industryNews))
			r.Post("/company", a.research(a.companyNews))
			r.Post("/investor", a.research(a.investorNews))
			r.Post("/{id}/vote", a.vote)
		})

		r.Post("/portfolio", a.research(a.portfolio))
		r.Post("/funding", a.research(a.funding))
		r.Post("/funding/batch", a.research(a.fundingBatch))
		r.Post("/central-banks/fix", a.fixCentralBanks)

		r.Get("/config/sources", a.getSourceConfig)
		r.Put("/config/sources", a.putSourceConfig)

		r.Get("/export.xlsx", a.exportXLSX)
	})

	return r
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

// respondErr maps store and request errors to a status.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusRequestTimeout, "request cancelled")
	default:
		zap.L().Error("api request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// research guards the routes that need the enrichment service.
func (a *api) research(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.svc == nil {
			respondError(w, http.StatusServiceUnavailable, "research backends not configured")
			return
		}
		h(w, r)
	}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (a *api) listCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	companies, err := a.st.ListCompanies(r.Context(), store.CompanyFilter{
		Category: model.Category(q.Get("category")),
		Country:  q.Get("country"),
		Region:   q.Get("region"),
		Query:    q.Get("q"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	for i := range companies {
		companies[i].Jobs = model.VisibleJobs(companies[i].Jobs, a.now())
	}
	respond(w, http.StatusOK, companies)
}

func (a *api) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := a.st.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c.Jobs = model.VisibleJobs(c.Jobs, a.now())
	respond(w, http.StatusOK, c)
}

func (a *api) deleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := a.st.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name"`
	Save bool   `json:"save"`
}

// dismissJob hides one job. The body is optional: {"reason": "..."}.
func (a *api) dismissJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := dismissJob(r.Context(), a.st, chi.URLParam(r, "id"), chi.URLParam(r, "jobID"), req.Reason, a.now())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c.Jobs = model.VisibleJobs(c.Jobs, a.now())
	respond(w, http.StatusOK, c)
}

func (a *api) enrichCompany(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := enrichAndSave(r.Context(), &appEnv{Store: a.st, Service: a.svc}, req.Name, req.Save)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (a *api) findJobs(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	jobs, err := a.svc.FindJobOpenings(r.Context(), req.Name)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Save && len(jobs) > 0 {
		if _, err := updateCompany(r.Context(), a.st, req.Name, func(c *model.Company) {
			c.Jobs = model.MergeJobs(c.Jobs, jobs...)
		}); err != nil {
			respondErr(w, r, err)
			return
		}
	}
	respond(w, http.StatusOK, jobs)
}

func (a *api) analyzeJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" && req.Text == "" {
		respondError(w, http.StatusBadRequest, "url or text is required")
		return
	}

	var (
		res *enrich.JobAnalysis
		err error
	)
	if req.Text != "" {
		res, err = a.svc.AnalyzeJobText(r.Context(), req.URL, req.Text)
	} else {
		res, err = a.svc.AnalyzeJobLink(r.Context(), req.URL)
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

// newsItemView is a stored story with its vote tally.
type newsItemView struct {
	model.NewsItem
	Up    int `json:"up"`
	Down  int `json:"down"`
	Score int `json:"score"`
}

func (a *api) listNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.NewsFilter{
		Company:    q.Get("company"),
		SourceType: model.SourceType(q.Get("source_type")),
		Limit:      queryInt(r, "limit"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		filter.Since = t
	}

	items, err := a.st.ListNews(r.Context(), filter)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	tallies, err := a.st.TallyVotes(r.Context(), ids)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	out := make([]newsItemView, len(items))
	for i, it := range items {
		t := tallies[it.ID]
		out[i] = newsItemView{NewsItem: it, Up: t.Up, Down: t.Down, Score: t.Score()}
	}
	respond(w, http.StatusOK, out)
}

// saveNews stores items and answers with them and the count of new ones.
func (a *api) saveNews(w http.ResponseWriter, r *http.Request, items []model.NewsItem, err error) {
	if err != nil {
		respondErr(w, r, err)
		return
	}
	added := 0
	if len(items) > 0 {
		added, err = a.st.SaveNews(r.Context(), items)
		if err != nil {
			respondErr(w, r, err)
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"items": items, "added": added})
}

func (a *api) industryNews(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.FetchIndustryNews(r.Context())
	a.saveNews(w, r, items, err)
}

func (a *api) companyNews(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := a.svc.ScanCompanyNews(r.Context(), req.Name)
	a.saveNews(w, r, items, err)
}

func (a *api) investorNews(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := a.svc.ScanInvestorNews(r.Context(), req.Name)
	a.saveNews(w, r, items, err)
}

func (a *api) vote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string          `json:"user_id"`
		Value  model.VoteValue `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Value != model.VoteUp && req.Value != model.VoteDown {
		respondError(w, http.StatusBadRequest, "value must be 1 or -1")
		return
	}

	newsID := chi.URLParam(r, "id")
	if err := a.st.CastVote(r.Context(), model.Vote{NewsID: newsID, UserID: req.UserID, Value: req.Value}); err != nil {
		respondErr(w, r, err)
		return
	}
	tallies, err := a.st.TallyVotes(r.Context(), []string{newsID})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, tallies[newsID])
}

func (a *api) portfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Investor string `json:"investor"`
		URL      string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Investor) == "" {
		respondError(w, http.StatusBadRequest, "investor is required")
		return
	}

	var (
		res *enrich.PortfolioResult
		err error
	)
	if req.URL != "" {
		res, err = a.svc.LookupInvestorPortfolioFromURL(r.Context(), req.Investor, req.URL)
	} else {
		res, err = a.svc.LookupInvestorPortfolio(r.Context(), req.Investor)
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (a *api) funding(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	info, err := a.svc.FetchFunding(r.Context(), req.Name)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Save && info != nil {
		if _, err := updateCompany(r.Context(), a.st, req.Name, func(c *model.Company) {
			c.Funding = model.MergeFunding(c.Funding, info)
		}); err != nil {
			respondErr(w, r, err)
			return
		}
	}
	respond(w, http.StatusOK, map[string]any{"company": req.Name, "funding": info})
}

// fundingBatch starts a paced refresh over the stored companies and
// answers before it finishes.
func (a *api) fundingBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	companies, err := allCompanies(r.Context(), a.st)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Category != "" {
		companies = byCategory(companies, model.Category(req.Category))
	}

	go func() {
		updates, err := a.svc.BatchFetchFunding(a.ctx, companies, nil)
		if len(updates) > 0 {
			changed := make([]model.Company, len(updates))
			for i, u := range updates {
				changed[i] = u.Company
			}
			if _, saveErr := a.st.SaveCompanies(a.ctx, changed); saveErr != nil {
				zap.L().Error("funding batch save failed", zap.Error(saveErr))
			}
		}
		if err != nil {
			zap.L().Warn("funding batch stopped", zap.Int("updated", len(updates)), zap.Error(err))
			return
		}
		zap.L().Info("funding batch complete", zap.Int("companies", len(companies)), zap.Int("updated", len(updates)))
	}()

	respond(w, http.StatusAccepted, map[string]any{"status": "accepted", "companies": len(companies)})
}

func (a *api) fixCentralBanks(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"

	companies, err := allCompanies(r.Context(), a.st)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	svc := a.svc
	if svc == nil {
		svc = enrich.New(nil, nil, nil, nil)
	}
	fixes := svc.ScanAndFixCentralBanks(companies)

	if !dryRun && len(fixes) > 0 {
		fixed := make([]model.Company, len(fixes))
		for i, f := range fixes {
			fixed[i] = f.Company
		}
		if _, err := a.st.SaveCompanies(r.Context(), fixed); err != nil {
			respondErr(w, r, err)
			return
		}
	}
	respond(w, http.StatusOK, fixes)
}

func (a *api) getSourceConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := a.st.GetSourceConfig(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if sc.ExcludedDomains == nil {
		sc.ExcludedDomains = []string{}
	}
	respond(w, http.StatusOK, sc)
}

func (a *api) putSourceConfig(w http.ResponseWriter, r *http.Request) {
	var req model.SourceConfig
	if !decode(w, r, &req) {
		return
	}
	req.UpdatedAt = a.now().UTC()
	if err := a.st.SaveSourceConfig(r.Context(), req); err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, req)
}

func (a *api) exportXLSX(w http.ResponseWriter, r *http.Request) {
	companies, err := allCompanies(r.Context(), a.st)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="directory.xlsx"`)
	if err := export.WriteXLSXTo(w, companies, a.now()); err != nil {
		zap.L().Error("xlsx export failed", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
