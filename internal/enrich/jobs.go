package enrich

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/normalize"
	"github.com/sells-group/stablecoin-intel/internal/scrape"
	"github.com/sells-group/stablecoin-intel/internal/search"
	"github.com/sells-group/stablecoin-intel/internal/sources"
	"github.com/sells-group/stablecoin-intel/internal/structure"
)

// jobWindow limits job searches to the visibility window of a posting.
const jobWindow = "m6"

const maxJobDescription = 600

// FindJobOpenings searches job boards and careers pages for business roles
// at a company. Search or model failure yields fewer jobs, not an error.
func (s *Service) FindJobOpenings(ctx context.Context, companyName string) ([]model.Job, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, eris.New("enrich: company name is required")
	}

	combined := s.searchAll(ctx, "jobs", jobQueries(companyName), search.Options{DateRestrict: jobWindow})
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: jobs")
	}
	if len(combined.Results) == 0 {
		return nil, nil
	}

	now := s.now()
	var jobs []model.Job
	if text, ok := s.complete(ctx, "jobs", structure.JobsPrompt(companyName, promptContext(combined))); ok {
		jobs = structure.ParseJobs(text, now)
	}
	if len(jobs) == 0 {
		jobs = jobsFromResults(combined.Results, now)
	}
	jobs = model.RecentJobs(jobs, now)

	zap.L().Info("enrich: job openings found",
		zap.String("company", companyName),
		zap.Int("jobs", len(jobs)),
	)
	return jobs, nil
}

// jobsFromResults keeps results hosted on a job board whose title names a
// business department.
func jobsFromResults(results []model.SearchResult, now time.Time) []model.Job {
	var out []model.Job
	for _, r := range results {
		if !isJobBoard(r.Link) {
			continue
		}
		title := normalize.CleanSearchTitle(r.Title, r.Snippet)
		dept := extract.ClassifyDepartment(title)
		if dept == model.DepartmentOther {
			continue
		}
		out = model.MergeJobs(out, model.Job{
			ID:         uuid.NewString(),
			Title:      title,
			Department: dept,
			URL:        r.Link,
			PostedDate: structure.ParsePostedDate(leadingDate(r.Snippet), now),
		})
	}
	return out
}

func isJobBoard(link string) bool {
	host := sources.HostOf(link)
	for _, d := range jobBoards {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// JobAnalysis is the outcome of reading one job posting.
type JobAnalysis struct {
	Job *model.Job `json:"job,omitempty"`
	// FetchFailed means the page could not be read; the caller may offer
	// AnalyzeJobText with pasted content instead.
	FetchFailed bool `json:"fetch_failed"`
}

// AnalyzeJobLink fetches a posting and extracts its fields. An unreadable
// page is reported through FetchFailed, not as an error.
func (s *Service) AnalyzeJobLink(ctx context.Context, pageURL string) (*JobAnalysis, error) {
	if s.fetch == nil {
		return &JobAnalysis{FetchFailed: true}, nil
	}
	page, err := s.fetch.Fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, scrape.ErrFetchFailed) {
			zap.L().Info("enrich: job page unreadable", zap.String("url", pageURL), zap.Error(err))
			return &JobAnalysis{FetchFailed: true}, nil
		}
		return nil, eris.Wrap(err, "enrich: analyze job link")
	}
	return s.analyzeJob(ctx, pageURL, page.Title, page.Content), nil
}

// AnalyzeJobText extracts a posting from content the user pasted.
func (s *Service) AnalyzeJobText(ctx context.Context, pageURL, content string) (*JobAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, eris.New("enrich: job text is empty")
	}
	return s.analyzeJob(ctx, pageURL, "", content), nil
}

func (s *Service) analyzeJob(ctx context.Context, pageURL, title, content string) *JobAnalysis {
	now := s.now()
	if text, ok := s.complete(ctx, "job_detail", structure.JobDetailPrompt(pageURL, content)); ok {
		job, err := structure.ParseJobDetail(text, pageURL, now)
		if err == nil {
			return &JobAnalysis{Job: &job}
		}
		zap.L().Warn("enrich: job reply unparseable, using fallback", zap.String("url", pageURL), zap.Error(err))
	}

	if title == "" {
		title = firstContentLine(content)
	}
	job := model.Job{
		ID:          uuid.NewString(),
		Title:       title,
		Department:  extract.ClassifyDepartment(title),
		URL:         pageURL,
		Description: clip(strings.Join(strings.Fields(content), " "), maxJobDescription),
	}
	return &JobAnalysis{Job: &job}
}

func firstContentLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#*- "))
		if line != "" {
			return clip(line, 120)
		}
	}
	return ""
}

// clip cuts s to at most n bytes on a rune boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}
