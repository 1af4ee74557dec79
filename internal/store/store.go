// Package store persists the directory: companies, news, news votes and
// the source exclusion config.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultLimit caps list queries without an explicit limit.
const DefaultLimit = 500

// CompanyFilter narrows ListCompanies.
type CompanyFilter struct {
	Category model.Category `json:"category,omitempty"`
	Country  string         `json:"country,omitempty"`
	Region   string         `json:"region,omitempty"`
	// Query matches a substring of the name, case-insensitively.
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// NewsFilter narrows ListNews.
type NewsFilter struct {
	// Company keeps items whose related companies include this name.
	Company    string           `json:"company,omitempty"`
	SourceType model.SourceType `json:"source_type,omitempty"`
	Since      time.Time        `json:"since,omitempty"`
	Limit      int              `json:"limit,omitempty"`
}

// Store defines the persistence interface for the directory.
type Store interface {
	// Companies
	SaveCompany(ctx context.Context, c model.Company) error
	SaveCompanies(ctx context.Context, cs []model.Company) (int, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	DeleteCompany(ctx context.Context, id string) error

	// News
	SaveNews(ctx context.Context, items []model.NewsItem) (int, error)
	ListNews(ctx context.Context, filter NewsFilter) ([]model.NewsItem, error)

	// Votes
	CastVote(ctx context.Context, v model.Vote) error
	TallyVotes(ctx context.Context, newsIDs []string) (map[string]model.VoteTally, error)

	// Source config
	GetSourceConfig(ctx context.Context) (model.SourceConfig, error)
	SaveSourceConfig(ctx context.Context, cfg model.SourceConfig) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// validateCompany checks the fields every backend keys on.
func validateCompany(c model.Company) error {
	if strings.TrimSpace(c.ID) == "" {
		return eris.New("store: company id is required")
	}
	if c.ID != model.CompanyID(c.Name) {
		return eris.Errorf("store: company id %q does not match name %q", c.ID, c.Name)
	}
	return nil
}

// stampCompany validates c and fills missing timestamps.
func stampCompany(c model.Company) (model.Company, error) {
	if err := validateCompany(c); err != nil {
		return c, err
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return c, nil
}

func validateVote(v model.Vote) error {
	if v.NewsID == "" || v.UserID == "" {
		return eris.New("store: vote needs news and user ids")
	}
	if v.Value != model.VoteUp && v.Value != model.VoteDown {
		return eris.Errorf("store: invalid vote value %d", v.Value)
	}
	return nil
}

func limitOr(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// matchCompany applies every filter field except paging.
func matchCompany(c model.Company, f CompanyFilter) bool {
	if f.Category != "" && !c.HasCategory(f.Category) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(c.Country, f.Country) {
		return false
	}
	if f.Region != "" && !strings.EqualFold(c.Region, f.Region) {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// filterCompanies applies f in memory, sorted by name.
func filterCompanies(all []model.Company, f CompanyFilter) []model.Company {
	out := make([]model.Company, 0, len(all))
	for _, c := range all {
		if matchCompany(c, f) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if f.Offset >= len(out) {
		return nil
	}
	out = out[max(f.Offset, 0):]
	if limit := limitOr(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchNews(it model.NewsItem, f NewsFilter) bool {
	if f.SourceType != "" && it.SourceType != f.SourceType {
		return false
	}
	if !f.Since.IsZero() && it.Date.Before(f.Since) {
		return false
	}
	if f.Company != "" {
		for _, name := range it.RelatedCompanies {
			if strings.EqualFold(name, f.Company) {
				return true
			}
		}
		return false
	}
	return true
}

// filterNews applies f in memory, newest first.
func filterNews(all []model.NewsItem, f NewsFilter) []model.NewsItem {
	out := make([]model.NewsItem, 0, len(all))
	for _, it := range all {
		if matchNews(it, f) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit := limitOr(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tally folds votes into per-item counts. Every requested id gets an
// entry, zero when nobody voted.
func tally(newsIDs []string, votes []model.Vote) map[string]model.VoteTally {
	out := make(map[string]model.VoteTally, len(newsIDs))
	for _, id := range newsIDs {
		out[id] = model.VoteTally{NewsID: id}
	}
	for _, v := range votes {
		t, ok := out[v.NewsID]
		if !ok {
			continue
		}
		switch v.Value {
		case model.VoteUp:
			t.Up++
		case model.VoteDown:
			t.Down++
		}
		out[v.NewsID] = t
	}
	return out
}

// lastByID drops earlier duplicates of the same company id, keeping order
// of last occurrence.
func lastByID(cs []model.Company) []model.Company {
	last := make(map[string]int, len(cs))
	for i, c := range cs {
		last[c.ID] = i
	}
	out := make([]model.Company, 0, len(last))
	for i, c := range cs {
		if last[c.ID] == i {
			out = append(out, c)
		}
	}
	return out
}
