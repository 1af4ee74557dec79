package model

import (
	"strings"
	"time"
)

// Department buckets a job posting.
type Department string

const (
	DepartmentStrategy        Department = "Strategy"
	DepartmentCustomerSuccess Department = "Customer Success"
	DepartmentBusinessDev     Department = "Business Dev"
	DepartmentPartnerships    Department = "Partnerships"
	DepartmentOther           Department = "Other"
)

// jobRecencyMonths is how long a posting stays visible after PostedDate.
const jobRecencyMonths = 6

// Job is a job posting attached to a company.
type Job struct {
	ID            string     `json:"id" firestore:"id"`
	Title         string     `json:"title" firestore:"title"`
	Department    Department `json:"department" firestore:"department"`
	Locations     []string   `json:"locations" firestore:"locations"`
	PostedDate    time.Time  `json:"posted_date" firestore:"postedDate"`
	URL           string     `json:"url" firestore:"url"`
	Salary        string     `json:"salary,omitempty" firestore:"salary"`
	Description   string     `json:"description,omitempty" firestore:"description"`
	Requirements  []string   `json:"requirements,omitempty" firestore:"requirements"`
	Benefits      []string   `json:"benefits,omitempty" firestore:"benefits"`
	Hidden        bool       `json:"hidden,omitempty" firestore:"hidden"`
	DismissReason string     `json:"dismiss_reason,omitempty" firestore:"dismissReason"`
}

// Dismiss hides the job from listings, recording why.
func (j *Job) Dismiss(reason string) {
	j.Hidden = true
	j.DismissReason = strings.TrimSpace(reason)
}

// RecentJobs returns the jobs posted within the last six months of now.
// Jobs without a posted date are kept. The input slice is not modified.
func RecentJobs(jobs []Job, now time.Time) []Job {
	cutoff := now.AddDate(0, -jobRecencyMonths, 0)
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if !j.PostedDate.IsZero() && j.PostedDate.Before(cutoff) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// VisibleJobs returns recent jobs that have not been dismissed.
func VisibleJobs(jobs []Job, now time.Time) []Job {
	recent := RecentJobs(jobs, now)
	out := recent[:0]
	for _, j := range recent {
		if !j.Hidden {
			out = append(out, j)
		}
	}
	return out
}

// MergeJobs adds incoming jobs whose URL (or title when URL is empty) is
// not already present. Existing jobs keep their hidden state.
func MergeJobs(existing []Job, incoming ...Job) []Job {
	out := append([]Job(nil), existing...)
	seen := make(map[string]bool, len(existing)+len(incoming))
	key := func(j Job) string {
		if j.URL != "" {
			return strings.ToLower(strings.TrimRight(j.URL, "/"))
		}
		return NormalizeTitle(j.Title)
	}
	for _, j := range existing {
		seen[key(j)] = true
	}
	for _, j := range incoming {
		k := key(j)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, j)
	}
	return out
}
