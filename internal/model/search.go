package model

import "time"

// SearchResult is one organic web search hit. It is never persisted.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
}

// SourceConfig is the persisted runtime configuration of the source
// registry: domains excluded from biased searches.
type SourceConfig struct {
	ExcludedDomains []string  `json:"excluded_domains" firestore:"excludedDomains"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}
