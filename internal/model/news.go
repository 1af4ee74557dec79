package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// SourceType is the derived provenance class of a news item.
type SourceType string

const (
	SourceTypePress        SourceType = "press"
	SourceTypePressRelease SourceType = "press_release"
	SourceTypePartnership  SourceType = "partnership"
)

// NewsItem is a news story attached to the feed or to a company.
type NewsItem struct {
	ID               string     `json:"id" firestore:"id"`
	Title            string     `json:"title" firestore:"title"`
	Source           string     `json:"source" firestore:"source"`
	Date             time.Time  `json:"date" firestore:"date"`
	Summary          string     `json:"summary" firestore:"summary"`
	URL              string     `json:"url" firestore:"url"`
	RelatedCompanies []string   `json:"related_companies,omitempty" firestore:"relatedCompanies"`
	SourceType       SourceType `json:"source_type" firestore:"sourceType"`
}

// NewsID returns a stable id for a story: a name-based UUID of the URL, or
// of the normalized title when the URL is missing.
func NewsID(url, title string) string {
	seed := strings.TrimRight(strings.TrimSpace(url), "/")
	if seed == "" {
		seed = "title:" + NormalizeTitle(title)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}

// NormalizeTitle lowercases a title and reduces it to alphanumeric words.
func NormalizeTitle(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// DedupeNews drops repeated stories, first by id then by normalized title,
// keeping the first occurrence.
func DedupeNews(items []NewsItem) []NewsItem {
	seenID := make(map[string]bool, len(items))
	seenTitle := make(map[string]bool, len(items))
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		title := NormalizeTitle(it.Title)
		if it.ID != "" && seenID[it.ID] {
			continue
		}
		if title != "" && seenTitle[title] {
			continue
		}
		if it.ID != "" {
			seenID[it.ID] = true
		}
		if title != "" {
			seenTitle[title] = true
		}
		out = append(out, it)
	}
	return out
}

// VoteValue is an up or down vote on a news item.
type VoteValue int

const (
	VoteDown VoteValue = -1
	VoteUp   VoteValue = 1
)

// Vote records one user's relevance judgement of a news item.
type Vote struct {
	NewsID    string    `json:"news_id" firestore:"newsId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Value     VoteValue `json:"value" firestore:"value"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// VoteTally sums the votes on one news item.
type VoteTally struct {
	NewsID string `json:"news_id"`
	Up     int    `json:"up"`
	Down   int    `json:"down"`
}

// Score is up minus down.
func (t VoteTally) Score() int { return t.Up - t.Down }
