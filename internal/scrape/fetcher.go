// Package scrape fetches a web page's readable text through a chain of
// fetchers: a plain HTTP fetch first, then hosted renderers for pages that
// block bots or need JavaScript.
package scrape

import (
	"context"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrFetchFailed means no fetcher could return usable content for a URL:
// it was blocked, rendered client-side only, or empty. Callers surface it
// so a user can paste the page text by hand.
var ErrFetchFailed = eris.New("scrape: page could not be fetched")

// MaxContentChars bounds the text kept from one page.
const MaxContentChars = 60000

// Page is the readable content of one URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Source names the fetcher that produced the page.
	Source string `json:"source"`
}

// Fetcher returns the text of a single page.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Page, error)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
