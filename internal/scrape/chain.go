package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries fetchers in order and returns the first usable page.
type Chain struct {
	skip     *PathMatcher
	fetchers []Fetcher
}

// NewChain creates a Chain. A nil matcher uses the default skip list; nil
// fetchers are ignored.
func NewChain(skip *PathMatcher, fetchers ...Fetcher) *Chain {
	if skip == nil {
		skip = NewPathMatcher(nil)
	}
	c := &Chain{skip: skip}
	for _, f := range fetchers {
		if f != nil {
			c.fetchers = append(c.fetchers, f)
		}
	}
	return c
}

// Name implements Fetcher.
func (c *Chain) Name() string { return "chain" }

// Fetch returns the first page with content. Every failure, including an
// excluded or malformed URL, is reported as ErrFetchFailed.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	targetURL = strings.TrimSpace(targetURL)
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		return nil, eris.Wrapf(ErrFetchFailed, "invalid url %q", targetURL)
	}
	if c.skip.IsExcluded(targetURL) {
		return nil, eris.Wrapf(ErrFetchFailed, "excluded url %s", targetURL)
	}

	var reasons []string
	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: fetch")
		}
		page, err := f.Fetch(ctx, targetURL)
		if err == nil && page != nil && strings.TrimSpace(page.Content) != "" {
			page.Content = truncate(page.Content, MaxContentChars)
			if page.URL == "" {
				page.URL = targetURL
			}
			if page.Source == "" {
				page.Source = f.Name()
			}
			return page, nil
		}
		if err == nil {
			err = eris.New("empty content")
		}
		zap.L().Debug("scrape: fetcher failed, trying next",
			zap.String("fetcher", f.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		reasons = append(reasons, f.Name()+": "+err.Error())
	}
	return nil, eris.Wrapf(ErrFetchFailed, "%s (%s)", targetURL, strings.Join(reasons, "; "))
}
