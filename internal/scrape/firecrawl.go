package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/pkg/firecrawl"
)

// FirecrawlFetcher is the last resort: a paid headless render that waits
// for client-side content.
type FirecrawlFetcher struct {
	client  firecrawl.Client
	waitFor int
}

// NewFirecrawlFetcher wraps a Firecrawl client, waiting waitForMs before
// capturing each page.
func NewFirecrawlFetcher(client firecrawl.Client, waitForMs int) *FirecrawlFetcher {
	return &FirecrawlFetcher{client: client, waitFor: waitForMs}
}

func (f *FirecrawlFetcher) Name() string { return "firecrawl" }

// Fetch renders the URL.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		WaitFor:         f.waitFor,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.Errorf("firecrawl: scrape not successful: %s", resp.Error)
	}
	if code := resp.Data.Metadata.StatusCode; code >= 400 {
		return nil, eris.Errorf("firecrawl: page status %d", code)
	}
	return &Page{
		URL:     firstNonEmpty(resp.Data.Metadata.SourceURL, targetURL),
		Title:   resp.Data.Metadata.Title,
		Content: strings.TrimSpace(resp.Data.Markdown),
		Source:  f.Name(),
	}, nil
}
