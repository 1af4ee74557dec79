package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	maxBodyBytes = 2 << 20
	// minTextChars is the least extracted text a page needs before it is
	// treated as a client-rendered shell.
	minTextChars = 200
)

// LocalFetcher fetches HTML directly and extracts readable text with
// goquery. It costs nothing, so it runs first.
type LocalFetcher struct {
	client    *http.Client
	userAgent string
}

// NewLocalFetcher creates a LocalFetcher. A nil client gets a default with
// short dial and TLS timeouts.
func NewLocalFetcher(client *http.Client) *LocalFetcher {
	if client == nil {
		client = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return &LocalFetcher{
		client:    client,
		userAgent: "Mozilla/5.0 (compatible; StablecoinIntelBot/1.0)",
	}
}

func (l *LocalFetcher) Name() string { return "local_http" }

// Fetch reads the page and rejects blocked, erroring and near-empty ones.
func (l *LocalFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return nil, eris.Errorf("local_http: unsupported content type %s", ct)
	}

	title, text, err := ExtractText(body)
	if err != nil {
		return nil, err
	}
	if len(text) < minTextChars {
		return nil, eris.Errorf("local_http: only %d chars of text (%s)", len(text), BlockJSShell)
	}
	return &Page{URL: targetURL, Title: title, Content: text, Source: l.Name()}, nil
}

const dropSelectors = "script, style, noscript, iframe, svg, nav, footer, header, form, aside, [aria-hidden=true]"

const blockSelectors = "h1, h2, h3, h4, p, li, dt, dd, th, td, pre, blockquote"

// ExtractText returns the page title and its visible text, one block per
// line. Navigation, scripts and page chrome are dropped.
func ExtractText(html []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", eris.Wrap(err, "local_http: parse html")
	}

	title = collapse(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		title = collapse(og)
	}

	doc.Find(dropSelectors).Remove()

	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	seen := make(map[string]bool)
	root.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		line := collapse(s.Text())
		if line == "" || seen[line] {
			return
		}
		seen[line] = true
		if goquery.NodeName(s) == "li" {
			line = "- " + line
		}
		lines = append(lines, line)
	})
	if len(lines) == 0 {
		if body := collapse(root.Text()); body != "" {
			lines = append(lines, body)
		}
	}
	return title, strings.Join(lines, "\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
