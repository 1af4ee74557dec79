package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/stablecoin-intel/internal/sources"
)

func TestCleanSearchTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		snippet string
		want    string
	}{
		{"dash suffix", "Circle raises $400M - Reuters", "", "Circle raises $400M"},
		{"pipe suffix", "Paxos launches USDG | CoinDesk", "", "Paxos launches USDG"},
		{"multi word suffix", "Stripe closes Bridge deal - The Wall Street Journal", "", "Stripe closes Bridge deal"},
		{"only last suffix stripped", "Tether - USDT reserves audited - Bloomberg", "", "Tether - USDT reserves audited"},
		{"no suffix", "Visa expands stablecoin settlement", "ignored", "Visa expands stablecoin settlement"},
		{"bare domain uses snippet", "coindesk.com", "Circle partners with Visa. More details inside.", "Circle partners with Visa."},
		{"url uses snippet", "https://www.example.com/news", "Paxos gets a charter! Regulators approved it.", "Paxos gets a charter!"},
		{"snippet date prefix", "example.com", "Mar 3, 2025 ... Bridge was acquired by Stripe. Deal closed.", "Bridge was acquired by Stripe."},
		{"bare domain no snippet", "example.com", "", "Untitled"},
		{"empty", "", "", "Untitled"},
		{"empty title with snippet", "", "Something happened", "Something happened"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanSearchTitle(tt.title, tt.snippet))
		})
	}
}

func TestCleanSearchTitle_LongSnippetTruncated(t *testing.T) {
	t.Parallel()
	snippet := strings.Repeat("stablecoin adoption keeps growing across markets ", 6)
	got := CleanSearchTitle("blockworks.co", snippet)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), maxDerivedTitle+3)
	assert.NotContains(t, got, "blockworks.co")
}

func TestLooksLikeDomain(t *testing.T) {
	t.Parallel()
	assert.True(t, LooksLikeDomain("coindesk.com"))
	assert.True(t, LooksLikeDomain("https://www.theblock.co/post/1"))
	assert.False(t, LooksLikeDomain("Circle raises $400M"))
	assert.False(t, LooksLikeDomain(""))
}

func TestResolveSourceName(t *testing.T) {
	t.Parallel()
	reg := sources.Default()

	tests := []struct {
		name        string
		url         string
		displayLink string
		want        string
	}{
		{"registry exact", "https://www.coindesk.com/policy/x", "", "CoinDesk"},
		{"registry subdomain", "https://markets.businessinsider.com/news", "", "Business Insider"},
		{"display link", "https://news.google.com/articles/abc", "www.theblock.co", "The Block"},
		{"humanized", "https://www.crypto-briefing.com/post", "", "Crypto Briefing"},
		{"skips generic labels", "https://blog.stablecorp.io/x", "", "Stablecorp"},
		{"nothing readable", "https://m.io", "", UnknownSource},
		{"empty", "", "", UnknownSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveSourceName(reg, tt.url, tt.displayLink))
		})
	}
}

func TestFormatFinancialAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"450 million", "$450M"},
		{"1.5 billion", "$1.5B"},
		{"2000000", "$2M"},
		{"$1.1B", "$1.1B"},
		{"$25m", "$25M"},
		{"750k", "$750K"},
		{"3.0 bn", "$3B"},
		{"1,250,000", "$1.25M"},
		{"about $40 million in Series B", "$40M"},
		{"undisclosed", "undisclosed"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatFinancialAmount(tt.in))
		})
	}
}

func TestSanitizeWebsite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com.com", "https://example.com"},
		{"not a url", ""},
		{"https://www.circle.com/", "https://www.circle.com"},
		{"paxos.com/en/", "https://paxos.com/en"},
		{"http://Bridge.xyz", "http://bridge.xyz"},
		{"https://stripe.com/?utm=1#top", "https://stripe.com"},
		{"ftp://files.example.com", ""},
		{"localhost", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SanitizeWebsite(tt.in))
		})
	}
}
