package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"suffix with comma", "Acme Corp, Inc.", "acme"},
		{"suffix without punctuation", "Acme Corp Inc", "acme"},
		{"plain", "Circle", "circle"},
		{"multi word", "Paxos Trust Company", "paxos-trust"},
		{"accents", "Société Générale", "societe-generale"},
		{"ampersand", "Ernst & Young LLP", "ernst-and-young"},
		{"only suffix kept", "Company", "company"},
		{"whitespace", "  Bridge  ", "bridge"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CompanyID(tt.in))
		})
	}
}

func TestCompanyID_DuplicateNamesResolveToSameID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CompanyID("Acme Corp, Inc."), CompanyID("Acme Corp Inc"))
	assert.Equal(t, CompanyID("Circle Internet Financial, LLC"), CompanyID("circle internet financial"))
}

func TestNewCompany(t *testing.T) {
	t.Parallel()
	c := NewCompany("  Paxos Trust Company ")
	assert.Equal(t, "Paxos Trust Company", c.Name)
	assert.Equal(t, "paxos-trust", c.ID)
}

func TestCompany_HasCategory(t *testing.T) {
	t.Parallel()
	c := Company{Categories: []Category{CategoryIssuer, CategoryPayments}}
	assert.True(t, c.HasCategory(CategoryIssuer))
	assert.False(t, c.HasCategory(CategoryBanks))
}

func TestDedupeCategories(t *testing.T) {
	t.Parallel()
	got := DedupeCategories([]Category{CategoryDeFi, CategoryIssuer, CategoryDeFi, "", CategoryIssuer})
	assert.Equal(t, []Category{CategoryDeFi, CategoryIssuer}, got)
}

func TestMergeFunding(t *testing.T) {
	t.Parallel()

	t.Run("empty incoming never overwrites", func(t *testing.T) {
		t.Parallel()
		base := &FundingInfo{TotalRaised: "$450M", LastRound: "Series D"}
		got := MergeFunding(base, &FundingInfo{})
		require.NotNil(t, got)
		assert.Equal(t, "$450M", got.TotalRaised)
		assert.Equal(t, "Series D", got.LastRound)
	})

	t.Run("incoming values fill and replace", func(t *testing.T) {
		t.Parallel()
		base := &FundingInfo{TotalRaised: "$450M", Investors: []string{"BlackRock"}}
		got := MergeFunding(base, &FundingInfo{Valuation: "$9B", Investors: []string{"blackrock", "Fidelity"}})
		require.NotNil(t, got)
		assert.Equal(t, "$450M", got.TotalRaised)
		assert.Equal(t, "$9B", got.Valuation)
		assert.Equal(t, []string{"BlackRock", "Fidelity"}, got.Investors)
	})

	t.Run("base is not mutated", func(t *testing.T) {
		t.Parallel()
		base := &FundingInfo{Investors: []string{"a16z"}}
		_ = MergeFunding(base, &FundingInfo{Investors: []string{"Coinbase Ventures"}})
		assert.Equal(t, []string{"a16z"}, base.Investors)
	})

	t.Run("nil when nothing known", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, MergeFunding(nil, nil))
		assert.Nil(t, MergeFunding(&FundingInfo{}, &FundingInfo{}))
	})
}

func TestMergePartners(t *testing.T) {
	t.Parallel()

	existing := []Partner{{Name: "Visa", Type: PartnerFortune500Global}}
	got := MergePartners(existing,
		Partner{Name: "visa", Type: PartnerFortune500Global, Description: "settlement"},
		Partner{Name: "Visa", Type: PartnerInvestor},
		Partner{Name: "  ", Type: PartnerCryptoNative},
	)

	require.Len(t, got, 2)
	assert.Equal(t, "Visa", got[0].Name)
	assert.Equal(t, "settlement", got[0].Description)
	assert.Equal(t, PartnerInvestor, got[1].Type)
}

func TestRecentJobs(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	jobs := []Job{
		{ID: "fresh", PostedDate: now.AddDate(0, -1, 0)},
		{ID: "stale", PostedDate: now.AddDate(0, -7, 0)},
		{ID: "undated"},
		{ID: "hidden", PostedDate: now.AddDate(0, 0, -3), Hidden: true},
	}

	recent := RecentJobs(jobs, now)
	ids := make([]string, 0, len(recent))
	for _, j := range recent {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"fresh", "undated", "hidden"}, ids)
	assert.Len(t, jobs, 4)

	visible := VisibleJobs(jobs, now)
	assert.Len(t, visible, 2)
}

func TestJob_Dismiss(t *testing.T) {
	t.Parallel()
	j := Job{Title: "Head of Partnerships"}
	j.Dismiss("  not relevant ")
	assert.True(t, j.Hidden)
	assert.Equal(t, "not relevant", j.DismissReason)
}

func TestMergeJobs(t *testing.T) {
	t.Parallel()
	existing := []Job{{Title: "BD Lead", URL: "https://jobs.example.com/1", Hidden: true}}
	got := MergeJobs(existing,
		Job{Title: "BD Lead", URL: "https://jobs.example.com/1/"},
		Job{Title: "Strategy Manager"},
		Job{Title: "strategy manager!"},
	)
	require.Len(t, got, 2)
	assert.True(t, got[0].Hidden)
	assert.Equal(t, "Strategy Manager", got[1].Title)
}

func TestNewsIDAndDedupe(t *testing.T) {
	t.Parallel()

	id1 := NewsID("https://www.coindesk.com/a/", "Circle partners with Visa")
	id2 := NewsID("https://www.coindesk.com/a", "different title")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, NewsID("", "Circle partners with Visa"))

	items := []NewsItem{
		{ID: "1", Title: "Circle partners with Visa"},
		{ID: "1", Title: "Something else"},
		{ID: "2", Title: "Circle Partners With Visa!"},
		{ID: "3", Title: "Paxos launches USDG"},
	}
	got := DedupeNews(items)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestVoteTally_Score(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2, VoteTally{Up: 3, Down: 1}.Score())
}
