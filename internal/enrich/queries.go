package enrich

import (
	"fmt"
	"strings"
)

// jobBoards are the applicant tracking hosts searched for postings.
var jobBoards = []string{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"workable.com",
	"wellfound.com",
}

func quote(name string) string {
	return fmt.Sprintf("%q", strings.TrimSpace(name))
}

func jobBoardClause() string {
	parts := make([]string, len(jobBoards))
	for i, d := range jobBoards {
		parts[i] = "site:" + d
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// companyQueries are the base and broad queries for a company profile.
// The first entry is meant to be site-targeted.
func companyQueries(name string) []string {
	q := quote(name)
	return []string{
		q + " stablecoin OR crypto OR payments",
		q + " company headquarters overview",
		q + " partnership OR partners OR acquired",
	}
}

func jobQueries(name string) []string {
	q := quote(name)
	return []string{
		q + " " + jobBoardClause(),
		q + " careers (business development OR partnerships OR strategy OR customer success)",
	}
}

func industryNewsQueries() []string {
	return []string{
		"stablecoin news",
		"stablecoin partnership OR launch OR regulation OR acquisition",
		"USDC OR USDT OR PYUSD OR RLUSD announcement",
	}
}

func companyNewsQueries(name string) []string {
	q := quote(name)
	return []string{
		q + " stablecoin OR crypto",
		q + " announces OR partners OR launches",
	}
}

func investorNewsQueries(investor string) []string {
	q := quote(investor)
	return []string{
		q + " invests OR leads OR backs stablecoin OR crypto",
		q + " funding round stablecoin OR payments OR blockchain",
	}
}

func portfolioQueries(investor string) []string {
	q := quote(investor)
	return []string{
		q + " portfolio stablecoin OR crypto OR payments",
		q + " invested in OR led round OR backed",
	}
}

func fundingQueries(name string) []string {
	q := quote(name)
	return []string{
		q + " raises OR \"funding round\" OR series",
		q + " valuation OR acquired OR investors",
	}
}
