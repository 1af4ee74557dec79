// Package model defines the directory entities produced by the enrichment
// pipeline and handed to the store.
package model

import (
	"strings"
	"time"
)

// Category tags a company's line of business.
type Category string

const (
	CategoryIssuer         Category = "Issuer"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryWallet         Category = "Wallet"
	CategoryPayments       Category = "Payments"
	CategoryDeFi           Category = "DeFi"
	CategoryCustody        Category = "Custody"
	CategoryCentralBanks   Category = "Central Banks"
	CategoryBanks          Category = "Banks"
	CategoryVC             Category = "VC"
	CategoryConsultancy    Category = "Consultancy"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryIssuer,
	CategoryInfrastructure,
	CategoryWallet,
	CategoryPayments,
	CategoryDeFi,
	CategoryCustody,
	CategoryCentralBanks,
	CategoryBanks,
	CategoryVC,
	CategoryConsultancy,
}

// Focus says whether crypto is the core business or an add-on.
type Focus string

const (
	FocusCryptoFirst  Focus = "Crypto-First"
	FocusCryptoSecond Focus = "Crypto-Second"
)

// Location is the result of headquarters inference.
type Location struct {
	Headquarters string `json:"headquarters" firestore:"headquarters"`
	Country      string `json:"country" firestore:"country"`
	Region       string `json:"region" firestore:"region"`
}

// Company is a directory entry.
type Company struct {
	ID           string       `json:"id" firestore:"id"`
	Name         string       `json:"name" firestore:"name"`
	Description  string       `json:"description" firestore:"description"`
	Categories   []Category   `json:"categories" firestore:"categories"`
	Website      string       `json:"website,omitempty" firestore:"website"`
	Headquarters string       `json:"headquarters,omitempty" firestore:"headquarters"`
	Country      string       `json:"country,omitempty" firestore:"country"`
	Region       string       `json:"region,omitempty" firestore:"region"`
	Industry     string       `json:"industry,omitempty" firestore:"industry"`
	Focus        Focus        `json:"focus,omitempty" firestore:"focus"`
	Partners     []Partner    `json:"partners,omitempty" firestore:"partners"`
	Jobs         []Job        `json:"jobs,omitempty" firestore:"jobs"`
	Funding      *FundingInfo `json:"funding,omitempty" firestore:"funding"`
	RecentNews   []NewsItem   `json:"recent_news,omitempty" firestore:"recentNews"`
	CreatedAt    time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" firestore:"updatedAt"`
}

// NewCompany returns a company whose ID is derived from name.
func NewCompany(name string) Company {
	name = strings.TrimSpace(name)
	return Company{
		ID:   CompanyID(name),
		Name: name,
	}
}

// HasCategory reports whether the company carries cat.
func (c Company) HasCategory(cat Category) bool {
	for _, have := range c.Categories {
		if have == cat {
			return true
		}
	}
	return false
}

// SetLocation copies an inferred location onto the company.
func (c *Company) SetLocation(loc Location) {
	c.Headquarters = loc.Headquarters
	c.Country = loc.Country
	c.Region = loc.Region
}

// DedupeCategories removes repeated tags while keeping first-seen order.
func DedupeCategories(cats []Category) []Category {
	seen := make(map[Category]bool, len(cats))
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FundingInfo holds what is known about a company's capital raises.
type FundingInfo struct {
	TotalRaised   string   `json:"total_raised,omitempty" firestore:"totalRaised"`
	Valuation     string   `json:"valuation,omitempty" firestore:"valuation"`
	LastRound     string   `json:"last_round,omitempty" firestore:"lastRound"`
	LastRoundDate string   `json:"last_round_date,omitempty" firestore:"lastRoundDate"`
	Investors     []string `json:"investors,omitempty" firestore:"investors"`
}

// IsEmpty reports whether no field carries a value.
func (f *FundingInfo) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.TotalRaised == "" && f.Valuation == "" && f.LastRound == "" &&
		f.LastRoundDate == "" && len(f.Investors) == 0
}

// MergeFunding combines two extraction passes. Non-empty incoming values
// replace base values; empty values never overwrite. Investors are unioned
// case-insensitively. Returns nil when the result carries nothing.
func MergeFunding(base, incoming *FundingInfo) *FundingInfo {
	out := &FundingInfo{}
	if base != nil {
		*out = *base
		out.Investors = append([]string(nil), base.Investors...)
	}
	if incoming != nil {
		if incoming.TotalRaised != "" {
			out.TotalRaised = incoming.TotalRaised
		}
		if incoming.Valuation != "" {
			out.Valuation = incoming.Valuation
		}
		if incoming.LastRound != "" {
			out.LastRound = incoming.LastRound
		}
		if incoming.LastRoundDate != "" {
			out.LastRoundDate = incoming.LastRoundDate
		}
		seen := make(map[string]bool, len(out.Investors))
		for _, inv := range out.Investors {
			seen[strings.ToLower(strings.TrimSpace(inv))] = true
		}
		for _, inv := range incoming.Investors {
			key := strings.ToLower(strings.TrimSpace(inv))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out.Investors = append(out.Investors, strings.TrimSpace(inv))
		}
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}
