package model

import "strings"

// PartnerType classifies the counterparty in a relationship.
type PartnerType string

const (
	PartnerFortune500Global PartnerType = "Fortune500Global"
	PartnerCryptoNative     PartnerType = "CryptoNative"
	PartnerInvestor         PartnerType = "Investor"
)

// Partner is a relationship between a company and another entity.
type Partner struct {
	Name        string      `json:"name" firestore:"name"`
	Type        PartnerType `json:"type" firestore:"type"`
	Description string      `json:"description" firestore:"description"`
	Country     string      `json:"country,omitempty" firestore:"country"`
	Region      string      `json:"region,omitempty" firestore:"region"`
	Industry    string      `json:"industry,omitempty" firestore:"industry"`
}

// Key is the uniqueness key: the same entity may appear once per type.
func (p Partner) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Name)) + "|" + string(p.Type)
}

// MergePartners appends incoming partners to existing, keeping the first
// occurrence of each (name, type) pair. Empty fields on a kept partner are
// filled from later duplicates.
func MergePartners(existing []Partner, incoming ...Partner) []Partner {
	out := make([]Partner, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	add := func(p Partner) {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return
		}
		if i, ok := index[p.Key()]; ok {
			kept := &out[i]
			if kept.Description == "" {
				kept.Description = p.Description
			}
			if kept.Country == "" {
				kept.Country = p.Country
			}
			if kept.Region == "" {
				kept.Region = p.Region
			}
			if kept.Industry == "" {
				kept.Industry = p.Industry
			}
			return
		}
		index[p.Key()] = len(out)
		out = append(out, p)
	}

	for _, p := range existing {
		add(p)
	}
	for _, p := range incoming {
		add(p)
	}
	return out
}
