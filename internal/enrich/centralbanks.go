package enrich

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

// Fix reasons reported by ScanAndFixCentralBanks.
const (
	FixBlockchainMislabeled = "blockchain tagged as central bank"
	FixNotCentralBank       = "not a central bank"
	FixMissingCentralBank   = "central bank missing tag"
)

// CategoryFix records one corrected company.
type CategoryFix struct {
	Company model.Company    `json:"company"`
	Before  []model.Category `json:"before"`
	After   []model.Category `json:"after"`
	Reason  string           `json:"reason"`
}

// ScanAndFixCentralBanks re-derives the Central Banks tag for each
// company from its name and description. Blockchains carrying the tag are
// reset to their chain categories, companies with no central-bank
// evidence lose it, and unmistakable central banks gain it. Only changed
// companies are returned; the input is not modified.
func (s *Service) ScanAndFixCentralBanks(companies []model.Company) []CategoryFix {
	now := s.now()
	var fixes []CategoryFix
	for _, c := range companies {
		after, reason := centralBankFix(c)
		if reason == "" {
			continue
		}
		fixed := c
		fixed.Categories = after
		fixed.UpdatedAt = now
		fixes = append(fixes, CategoryFix{
			Company: fixed,
			Before:  slices.Clone(c.Categories),
			After:   after,
			Reason:  reason,
		})
		zap.L().Info("enrich: central bank tag corrected",
			zap.String("company", c.Name),
			zap.String("reason", reason),
		)
	}
	return fixes
}

func centralBankFix(c model.Company) ([]model.Category, string) {
	tagged := c.HasCategory(model.CategoryCentralBanks)
	derived := extract.CategorizeFromText(c.Description, c.Name)
	isCB := slices.Contains(derived, model.CategoryCentralBanks)

	switch {
	case tagged && extract.IsBlockchainEntity(c.Description, c.Name):
		return derived, FixBlockchainMislabeled
	case tagged && !isCB:
		after := without(c.Categories, model.CategoryCentralBanks)
		if slices.Contains(derived, model.CategoryBanks) {
			after = append(after, model.CategoryBanks)
		}
		after = model.DedupeCategories(after)
		if len(after) == 0 {
			after = derived
		}
		if len(after) == 0 {
			// No evidence either way.
			return nil, ""
		}
		return after, FixNotCentralBank
	case !tagged && isCB && strings.TrimSpace(c.Name) != "":
		after := without(c.Categories, model.CategoryInfrastructure, model.CategoryBanks)
		return model.DedupeCategories(append(after, model.CategoryCentralBanks)), FixMissingCentralBank
	}
	return nil, ""
}

func without(cats []model.Category, drop ...model.Category) []model.Category {
	out := make([]model.Category, 0, len(cats))
	for _, c := range cats {
		if !slices.Contains(drop, c) {
			out = append(out, c)
		}
	}
	return out
}
