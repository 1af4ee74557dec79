package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

func TestScanAndFixCentralBanks(t *testing.T) {
	t.Parallel()

	companies := []model.Company{
		{
			ID:          "solana",
			Name:        "Solana",
			Description: "Solana is a high-performance Layer-1 blockchain",
			Categories:  []model.Category{model.CategoryCentralBanks, model.CategoryPayments},
		},
		{
			ID:          "bank-of-england",
			Name:        "Bank of England",
			Description: "The Bank of England is the central bank of the United Kingdom.",
			Categories:  []model.Category{model.CategoryBanks, model.CategoryInfrastructure},
		},
		{
			ID:          "circle",
			Name:        "Circle",
			Description: "Circle is a stablecoin issuer of USDC.",
			Categories:  []model.Category{model.CategoryIssuer, model.CategoryCentralBanks},
		},
		{
			ID:          "ecb",
			Name:        "European Central Bank",
			Description: "The European Central Bank sets monetary policy for the euro area.",
			Categories:  []model.Category{model.CategoryCentralBanks},
		},
		{
			ID:         "mystery",
			Name:       "Mystery",
			Categories: []model.Category{model.CategoryCentralBanks},
		},
	}

	svc := newTestService(t, nil, nil, nil)
	fixes := svc.ScanAndFixCentralBanks(companies)
	require.Len(t, fixes, 3)

	byID := make(map[string]CategoryFix, len(fixes))
	for _, f := range fixes {
		byID[f.Company.ID] = f
	}

	sol := byID["solana"]
	assert.Equal(t, FixBlockchainMislabeled, sol.Reason)
	assert.Equal(t, []model.Category{model.CategoryInfrastructure}, sol.After)
	assert.Equal(t, []model.Category{model.CategoryCentralBanks, model.CategoryPayments}, sol.Before)
	assert.Equal(t, testNow, sol.Company.UpdatedAt)

	boe := byID["bank-of-england"]
	assert.Equal(t, FixMissingCentralBank, boe.Reason)
	assert.Equal(t, []model.Category{model.CategoryCentralBanks}, boe.After)

	circle := byID["circle"]
	assert.Equal(t, FixNotCentralBank, circle.Reason)
	assert.Equal(t, []model.Category{model.CategoryIssuer}, circle.After)

	_, touched := byID["ecb"]
	assert.False(t, touched, "a real central bank keeps its tag")
	_, touched = byID["mystery"]
	assert.False(t, touched, "no evidence either way")

	assert.Equal(t, []model.Category{model.CategoryCentralBanks, model.CategoryPayments}, companies[0].Categories,
		"input is not modified")
}
