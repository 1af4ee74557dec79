package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/store"
)

var (
	fundingCategory string
	fundingDryRun   bool
)

var fundingCmd = &cobra.Command{
	Use:   "funding [company...]",
	Short: "Refresh funding details for companies in the directory",
	Long:  "Refreshes funding for the named companies, or for every stored company (optionally one category) in paced batches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		var companies []model.Company
		if len(args) > 0 {
			for _, name := range args {
				companies = append(companies, model.NewCompany(name))
			}
			companies, err = withStored(cmd, env, companies)
		} else {
			companies, err = allCompanies(ctx, env.Store)
		}
		if err != nil {
			return err
		}
		if fundingCategory != "" {
			companies = byCategory(companies, model.Category(fundingCategory))
		}

		updates, batchErr := env.Service.BatchFetchFunding(ctx, companies, func(p enrich.BatchProgress) {
			zap.L().Info("funding progress",
				zap.Int("done", p.Done),
				zap.Int("total", p.Total),
				zap.Int("group", p.Group),
				zap.String("company", p.Company),
				zap.Bool("updated", p.Updated),
			)
		})

		// Updates gathered before a cancellation are still saved.
		if !fundingDryRun && len(updates) > 0 {
			changed := make([]model.Company, len(updates))
			for i, u := range updates {
				changed[i] = u.Company
			}
			if _, err := env.Store.SaveCompanies(ctx, changed); err != nil {
				return err
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), updates); err != nil {
			return err
		}
		return batchErr
	},
}

// withStored swaps each named company for its stored record when present.
func withStored(cmd *cobra.Command, env *appEnv, named []model.Company) ([]model.Company, error) {
	out := make([]model.Company, 0, len(named))
	for _, c := range named {
		stored, err := env.Store.GetCompany(cmd.Context(), c.ID)
		switch {
		case err == nil:
			out = append(out, *stored)
		case errors.Is(err, store.ErrNotFound):
			out = append(out, c)
		default:
			return nil, err
		}
	}
	return out, nil
}

func byCategory(companies []model.Company, cat model.Category) []model.Company {
	out := companies[:0:0]
	for _, c := range companies {
		if c.HasCategory(cat) {
			out = append(out, c)
		}
	}
	return out
}

func init() {
	fundingCmd.Flags().StringVar(&fundingCategory, "category", "", "only refresh companies with this category")
	fundingCmd.Flags().BoolVar(&fundingDryRun, "dry-run", false, "print updates without saving")
	rootCmd.AddCommand(fundingCmd)
}
