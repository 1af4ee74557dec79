package main

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/export"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/store"
)

var (
	enrichFrom   string
	enrichDryRun bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [company...]",
	Short: "Research companies by name and save them to the directory",
	Example: `  intel-cli enrich Circle Paxos
  intel-cli enrich --from leads.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names := args
		if enrichFrom != "" {
			fromFile, err := export.ReadCompanyNames(enrichFrom)
			if err != nil {
				return err
			}
			names = append(names, fromFile...)
		}
		if len(names) == 0 {
			return eris.New("enrich: pass company names or --from")
		}

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		var results []*enrich.CompanyResult
		for _, name := range names {
			res, err := enrichAndSave(ctx, env, name, !enrichDryRun)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				zap.L().Error("enrich failed", zap.String("company", name), zap.Error(err))
				continue
			}
			results = append(results, res)
		}
		return writeJSON(cmd.OutOrStdout(), results)
	},
}

// enrichAndSave researches name and, when save is set, merges the profile
// over any stored record.
func enrichAndSave(ctx context.Context, env *appEnv, name string, save bool) (*enrich.CompanyResult, error) {
	res, err := env.Service.EnrichCompanyData(ctx, name)
	if err != nil {
		return nil, err
	}
	if !save {
		return res, nil
	}

	stored, err := env.Store.GetCompany(ctx, res.Company.ID)
	switch {
	case err == nil:
		res.Company = mergeStored(*stored, res.Company)
	case !errors.Is(err, store.ErrNotFound):
		return nil, eris.Wrapf(err, "enrich: load %s", res.Company.ID)
	}
	if err := env.Store.SaveCompany(ctx, res.Company); err != nil {
		return nil, eris.Wrapf(err, "enrich: save %s", res.Company.ID)
	}
	return res, nil
}

// mergeStored keeps what a fresh profile cannot know: creation time,
// tracked jobs, news and funding. Fresh partners come first.
func mergeStored(stored, fresh model.Company) model.Company {
	if !stored.CreatedAt.IsZero() {
		fresh.CreatedAt = stored.CreatedAt
	}
	fresh.Jobs = stored.Jobs
	fresh.RecentNews = stored.RecentNews
	fresh.Funding = model.MergeFunding(stored.Funding, fresh.Funding)
	fresh.Partners = model.MergePartners(fresh.Partners, stored.Partners...)
	if fresh.Website == "" {
		fresh.Website = stored.Website
	}
	return fresh
}

func init() {
	enrichCmd.Flags().StringVar(&enrichFrom, "from", "", "read company names from an XLSX workbook")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "print results without saving")
	rootCmd.AddCommand(enrichCmd)
}
