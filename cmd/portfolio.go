package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
)

var (
	portfolioURL  string
	portfolioSave bool
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <investor>",
	Short: "Find an investor's stablecoin portfolio companies",
	Long:  "Searches for an investor's portfolio, or reads their portfolio page with --url. With --save, companies not yet in the directory are added.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		var res *enrich.PortfolioResult
		if portfolioURL != "" {
			res, err = env.Service.LookupInvestorPortfolioFromURL(ctx, args[0], portfolioURL)
		} else {
			res, err = env.Service.LookupInvestorPortfolio(ctx, args[0])
		}
		if err != nil {
			return err
		}
		if res.FetchFailed {
			zap.L().Warn("portfolio page could not be read", zap.String("url", portfolioURL))
		}

		if portfolioSave && len(res.Companies) > 0 {
			added, err := saveNewCompanies(ctx, env.Store, res.Companies)
			if err != nil {
				return err
			}
			zap.L().Info("portfolio saved",
				zap.String("investor", res.Investor),
				zap.Int("found", len(res.Companies)),
				zap.Int("added", added),
			)
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	portfolioCmd.Flags().StringVar(&portfolioURL, "url", "", "read this portfolio page instead of searching")
	portfolioCmd.Flags().BoolVar(&portfolioSave, "save", false, "add new portfolio companies to the directory")
	rootCmd.AddCommand(portfolioCmd)
}
