package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

var newsDryRun bool

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Scan for stablecoin news and store new stories",
}

var newsIndustryCmd = &cobra.Command{
	Use:   "industry",
	Short: "Fetch recent stablecoin industry news",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNews(cmd, func(ctx context.Context, svc *enrich.Service) ([]model.NewsItem, error) {
			return svc.FetchIndustryNews(ctx)
		})
	},
}

var newsCompanyCmd = &cobra.Command{
	Use:   "company <name>",
	Short: "Scan recent news mentioning a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNews(cmd, func(ctx context.Context, svc *enrich.Service) ([]model.NewsItem, error) {
			return svc.ScanCompanyNews(ctx, args[0])
		})
	},
}

var newsInvestorCmd = &cobra.Command{
	Use:   "investor <name>",
	Short: "Scan recent deal news mentioning an investor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNews(cmd, func(ctx context.Context, svc *enrich.Service) ([]model.NewsItem, error) {
			return svc.ScanInvestorNews(ctx, args[0])
		})
	},
}

func runNews(cmd *cobra.Command, scan func(context.Context, *enrich.Service) ([]model.NewsItem, error)) error {
	ctx := cmd.Context()
	env, err := initEnv(ctx, "enrich")
	if err != nil {
		return err
	}
	defer env.Close()

	items, err := scan(ctx, env.Service)
	if err != nil {
		return err
	}
	if !newsDryRun && len(items) > 0 {
		added, err := env.Store.SaveNews(ctx, items)
		if err != nil {
			return err
		}
		zap.L().Info("news saved", zap.Int("found", len(items)), zap.Int("new", added))
	}
	return writeJSON(cmd.OutOrStdout(), items)
}

func init() {
	newsCmd.PersistentFlags().BoolVar(&newsDryRun, "dry-run", false, "print stories without saving")
	newsCmd.AddCommand(newsIndustryCmd, newsCompanyCmd, newsInvestorCmd)
	rootCmd.AddCommand(newsCmd)
}
