package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

var centralBanksDryRun bool

var fixCentralBanksCmd = &cobra.Command{
	Use:   "fix-central-banks",
	Short: "Correct the Central Banks category across the directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		companies, err := allCompanies(ctx, st)
		if err != nil {
			return err
		}

		// The scan is rule based and needs no search or model backends.
		fixes := enrich.New(nil, nil, nil, nil).ScanAndFixCentralBanks(companies)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY\tBEFORE\tAFTER\tREASON")
		for _, f := range fixes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Company.Name, joinCategories(f.Before), joinCategories(f.After), f.Reason)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if centralBanksDryRun || len(fixes) == 0 {
			return nil
		}
		fixed := make([]model.Company, len(fixes))
		for i, f := range fixes {
			fixed[i] = f.Company
		}
		n, err := st.SaveCompanies(ctx, fixed)
		if err != nil {
			return err
		}
		zap.L().Info("central bank categories fixed", zap.Int("scanned", len(companies)), zap.Int("fixed", n))
		return nil
	},
}

func joinCategories(cats []model.Category) string {
	s := make([]string, len(cats))
	for i, c := range cats {
		s[i] = string(c)
	}
	return strings.Join(s, ", ")
}

func init() {
	fixCentralBanksCmd.Flags().BoolVar(&centralBanksDryRun, "dry-run", false, "print fixes without saving")
	rootCmd.AddCommand(fixCentralBanksCmd)
}
