package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/export"
	"github.com/sells-group/stablecoin-intel/pkg/notion"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the company directory",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write the directory to an XLSX workbook",
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

		path := exportOut
		if path == "" {
			path = cfg.Export.XLSXPath
		}
		if err := export.WriteXLSX(path, companies, time.Now()); err != nil {
			return err
		}
		zap.L().Info("directory exported", zap.String("path", path), zap.Int("companies", len(companies)))
		return nil
	},
}

var exportNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Publish the directory to a Notion database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("notion"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		companies, err := allCompanies(ctx, st)
		if err != nil {
			return err
		}

		client := notion.NewClient(cfg.Export.Notion.Token, cfg.Export.Notion.DatabaseID,
			notion.WithRateLimit(cfg.Export.Notion.RateLimit))
		res, err := export.PublishNotion(ctx, client, companies)
		if err != nil {
			return err
		}
		zap.L().Info("directory published to notion",
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("failed", res.Failed),
		)
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	exportXLSXCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default from config)")
	exportCmd.AddCommand(exportXLSXCmd, exportNotionCmd)
	rootCmd.AddCommand(exportCmd)
}
