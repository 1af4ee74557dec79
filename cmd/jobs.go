package main

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/enrich"
	"github.com/sells-group/stablecoin-intel/internal/model"
)

var (
	jobsSave       bool
	analyzeText    string
	analyzeCompany string
	dismissReason  string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs <company>",
	Short: "Find recent job openings for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		jobs, err := env.Service.FindJobOpenings(ctx, args[0])
		if err != nil {
			return err
		}
		if jobsSave && len(jobs) > 0 {
			c, err := updateCompany(ctx, env.Store, args[0], func(c *model.Company) {
				c.Jobs = model.MergeJobs(c.Jobs, jobs...)
			})
			if err != nil {
				return err
			}
			zap.L().Info("jobs saved", zap.String("company", c.ID), zap.Int("total", len(c.Jobs)))
		}
		return writeJSON(cmd.OutOrStdout(), jobs)
	},
}

var dismissJobCmd = &cobra.Command{
	Use:   "dismiss <company> <job-id>",
	Short: "Hide a job posting from the company's listings",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c, err := dismissJob(ctx, st, model.CompanyID(args[0]), args[1], dismissReason, time.Now())
		if err != nil {
			return err
		}
		zap.L().Info("job dismissed",
			zap.String("company", c.ID),
			zap.String("job", args[1]),
			zap.String("reason", dismissReason),
		)
		return writeJSON(cmd.OutOrStdout(), model.VisibleJobs(c.Jobs, time.Now()))
	},
}

var analyzeJobCmd = &cobra.Command{
	Use:   "analyze-job <url>",
	Short: "Extract the details of one job posting",
	Long:  "Fetches a job posting and extracts its fields. When the page cannot be read, pass the posting text with --text (a file path, or - for stdin).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		var analysis *enrich.JobAnalysis
		if analyzeText != "" {
			text, err := readText(cmd.InOrStdin(), analyzeText)
			if err != nil {
				return err
			}
			analysis, err = env.Service.AnalyzeJobText(ctx, args[0], text)
			if err != nil {
				return err
			}
		} else {
			analysis, err = env.Service.AnalyzeJobLink(ctx, args[0])
			if err != nil {
				return err
			}
			if analysis.FetchFailed {
				zap.L().Warn("job page could not be read; rerun with --text to paste the posting",
					zap.String("url", args[0]))
			}
		}

		if analyzeCompany != "" && analysis.Job != nil {
			if _, err := updateCompany(ctx, env.Store, analyzeCompany, func(c *model.Company) {
				c.Jobs = model.MergeJobs(c.Jobs, *analysis.Job)
			}); err != nil {
				return err
			}
		}
		return writeJSON(cmd.OutOrStdout(), analysis)
	},
}

// readText reads path, or stdin when path is "-".
func readText(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	return string(b), nil
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsSave, "save", false, "merge the openings into the stored company")
	analyzeJobCmd.Flags().StringVar(&analyzeText, "text", "", "posting text file, or - for stdin")
	analyzeJobCmd.Flags().StringVar(&analyzeCompany, "company", "", "attach the job to this company")
	dismissJobCmd.Flags().StringVar(&dismissReason, "reason", "", "why the posting is dismissed")
	jobsCmd.AddCommand(dismissJobCmd)
	rootCmd.AddCommand(jobsCmd, analyzeJobCmd)
}
