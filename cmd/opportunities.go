package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/classifier"
	"github.com/ginjaninja78/pipeline-dashboard/internal/dashboard"
	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
)

var (
	bucketFilter string
	strict       bool
)

// opportunitiesCmd fetches the opportunity report once and prints it.
var opportunitiesCmd = &cobra.Command{
	Use:     "opportunities",
	Aliases: []string{"opps"},
	Short:   "Fetch and print the bucketed opportunity report",
	Long: `Fetch the spreadsheet through the source cascade, classify the records into
the configured stage buckets and print the result.

The command succeeds even when the sheet cannot be read; the report then
explains why. Use --strict to exit non-zero unless the status is "ok" and
the data passed validation (see validation.treat_warnings_as_errors).`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		report := dashboard.New(cfg, logger).Opportunities(ctx)
		if bucketFilter != "" {
			report.Buckets = filterBuckets(report.Buckets, bucketFilter)
		}

		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			err = printJSON(out, report)
		} else {
			err = printReport(out, &report)
		}
		if err != nil {
			return err
		}

		return checkStrict(&report)
	},
}

func init() {
	rootCmd.AddCommand(opportunitiesCmd)

	opportunitiesCmd.Flags().StringVar(&bucketFilter, "bucket", "", "Only show the named bucket (case-insensitive)")
	opportunitiesCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero unless the report status is ok and valid")
}

// checkStrict fails a report that is not ok, or not valid, when --strict is set.
func checkStrict(report *pipeline.Report) error {
	if !strict {
		return nil
	}
	if report.Status != pipeline.StatusOK {
		return fmt.Errorf("opportunities %s: %s", report.Status, report.Message)
	}
	if !report.Valid {
		return fmt.Errorf("opportunities failed validation: %d warning(s)", len(report.Warnings))
	}
	return nil
}

func filterBuckets(buckets []classifier.Bucket, name string) []classifier.Bucket {
	var out []classifier.Bucket
	for _, b := range buckets {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			out = append(out, b)
		}
	}
	return out
}
