// =============================================================================
// Pipeline Dashboard - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes one refresh of the
// opportunity report to an XLSX workbook.
//
// COMMAND USAGE:
//   dashboard export [flags]
//
// FLAGS:
//   --output       : Explicit workbook path (default: output_dir + name format)
//   --force        : Overwrite an existing --output file
//   --warnings-log : Also write the data-quality warnings to a .log file
//   --retention    : Remove workbooks in output_dir older than this duration
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Run the opportunity pipeline
//   3. Write the workbook (and optionally the warnings log)
//   4. Apply retention
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
	"github.com/ginjaninja78/pipeline-dashboard/internal/report"
	"github.com/ginjaninja78/pipeline-dashboard/pkg/utils"
)

var (
	exportPath     string
	forceOverwrite bool
	warningsLog    bool
	retention      time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the opportunity report to an XLSX workbook",
	Long: `Refresh the opportunity report and write it to an XLSX workbook with a
Summary sheet, one sheet per stage bucket and, when the sheet has data-quality
problems, a Warnings sheet.

A report that could not be fetched is still exported; its Summary sheet
records the status and the source attempts.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Workbook path (default: generated inside output_dir)")
	exportCmd.Flags().BoolVar(&forceOverwrite, "force", false, "Overwrite the --output file if it exists")
	exportCmd.Flags().BoolVar(&warningsLog, "warnings-log", false, "Also write data-quality warnings to a .log file next to the workbook")
	exportCmd.Flags().DurationVar(&retention, "retention", 0, "Remove workbooks in output_dir older than this (e.g. 720h); 0 keeps all")
}

func runExport(cmd *cobra.Command) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if exportPath != "" && !forceOverwrite && utils.FileExists(exportPath) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", exportPath)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	result := pipeline.New(cfg, nil, logger).Run(ctx)
	rep := result.Report

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	fm := utils.NewFileManager(cfg.OutputDir)
	path := exportPath
	if path == "" {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		path = fm.OutputPath(cfg.OutputNameFormat, map[string]string{
			"source": string(rep.Source),
			"status": strings.ReplaceAll(rep.Status, " ", "-"),
		}, ".xlsx")
	}

	if err := report.WriteWorkbook(path, &rep); err != nil {
		return err
	}
	logger.WithField("path", path).Info("wrote workbook (%d opportunities, status %s)", rep.Total, rep.Status)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workbook: %s\n", path)

	if warningsLog && len(rep.Warnings) > 0 {
		logPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".log"
		entries := make([]utils.ErrorLogEntry, 0, len(rep.Warnings))
		for _, v := range rep.Warnings {
			entries = append(entries, utils.ErrorLogEntry{
				Severity: v.Severity,
				Row:      v.RowNumber,
				Field:    v.Field,
				Value:    v.Value,
				Message:  v.Message,
			})
		}
		if err := utils.WriteErrorLog(entries, logPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Warnings: %s\n", logPath)
	}

	// =========================================================================
	// STEP 4: RETENTION
	// =========================================================================

	if retention > 0 {
		removed, err := utils.CleanOldFiles(fm.OutputDir(), ".xlsx", retention)
		if err != nil {
			logger.Warn("retention cleanup failed: %v", err)
		}
		for _, p := range removed {
			logger.Debug("removed old export %s", p)
		}
	}

	fmt.Fprintf(out, "Status:   %s (%s)\n", rep.Status, rep.Message)
	fmt.Fprintf(out, "Valid:    %t\n", rep.Valid)
	fmt.Fprintf(out, "Rows:     %d fetched, %d qualified, %d warnings\n",
		result.Stats.RowsFetched, result.Stats.Qualified, result.Stats.ValidationErrors)
	fmt.Fprintf(out, "Elapsed:  %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}
