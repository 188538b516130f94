// =============================================================================
// Pipeline Dashboard - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (dashboard)
//   ├── serveCmd         (dashboard serve)
//   ├── opportunitiesCmd (dashboard opportunities)
//   ├── ticketsCmd       (dashboard tickets)
//   ├── statusCmd        (dashboard status)
//   ├── exportCmd        (dashboard export)
//   └── versionCmd       (dashboard version)
//
// CONFIGURATION:
//   The root command owns the global flags. Each subcommand loads the
//   configuration and builds its logger through loadConfig and newLogger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the YAML configuration file.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// outputFormat is "text" or "json".
var outputFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Pipeline Dashboard - Opportunity and ticket dashboard backed by a spreadsheet",
	Long: `Pipeline Dashboard reads the sales pipeline from a spreadsheet that mirrors
the CRM, groups qualifying opportunities into stage buckets, and shows them
next to the tickets of an issue-tracker filter.

The spreadsheet is read through the first source that works:
  - Service-account authenticated Sheets API
  - API-key Sheets API
  - Public CSV export

Example Usage:
  dashboard serve                        # Serve the dashboard on :8080
  dashboard opportunities --format json  # Print the opportunity report
  dashboard export                       # Write the report to an XLSX workbook
  dashboard status                       # Show which sources are configured`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (optional)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to an env file loaded before reading the environment (optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&outputFormat,
		"format",
		formatText,
		"Output format: text or json",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the configuration named by the global flags.
func loadConfig() (*config.Config, error) {
	if err := checkFormat(outputFormat); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(cfgFile, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the application logger. Logs go to the configured file or
// stderr so that stdout carries only command output.
func newLogger(cfg *config.Config) (logging.Logger, func() error, error) {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Output: os.Stderr,
		JSON:   outputFormat == formatJSON,
	})
}

// setup is loadConfig followed by newLogger.
func setup() (*config.Config, logging.Logger, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}
