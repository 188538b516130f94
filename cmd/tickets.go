package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/dashboard"
	"github.com/ginjaninja78/pipeline-dashboard/internal/jira"
)

var checkAuth bool

// ticketsCmd prints the tickets of the configured Jira filter.
var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Fetch and print the tickets of the configured filter",

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
		out := cmd.OutOrStdout()

		if checkAuth {
			client := jira.NewClient(cfg.Jira, &http.Client{Timeout: cfg.HTTP.Timeout}, logger)
			if err := client.CheckAuth(ctx); err != nil {
				return fmt.Errorf("jira authentication failed: %w", err)
			}
			fmt.Fprintln(out, "Jira credentials OK")
			return nil
		}

		report := dashboard.New(cfg, logger).Tickets(ctx)
		if outputFormat == formatJSON {
			return printJSON(out, report)
		}
		return printTickets(out, &report)
	},
}

func init() {
	rootCmd.AddCommand(ticketsCmd)

	ticketsCmd.Flags().BoolVar(&checkAuth, "check-auth", false, "Only verify the Jira credentials")
}
