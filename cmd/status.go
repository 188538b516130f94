package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/source"
)

// statusOutput is the configuration status plus the strategy order.
type statusOutput struct {
	config.Status
	Strategies []source.Tag `json:"strategies"`
}

// statusCmd reports which sources are configured without contacting them.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which data sources are configured",

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		status := statusOutput{
			Status:     cfg.Status(),
			Strategies: source.New(cfg, nil).Strategies(),
		}
		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			return printJSON(out, status)
		}

		order := make([]string, len(status.Strategies))
		for i, tag := range status.Strategies {
			order[i] = string(tag)
		}

		fmt.Fprintf(out, "Configured:      %t\n", status.Configured)
		fmt.Fprintf(out, "Service account: %t\n", status.ServiceAccount)
		fmt.Fprintf(out, "API key:         %t\n", status.APIKey)
		fmt.Fprintf(out, "Public export:   %t\n", status.PublicExport)
		fmt.Fprintf(out, "Jira:            %t\n", status.JiraConfigured)
		fmt.Fprintf(out, "Strategy order:  %s\n", strings.Join(order, " -> "))
		fmt.Fprintf(out, "\n%s\n", status.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
