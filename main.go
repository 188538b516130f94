// =============================================================================
// Pipeline Dashboard - Main Entry Point
// =============================================================================
//
// USAGE:
//   dashboard serve          - Serve the dashboard and its JSON API
//   dashboard opportunities  - Print the bucketed opportunity report
//   dashboard tickets        - Print the issue-tracker tickets
//   dashboard export         - Write the opportunity report to XLSX
//   dashboard status         - Show which sources are configured
//   dashboard version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (config, sources, classification, server)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pipeline-dashboard/cmd"
)

func main() {
	cmd.Execute()
}
