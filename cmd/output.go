package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/pipeline-dashboard/internal/dashboard"
	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

func printReport(w io.Writer, r *pipeline.Report) error {
	fmt.Fprintf(w, "Status:  %s\n", r.Status)
	fmt.Fprintf(w, "Source:  %s\n", r.Source)
	if r.Cause != "" {
		fmt.Fprintf(w, "Cause:   %s\n", r.Cause)
	}
	fmt.Fprintf(w, "Message: %s\n", r.Message)
	fmt.Fprintf(w, "Total:   %d\n", r.Total)
	if r.Status == pipeline.StatusOK {
		fmt.Fprintf(w, "Valid:   %t\n", r.Valid)
	}

	for _, b := range r.Buckets {
		fmt.Fprintf(w, "\n== %s (%d) ==\n", b.Name, b.Count)
		if len(b.Opportunities) == 0 {
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tACCOUNT\tAMOUNT\tCLOSE DATE\tOWNER")
		for _, o := range b.Opportunities {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				o.ID, o.Name, o.AccountName, formatAmount(o), o.CloseDate, o.OwnerName)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nData quality warnings (%d):\n", len(r.Warnings))
		for _, v := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", v.Error())
		}
	}
	return nil
}

func printTickets(w io.Writer, r *dashboard.TicketReport) error {
	if r.Error != "" {
		fmt.Fprintf(w, "Tickets unavailable: %s\n", r.Error)
		return nil
	}

	fmt.Fprintf(w, "Tickets: %d\n", r.Count)
	if r.Count == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTATUS\tPRIORITY\tASSIGNEE\tOWNER\tSUMMARY")
	for _, t := range r.Tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Key, t.Status, t.Priority, orDash(t.Assignee), orDash(t.Owner), t.Summary)
	}
	return tw.Flush()
}

func formatAmount(o types.Opportunity) string {
	if !o.Amount.Valid {
		return "-"
	}
	return o.Amount.Decimal.StringFixed(2)
}

func orDash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}
