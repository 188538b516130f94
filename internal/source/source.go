// =============================================================================
// Pipeline Dashboard - Source Resolution
// =============================================================================
//
// This package obtains the opportunity row grid from the spreadsheet that
// acts as the CRM proxy. Several access methods exist for the same logical
// dataset; each is a Strategy, and a Cascade tries them in a fixed order,
// stopping at the first one that yields a header plus at least one non-blank
// data row.
//
// STRATEGIES (default order):
//   1. service-account - Sheets API with a service identity (OAuth2 JWT)
//   2. api-key         - Sheets API with a bare API key
//   3. csv             - public CSV export over plain HTTP GET
//
// Each strategy disqualifies itself in Preflight when its prerequisites are
// absent. A failing strategy never aborts the cascade; only exhaustion of
// every strategy yields a "none" result. Every attempt is recorded in the
// resolution log returned with the Result.
//
// =============================================================================

package source

import (
	"context"
	"time"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
)

// Tag names the strategy that produced a result.
type Tag string

const (
	TagServiceAccount Tag = "service-account"
	TagAPIKey         Tag = "api-key"
	TagCSV            Tag = "csv"

	// TagNone means every strategy was tried without usable rows.
	TagNone Tag = "none"

	// TagError means the resolution itself was interrupted.
	TagError Tag = "error"
)

// Strategy is one method of obtaining the row grid.
type Strategy interface {
	// Name returns the tag reported when this strategy wins.
	Name() Tag

	// Preflight returns nil when the strategy's prerequisites are present, or a
	// *FetchError of kind KindConfigurationMissing otherwise.
	Preflight(cfg config.SheetConfig) error

	// Fetch returns the row grid, first row being the header.
	Fetch(ctx context.Context, cfg config.SheetConfig) ([][]string, error)
}

// Outcome is the result of a single strategy attempt.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeEmpty     Outcome = "empty"
	OutcomeSucceeded Outcome = "succeeded"
)

// Attempt is one entry of the resolution log.
type Attempt struct {
	Strategy Tag       `json:"strategy"`
	Outcome  Outcome   `json:"outcome"`
	Kind     ErrorKind `json:"kind,omitempty"`
	Reason   string    `json:"reason,omitempty"`

	// Rows is the number of grid rows returned, header included.
	Rows int `json:"rows"`

	Duration time.Duration `json:"duration"`
}

// Result is the outcome of one resolution.
type Result struct {
	// Tag is the winning strategy, TagNone or TagError.
	Tag Tag

	// Grid holds the rows of the winning strategy. Nil unless a strategy won.
	Grid [][]string

	// Attempts is the resolution log, in the order strategies were tried.
	Attempts []Attempt

	// Err is nil when a strategy won, and a *FetchError otherwise.
	Err error
}

// OK reports whether a strategy produced at least one non-blank data row.
func (r Result) OK() bool {
	return r.Err == nil && csvparser.DataRowCount(r.Grid) > 0
}

// Kind returns the machine-readable cause, or "" on success.
func (r Result) Kind() ErrorKind {
	return KindOf(r.Err)
}
