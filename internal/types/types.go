// =============================================================================
// Pipeline Dashboard - Shared Types
// =============================================================================
//
// This package contains the fixed-shape domain entities shared across modules
// to avoid import cycles. Types defined here are used by:
//   - classifier (builds Opportunities from spreadsheet records)
//   - jira       (builds Tickets from issue-tracker responses)
//   - validation, pipeline, report, server
//
// Entities are constructed once and never mutated afterwards. They live for a
// single response cycle.
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// OPPORTUNITY
// =============================================================================

// Opportunity is the canonical business record built from one spreadsheet row.
type Opportunity struct {
	// ID is either the 18-character canonical identifier or a synthetic
	// "row-<index>" placeholder. Synthetic ids are not stable across refreshes.
	ID string `json:"id"`

	// SyntheticID is true when ID is a "row-<index>" placeholder.
	SyntheticID bool `json:"synthetic_id"`

	Name         string `json:"name"`
	Stage        string `json:"stage"`
	AccessMethod string `json:"access_method"`

	// Amount is invalid (JSON null) when the source value could not be parsed.
	Amount decimal.NullDecimal `json:"amount"`

	CloseDate   string `json:"close_date"`
	AccountName string `json:"account_name"`
	OwnerName   string `json:"owner_name"`

	// Probability is a percentage (0-100) when present.
	Probability decimal.NullDecimal `json:"probability"`

	CreatedDate  string `json:"created_date"`
	ModifiedDate string `json:"modified_date"`

	// URL is the deep link to the CRM record. Empty unless ID is canonical.
	URL string `json:"url"`

	// Row is the zero-based index of the source record in the fetched set.
	Row int `json:"row"`

	// AmountText keeps the raw amount cell for data-quality reporting.
	AmountText string `json:"-"`
}

// =============================================================================
// TICKET
// =============================================================================

// Ticket is an issue-tracker record normalized to a fixed shape.
type Ticket struct {
	ID       string  `json:"id"`
	Key      string  `json:"key"`
	Summary  string  `json:"summary"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	Assignee *string `json:"assignee"`
	Reporter string  `json:"reporter"`
	Owner    *string `json:"owner"`
	Created  string  `json:"created"`
	Updated  string  `json:"updated"`
	DueDate  *string `json:"due_date"`
	Type     string  `json:"type"`
	URL      string  `json:"url"`
}
