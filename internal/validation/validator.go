// =============================================================================
// Pipeline Dashboard - Data Quality Validation
// =============================================================================
//
// This module reports data-quality problems in the fetched sheet without
// ever blocking the dashboard. Problems are collected, not thrown, and are
// surfaced as warnings next to the buckets.
//
// VALIDATION LEVELS:
//   1. Column-level: configured fields whose header is absent from the sheet
//      (schema drift), with the closest existing header as a suggestion
//   2. Row-level: synthetic identifiers, missing names, unparseable amounts,
//      out-of-range probabilities, unrecognized dates
//   3. Set-level: canonical identifiers appearing on more than one row
//
// ERROR HANDLING:
//   - Each error includes the sheet row number (header = row 1), field and value
//   - Severity "error" marks problems that empty the dashboard (no stage
//     column); everything else is a "warning"
//
// CUSTOMIZATION:
//   - Register extra row rules through ValidationOptions.CustomValidators
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/resolver"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single data-quality problem.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string `json:"severity"`

	// Field is the opportunity field that failed validation.
	Field string `json:"field"`

	// Value is the offending value.
	Value string `json:"value,omitempty"`

	// Rule is the validation rule that was violated.
	Rule string `json:"rule"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// RowNumber is the sheet row (header = 1). Zero for column-level errors.
	RowNumber int `json:"row,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] Field '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all validation errors, including warnings.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated is the number of opportunities checked.
	RowsValidated int
}

func (r *ValidationResult) add(errs ...*ValidationError) {
	for _, e := range errs {
		r.Errors = append(r.Errors, e)
		if e.Severity == SeverityError {
			r.ErrorCount++
			r.IsValid = false
		} else {
			r.WarningCount++
		}
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// CustomValidatorFunc checks one opportunity and returns an error message,
// or "" when it passes.
type CustomValidatorFunc func(opp types.Opportunity) string

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool

	// CustomValidators are extra row rules keyed by rule name.
	CustomValidators map[string]CustomValidatorFunc
}

// Validator checks opportunities and sheet headers.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(ValidationOptions{})
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// OptionsFromConfig builds validator options from configuration. Each
// required field becomes a custom "required_<field>" rule. Unknown field
// names are ignored; config validation rejects them at load time.
func OptionsFromConfig(cfg config.ValidationConfig) ValidationOptions {
	options := ValidationOptions{TreatWarningsAsErrors: cfg.TreatWarningsAsErrors}

	for _, field := range cfg.RequiredFields {
		field = strings.ToLower(strings.TrimSpace(field))
		value, ok := fieldValues[field]
		if !ok {
			continue
		}
		if options.CustomValidators == nil {
			options.CustomValidators = make(map[string]CustomValidatorFunc)
		}
		options.CustomValidators["required_"+field] = requiredRule(field, value)
	}

	return options
}

// fieldValues reads the raw value of each field named in RequiredFieldNames.
var fieldValues = map[string]func(types.Opportunity) string{
	"account_name":  func(o types.Opportunity) string { return o.AccountName },
	"owner_name":    func(o types.Opportunity) string { return o.OwnerName },
	"close_date":    func(o types.Opportunity) string { return o.CloseDate },
	"amount":        func(o types.Opportunity) string { return o.AmountText },
	"access_method": func(o types.Opportunity) string { return o.AccessMethod },
	"probability": func(o types.Opportunity) string {
		if !o.Probability.Valid {
			return ""
		}
		return o.Probability.Decimal.String()
	},
}

func requiredRule(field string, value func(types.Opportunity) string) CustomValidatorFunc {
	return func(opp types.Opportunity) string {
		if strings.TrimSpace(value(opp)) == "" {
			return field + " is empty"
		}
		return ""
	}
}

// =============================================================================
// ROW AND SET VALIDATION
// =============================================================================

// ValidateAll validates every opportunity and returns a detailed result.
func (v *Validator) ValidateAll(opps []types.Opportunity) *ValidationResult {
	result := &ValidationResult{
		IsValid:       true,
		Errors:        make([]*ValidationError, 0),
		RowsValidated: len(opps),
	}

	for _, opp := range opps {
		result.add(v.ValidateOpportunity(opp)...)
	}
	result.add(duplicateIDs(opps)...)

	if v.options.TreatWarningsAsErrors && result.WarningCount > 0 {
		result.IsValid = false
	}

	return result
}

// ValidateOpportunity applies the row rules to one opportunity.
func (v *Validator) ValidateOpportunity(opp types.Opportunity) []*ValidationError {
	var errors []*ValidationError
	row := opp.Row + 2

	warn := func(field, value, rule, message string) {
		errors = append(errors, &ValidationError{
			Severity:  SeverityWarning,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: row,
		})
	}

	if opp.SyntheticID {
		warn("id", opp.ID, "canonical_id", "no valid opportunity id; placeholder id is not stable across refreshes")
	}

	if strings.TrimSpace(opp.Name) == "" {
		warn("name", "", "required", "opportunity name is empty")
	}

	if opp.AmountText != "" && !opp.Amount.Valid {
		warn("amount", opp.AmountText, "numeric", "amount could not be parsed as a number")
	}

	if opp.Probability.Valid && !inPercentRange(opp.Probability.Decimal) {
		warn("probability", opp.Probability.Decimal.String(), "range", "probability must be between 0 and 100")
	}

	for field, value := range map[string]string{
		"close_date":    opp.CloseDate,
		"created_date":  opp.CreatedDate,
		"modified_date": opp.ModifiedDate,
	} {
		if value != "" && !isDate(value) {
			warn(field, value, "date", "value is not a recognized date")
		}
	}

	names := make([]string, 0, len(v.options.CustomValidators))
	for name := range v.options.CustomValidators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msg := v.options.CustomValidators[name](opp); msg != "" {
			warn("custom", "", name, msg)
		}
	}

	// Map iteration above is unordered.
	sort.SliceStable(errors, func(i, j int) bool {
		return errors[i].Field < errors[j].Field
	})

	return errors
}

// duplicateIDs reports canonical identifiers shared by several rows.
func duplicateIDs(opps []types.Opportunity) []*ValidationError {
	firstRow := make(map[string]int)
	var errors []*ValidationError

	for _, opp := range opps {
		if opp.SyntheticID || opp.ID == "" {
			continue
		}
		first, seen := firstRow[opp.ID]
		if !seen {
			firstRow[opp.ID] = opp.Row
			continue
		}
		if first == opp.Row {
			continue
		}
		errors = append(errors, &ValidationError{
			Severity:  SeverityWarning,
			Field:     "id",
			Value:     opp.ID,
			Rule:      "unique",
			Message:   fmt.Sprintf("opportunity id also used on row %d", first+2),
			RowNumber: opp.Row + 2,
		})
	}

	return errors
}

var hundred = decimal.NewFromInt(100)

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// dateLayouts are the formats the CRM export and the Sheets API produce,
// including the long forms a sheet's date formatting renders.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return true
		}
	}
	return false
}

// =============================================================================
// COLUMN VALIDATION
// =============================================================================

// CheckColumns reports configured fields with no matching header. The
// identifier uses exact matching, like the classifier does. A missing stage
// column is an error since nothing can be bucketed without it.
func CheckColumns(headers []string, columns config.Columns) []*ValidationError {
	fields := []struct {
		name       string
		candidates []string
		strict     bool
		severity   string
	}{
		{"id", columns.ID, true, SeverityWarning},
		{"name", columns.Name, false, SeverityWarning},
		{"stage", columns.Stage, false, SeverityError},
		{"amount", columns.Amount, false, SeverityWarning},
		{"close_date", columns.CloseDate, false, SeverityWarning},
		{"account_name", columns.Account, false, SeverityWarning},
		{"owner_name", columns.Owner, false, SeverityWarning},
	}

	var errors []*ValidationError
	for _, f := range fields {
		if len(f.candidates) == 0 || resolver.HasColumn(headers, f.candidates, f.strict) {
			continue
		}

		msg := fmt.Sprintf("no column matches %s", strings.Join(quoteAll(f.candidates), ", "))
		if suggestion := resolver.Closest(headers, f.candidates); suggestion != "" {
			msg += fmt.Sprintf("; closest header is %q", suggestion)
		}

		errors = append(errors, &ValidationError{
			Severity: f.severity,
			Field:    f.name,
			Rule:     "column",
			Message:  msg,
		})
	}

	return errors
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
