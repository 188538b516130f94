// =============================================================================
// Pipeline Dashboard - Opportunity Pipeline
// =============================================================================
//
// This module orchestrates one refresh of the opportunity dataset, from
// source resolution to bucketed, validated Opportunities.
//
// PIPELINE:
//   1. Resolve the row grid through the source cascade
//   2. Map the grid to header-keyed records
//   3. Check the sheet headers against the configured columns
//   4. Classify the records into the configured stage buckets
//   5. Validate the qualifying Opportunities
//
// FAILURE SEMANTICS:
//   Run never returns an error. Every failure path yields a Report with
//   empty buckets, a Status string and a machine-readable Cause, so the
//   presentation layer can always render something.
//
// CONCURRENCY:
//   A Pipeline holds no mutable state. Concurrent Runs duplicate work but
//   cannot corrupt each other.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/pipeline-dashboard/internal/classifier"
	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
	"github.com/ginjaninja78/pipeline-dashboard/internal/source"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
	"github.com/ginjaninja78/pipeline-dashboard/internal/validation"
)

// Report statuses.
const (
	StatusOK            = "ok"
	StatusNoData        = "no data"
	StatusNotConfigured = "not configured"
	StatusError         = "error"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Report is the outcome of one refresh, shaped for the presentation layer.
type Report struct {
	// ResolutionID identifies this refresh in logs.
	ResolutionID string    `json:"resolution_id"`
	GeneratedAt  time.Time `json:"generated_at"`

	// Source is the winning strategy tag, "none" or "error".
	Source source.Tag `json:"source"`

	// Status is one of: ok, no data, not configured, error.
	Status string `json:"status"`

	// Cause is the machine-readable failure kind. Empty when Status is ok.
	Cause source.ErrorKind `json:"cause,omitempty"`

	// Message describes the outcome for humans.
	Message string `json:"message"`

	// Buckets are in configuration order and always present, possibly empty.
	Buckets []classifier.Bucket `json:"buckets"`

	// Total is the sum of the bucket counts.
	Total int `json:"total"`

	// Attempts is the source resolution log.
	Attempts []source.Attempt `json:"attempts"`

	// Warnings are data-quality problems found in the sheet.
	Warnings []*validation.ValidationError `json:"warnings"`

	// Valid is true when data was fetched and no warning has error
	// severity. With validation.treat_warnings_as_errors any warning
	// clears it.
	Valid bool `json:"valid"`
}

// Bucket returns the bucket with the given name, or nil.
func (r *Report) Bucket(name string) *classifier.Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].Name == name {
			return &r.Buckets[i]
		}
	}
	return nil
}

// ProcessingStats contains statistics about one refresh.
type ProcessingStats struct {
	// RowsFetched is the number of grid rows, header included.
	RowsFetched int

	// RecordsMapped is the number of non-blank data records.
	RecordsMapped int

	// Qualified is the number of distinct records placed in any bucket.
	Qualified int

	// ValidationErrors counts warnings and errors.
	ValidationErrors int

	ProcessingTime time.Duration
}

// Result represents the outcome of one Run.
type Result struct {
	Report Report
	Stats  ProcessingStats
}

// =============================================================================
// PIPELINE
// =============================================================================

// Source resolves the opportunity row grid. *source.Cascade implements it.
type Source interface {
	Resolve(ctx context.Context, sheet config.SheetConfig) source.Result
}

// Pipeline runs opportunity refreshes for one configuration.
type Pipeline struct {
	config     *config.Config
	source     Source
	classifier *classifier.Classifier
	validator  *validation.Validator
	logger     logging.Logger
}

// New creates a Pipeline.
//
// PARAMETERS:
//   - cfg: The dashboard configuration.
//   - src: The row grid source. Nil uses the default source cascade.
//   - logger: Nil discards logs.
func New(cfg *config.Config, src Source, logger logging.Logger) *Pipeline {
	logger = logging.OrNop(logger)
	if src == nil {
		src = source.New(cfg, logger)
	}

	return &Pipeline{
		config:     cfg,
		source:     src,
		classifier: classifier.New(cfg),
		validator:  validation.NewValidatorWithOptions(validation.OptionsFromConfig(cfg.Validation)),
		logger:     logger,
	}
}

// Run executes one refresh.
func (p *Pipeline) Run(ctx context.Context) Result {
	start := time.Now()
	report := Report{
		ResolutionID: uuid.New().String(),
		GeneratedAt:  start.UTC(),
		Buckets:      emptyBuckets(p.config.Buckets),
		Attempts:     []source.Attempt{},
		Warnings:     []*validation.ValidationError{},
	}
	result := Result{}
	log := p.logger.WithField("resolution_id", report.ResolutionID)

	// =========================================================================
	// STEP 1: RESOLVE SOURCE
	// =========================================================================

	res := p.source.Resolve(ctx, p.config.Sheet)
	report.Source = res.Tag
	if res.Attempts != nil {
		report.Attempts = res.Attempts
	}
	result.Stats.RowsFetched = len(res.Grid)

	if !res.OK() {
		report.Status = statusFor(res.Kind())
		report.Cause = res.Kind()
		if report.Cause == "" {
			report.Cause = source.KindNoMatch
		}
		report.Message = describe(res.Err)
		log.Warn("no opportunities: %s", report.Message)

		result.Report = report
		result.Stats.ProcessingTime = time.Since(start)
		return result
	}

	log.Debug("resolved %d rows via %s", len(res.Grid), res.Tag)

	// =========================================================================
	// STEP 2: MAP RECORDS
	// =========================================================================

	data := csvparser.FromGrid(res.Grid, string(res.Tag))
	result.Stats.RecordsMapped = len(data.Rows)

	// =========================================================================
	// STEP 3: CHECK COLUMNS
	// =========================================================================

	columnProblems := validation.CheckColumns(data.Headers, p.config.Columns)
	report.Warnings = append(report.Warnings, columnProblems...)

	// =========================================================================
	// STEP 4: CLASSIFY
	// =========================================================================

	report.Buckets = p.classifier.Bucketize(data.Rows, p.config.Buckets)
	for _, b := range report.Buckets {
		report.Total += b.Count
	}

	// =========================================================================
	// STEP 5: VALIDATE
	// =========================================================================

	qualified := distinct(report.Buckets)
	result.Stats.Qualified = len(qualified)
	validated := p.validator.ValidateAll(qualified)
	report.Warnings = append(report.Warnings, validated.Errors...)
	result.Stats.ValidationErrors = len(report.Warnings)

	report.Valid = validated.IsValid
	for _, c := range columnProblems {
		if c.Severity == validation.SeverityError || p.config.Validation.TreatWarningsAsErrors {
			report.Valid = false
		}
	}

	for _, w := range report.Warnings {
		log.Debug("validation: %s", w.Error())
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	report.Status = StatusOK
	report.Message = fmt.Sprintf("%d opportunities from %d records via %s", report.Total, len(data.Rows), res.Tag)
	log.Info(report.Message)

	result.Report = report
	result.Stats.ProcessingTime = time.Since(start)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func emptyBuckets(buckets []config.Bucket) []classifier.Bucket {
	out := make([]classifier.Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, classifier.Bucket{
			Name:          b.Name,
			Keyword:       b.Keyword,
			Opportunities: []types.Opportunity{},
		})
	}
	return out
}

// distinct returns every bucketed Opportunity once, in row order of first
// appearance. A record whose stage matches several keywords sits in several
// buckets.
func distinct(buckets []classifier.Bucket) []types.Opportunity {
	seen := make(map[int]bool)
	var out []types.Opportunity
	for _, b := range buckets {
		for _, o := range b.Opportunities {
			if !seen[o.Row] {
				seen[o.Row] = true
				out = append(out, o)
			}
		}
	}
	return out
}

func statusFor(kind source.ErrorKind) string {
	switch kind {
	case source.KindConfigurationMissing:
		return StatusNotConfigured
	case source.KindCanceled:
		return StatusError
	default:
		return StatusNoData
	}
}

func describe(err error) string {
	if err == nil {
		return "no data rows"
	}
	return err.Error()
}
