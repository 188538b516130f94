package source

import (
	"context"
	"net/http"
	"time"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
)

// Cascade tries strategies in order and returns the first usable grid.
// It holds no mutable state and is safe for concurrent use.
type Cascade struct {
	strategies []Strategy
	logger     logging.Logger
}

// NewCascade creates a Cascade over the given strategies, tried in order.
func NewCascade(logger logging.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{
		strategies: strategies,
		logger:     logging.OrNop(logger),
	}
}

// New creates the default Cascade: service account, API key, then public
// CSV export, all sharing one HTTP client built from cfg.HTTP.
func New(cfg *config.Config, logger logging.Logger) *Cascade {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	return NewCascade(logger,
		&ServiceAccount{HTTPClient: client},
		&APIKey{HTTPClient: client},
		NewCSVExport(client, cfg.HTTP, logger),
	)
}

// Strategies returns the tags of the configured strategies, in order.
func (c *Cascade) Strategies() []Tag {
	tags := make([]Tag, 0, len(c.strategies))
	for _, s := range c.strategies {
		tags = append(tags, s.Name())
	}
	return tags
}

// Resolve runs the cascade once for sheet.
//
// RETURNS:
//   - A Result. Resolve never fails: exhaustion yields TagNone with a
//     KindConfigurationMissing (every strategy skipped) or KindNoMatch cause,
//     and a canceled context yields TagError with KindCanceled.
func (c *Cascade) Resolve(ctx context.Context, sheet config.SheetConfig) Result {
	result := Result{Tag: TagNone}
	ran := false

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return canceled(result, err)
		}

		name := strategy.Name()
		log := c.logger.WithField("strategy", string(name))

		if err := strategy.Preflight(sheet); err != nil {
			log.Debug("skipped: %v", err)
			result.Attempts = append(result.Attempts, Attempt{
				Strategy: name,
				Outcome:  OutcomeSkipped,
				Kind:     kindOr(err, KindConfigurationMissing),
				Reason:   err.Error(),
			})
			continue
		}

		ran = true
		start := time.Now()
		grid, err := strategy.Fetch(ctx, sheet)
		attempt := Attempt{Strategy: name, Rows: len(grid), Duration: time.Since(start)}

		switch {
		case err != nil && ctx.Err() != nil:
			attempt.Outcome = OutcomeFailed
			attempt.Kind = KindCanceled
			attempt.Reason = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			return canceled(result, ctx.Err())

		case err != nil:
			log.Warn("failed: %v", err)
			attempt.Outcome = OutcomeFailed
			attempt.Kind = kindOr(err, KindTransportFailure)
			attempt.Reason = err.Error()

		case csvparser.DataRowCount(grid) == 0:
			log.Info("returned %d rows without data, trying next strategy", len(grid))
			attempt.Outcome = OutcomeEmpty
			attempt.Kind = KindNoMatch
			attempt.Reason = "no data rows"

		default:
			log.Info("resolved %d rows in %s", len(grid), attempt.Duration)
			attempt.Outcome = OutcomeSucceeded
			result.Attempts = append(result.Attempts, attempt)
			result.Tag = name
			result.Grid = grid
			return result
		}

		result.Attempts = append(result.Attempts, attempt)
	}

	if !ran {
		result.Err = &FetchError{Kind: KindConfigurationMissing, Message: "no strategy is configured"}
	} else {
		result.Err = &FetchError{Kind: KindNoMatch, Message: "all strategies exhausted without data rows"}
	}
	c.logger.Warn("source resolution produced no data: %v", result.Err)

	return result
}

func canceled(result Result, err error) Result {
	result.Tag = TagError
	result.Grid = nil
	result.Err = &FetchError{Kind: KindCanceled, Message: "resolution interrupted", Err: err}
	return result
}

func kindOr(err error, def ErrorKind) ErrorKind {
	if k := KindOf(err); k != "" {
		return k
	}
	return def
}
