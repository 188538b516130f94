// =============================================================================
// Pipeline Dashboard - Dashboard Service
// =============================================================================
//
// This module exposes the read operations of the presentation layer:
//   - Opportunities: bucketed opportunities with counts and the source tag
//   - Tickets:       tickets of the configured Jira filter
//   - Snapshot:      both of the above, refreshed concurrently
//   - Status:        configuration validity, independent of fetching
//
// No operation returns an error. Failures degrade to empty results with a
// descriptive status. There is no cache: every call fetches again.
//
// =============================================================================

package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/jira"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// OpportunitySource runs one opportunity refresh. *pipeline.Pipeline
// implements it.
type OpportunitySource interface {
	Run(ctx context.Context) pipeline.Result
}

// TicketSource fetches tickets. *jira.Client implements it.
type TicketSource interface {
	Configured() bool
	Tickets(ctx context.Context) ([]types.Ticket, error)
}

// TicketReport is the ticket dataset shaped for the presentation layer.
type TicketReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Configured  bool           `json:"configured"`
	Count       int            `json:"count"`
	Tickets     []types.Ticket `json:"tickets"`

	// Error describes a failed fetch. Empty on success.
	Error string `json:"error,omitempty"`
}

// Snapshot holds both datasets from one refresh.
type Snapshot struct {
	Opportunities pipeline.Report `json:"opportunities"`
	Tickets       TicketReport    `json:"tickets"`
	Status        config.Status   `json:"status"`
}

// Service implements the dashboard read operations.
type Service struct {
	config        *config.Config
	opportunities OpportunitySource
	tickets       TicketSource
	logger        logging.Logger
}

// New creates a Service backed by the opportunity pipeline and Jira.
func New(cfg *config.Config, logger logging.Logger) *Service {
	logger = logging.OrNop(logger)
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	return NewWithSources(cfg,
		pipeline.New(cfg, nil, logger.WithField("dataset", "opportunities")),
		jira.NewClient(cfg.Jira, client, logger.WithField("dataset", "tickets")),
		logger,
	)
}

// NewWithSources creates a Service over explicit sources.
func NewWithSources(cfg *config.Config, opps OpportunitySource, tickets TicketSource, logger logging.Logger) *Service {
	return &Service{
		config:        cfg,
		opportunities: opps,
		tickets:       tickets,
		logger:        logging.OrNop(logger),
	}
}

// Opportunities refreshes and returns the opportunity report.
func (s *Service) Opportunities(ctx context.Context) pipeline.Report {
	return s.opportunities.Run(ctx).Report
}

// Tickets refreshes and returns the ticket report.
func (s *Service) Tickets(ctx context.Context) TicketReport {
	report := TicketReport{
		GeneratedAt: time.Now().UTC(),
		Configured:  s.tickets.Configured(),
		Tickets:     []types.Ticket{},
	}
	if !report.Configured {
		report.Error = jira.ErrNotConfigured.Error()
		return report
	}

	tickets, err := s.tickets.Tickets(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("failed to fetch tickets: %v", err)
		}
		report.Error = err.Error()
		return report
	}

	report.Tickets = tickets
	report.Count = len(tickets)
	return report
}

// Snapshot refreshes both datasets concurrently. They share no state, so a
// slow or failing dataset only affects its own half of the snapshot.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap.Opportunities = s.Opportunities(gctx)
		return nil
	})
	g.Go(func() error {
		snap.Tickets = s.Tickets(gctx)
		return nil
	})

	// Neither half returns an error.
	_ = g.Wait()

	snap.Status = s.Status()
	return snap
}

// Status reports which sources are configured.
func (s *Service) Status() config.Status {
	return s.config.Status()
}
