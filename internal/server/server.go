// =============================================================================
// Pipeline Dashboard - HTTP Server
// =============================================================================
//
// This module exposes the dashboard over HTTP: an HTML page and a small JSON
// API. Every request refreshes its datasets; nothing is cached.
//
// ROUTES:
//   GET /                   - HTML dashboard (auto-refreshing)
//   GET /api/opportunities  - bucketed opportunities
//   GET /api/tickets        - tickets of the configured filter
//   GET /api/dashboard      - both, refreshed concurrently
//   GET /api/status         - configuration status
//   GET /healthz            - liveness
//
// JSON responses carry an ETag over their data (not their timestamps), so
// clients polling with If-None-Match get 304 when nothing changed.
//
// =============================================================================

package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/dashboard"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
)

// Dashboard is the read side served over HTTP. *dashboard.Service
// implements it.
type Dashboard interface {
	Opportunities(ctx context.Context) pipeline.Report
	Tickets(ctx context.Context) dashboard.TicketReport
	Snapshot(ctx context.Context) dashboard.Snapshot
	Status() config.Status
}

// Server wraps the routes and the embedded template.
type Server struct {
	cfg    config.ServerConfig
	dash   Dashboard
	logger logging.Logger
	mux    *http.ServeMux
	tmpl   *template.Template
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg config.ServerConfig, dash Dashboard, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		dash:   dash,
		logger: logging.OrNop(logger),
		mux:    http.NewServeMux(),
		tmpl:   template.Must(template.New("index").Funcs(funcs).Parse(indexHTML)),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/opportunities", s.handleOpportunities)
	s.mux.HandleFunc("GET /api/tickets", s.handleTickets)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// handleIndex renders the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot(r.Context())

	data := struct {
		dashboard.Snapshot
		RefreshSeconds int
	}{
		Snapshot:       snap,
		RefreshSeconds: s.cfg.RefreshSeconds,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("template error: %v", err)
	}
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	report := s.dash.Opportunities(r.Context())
	s.writeJSON(w, r, report, opportunitiesFingerprint(report))
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	report := s.dash.Tickets(r.Context())
	s.writeJSON(w, r, report, ticketsFingerprint(report))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot(r.Context())
	s.writeJSON(w, r, snap, []interface{}{
		opportunitiesFingerprint(snap.Opportunities),
		ticketsFingerprint(snap.Tickets),
		snap.Status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.dash.Status()
	s.writeJSON(w, r, status, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// =============================================================================
// JSON AND ETAGS
// =============================================================================

// writeJSON writes v as JSON with an ETag computed over fingerprint.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v, fingerprint interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response: %v", err)
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}

	etag, err := ETag(fingerprint)
	if err == nil {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if matchesETag(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// ETag returns a strong entity tag for the JSON encoding of v.
func ETag(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%016x"`, xxh3.Hash(data)), nil
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		c := strings.TrimSpace(candidate)
		if c == "*" || c == etag || strings.TrimPrefix(c, "W/") == etag {
			return true
		}
	}
	return false
}

// opportunitiesFingerprint drops the per-refresh fields of a report.
func opportunitiesFingerprint(r pipeline.Report) interface{} {
	return struct {
		Source   interface{}
		Status   string
		Cause    interface{}
		Buckets  interface{}
		Warnings interface{}
		Valid    bool
	}{r.Source, r.Status, r.Cause, r.Buckets, r.Warnings, r.Valid}
}

func ticketsFingerprint(r dashboard.TicketReport) interface{} {
	return struct {
		Configured bool
		Tickets    interface{}
		Error      string
	}{r.Configured, r.Tickets, r.Error}
}

// =============================================================================
// TEMPLATE
// =============================================================================

var funcs = template.FuncMap{
	"amount": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "—"
		}
		return d.Decimal.StringFixed(2)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// indexHTML is the embedded dashboard page.
//
//go:embed index.tmpl.html
var indexHTML string
