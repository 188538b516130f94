package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
)

func newExport(t *testing.T, srv *httptest.Server) (*CSVExport, *[]time.Duration) {
	t.Helper()
	e := NewCSVExport(srv.Client(), config.HTTPConfig{ExportAttempts: 2, ExportBackoff: 5 * time.Second}, nil)

	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return e, &slept
}

func TestExportURLs(t *testing.T) {
	cfg := config.SheetConfig{
		SpreadsheetID: "abc123",
		Tab:           "Q3 Pipeline",
		GID:           "42",
		ExportBaseURL: "https://docs.google.com/",
	}

	assert.Equal(t, []string{
		"https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=42",
		"https://docs.google.com/spreadsheets/d/abc123/gviz/tq?tqx=out:csv&sheet=Q3+Pipeline",
		"https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
	}, ExportURLs(cfg))

	assert.Equal(t, []string{
		"https://docs.google.com/spreadsheets/d/abc123/export?format=csv",
	}, ExportURLs(config.SheetConfig{SpreadsheetID: "abc123", ExportBaseURL: "https://docs.google.com"}))
}

func TestCSVExport_Preflight(t *testing.T) {
	e := NewCSVExport(nil, config.HTTPConfig{}, nil)

	assert.True(t, IsKind(e.Preflight(config.SheetConfig{ExportBaseURL: "https://x"}), KindConfigurationMissing))
	assert.True(t, IsKind(e.Preflight(config.SheetConfig{SpreadsheetID: "s"}), KindConfigurationMissing))
	assert.NoError(t, e.Preflight(config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: "https://x"}))
}

func TestCSVExport_RetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("\uFEFFStage,Name\r\nNegotiation,Acme\r\n"))
	}))
	defer srv.Close()

	e, slept := newExport(t, srv)
	grid, err := e.Fetch(context.Background(), config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: srv.URL})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Stage", "Name"}, {"Negotiation", "Acme"}}, grid)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{5 * time.Second}, *slept)
}

func TestCSVExport_FallsThroughCandidateURLs(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		switch {
		case r.URL.Query().Get("gid") != "":
			_, _ = w.Write([]byte("Stage,Name\n"))
		case r.URL.Path == "/spreadsheets/d/s/gviz/tq":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte("Stage,Name\nClosed Won,Acme\n"))
		}
	}))
	defer srv.Close()

	e, _ := newExport(t, srv)
	grid, err := e.Fetch(context.Background(), config.SheetConfig{
		SpreadsheetID: "s", Tab: "Pipeline", GID: "7", ExportBaseURL: srv.URL,
	})

	require.NoError(t, err)
	assert.Len(t, grid, 2)
	assert.Equal(t, []string{
		"/spreadsheets/d/s/export?format=csv&gid=7",
		"/spreadsheets/d/s/gviz/tq?tqx=out:csv&sheet=Pipeline",
		"/spreadsheets/d/s/gviz/tq?tqx=out:csv&sheet=Pipeline",
		"/spreadsheets/d/s/export?format=csv",
	}, paths, "header-only export is not retried, a 404 is")
}

func TestCSVExport_BlankRowsFallThrough(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		if r.URL.Query().Get("gid") != "" {
			_, _ = w.Write([]byte("Stage,Name\n,\n,\n"))
			return
		}
		_, _ = w.Write([]byte("Stage,Name\nDue Diligence,Acme\n"))
	}))
	defer srv.Close()

	e, slept := newExport(t, srv)
	grid, err := e.Fetch(context.Background(), config.SheetConfig{
		SpreadsheetID: "s", GID: "7", ExportBaseURL: srv.URL,
	})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Stage", "Name"}, {"Due Diligence", "Acme"}}, grid)
	assert.Equal(t, []string{
		"/spreadsheets/d/s/export?format=csv&gid=7",
		"/spreadsheets/d/s/export?format=csv",
	}, paths)
	assert.Empty(t, *slept)
}

func TestCSVExport_HTMLBodyWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("\n  <HTML><head></head></HTML>"))
	}))
	defer srv.Close()

	e, slept := newExport(t, srv)
	grid, err := e.Fetch(context.Background(), config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: srv.URL})

	assert.Nil(t, grid)
	assert.True(t, IsKind(err, KindShapeMismatch))
	assert.Len(t, *slept, 1)
}

func TestCSVExport_HeaderOnlyEverywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Stage,Name\n"))
	}))
	defer srv.Close()

	e, _ := newExport(t, srv)
	grid, err := e.Fetch(context.Background(), config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: srv.URL})

	assert.NoError(t, err)
	assert.Nil(t, grid)
}

func TestCSVExport_OversizedBodyIsRejected(t *testing.T) {
	body := "Stage,Name\nDue Diligence,Acme\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: srv.URL}

	e, _ := newExport(t, srv)
	e.maxBytes = int64(len(body)) - 1
	grid, err := e.Fetch(context.Background(), cfg)

	assert.Nil(t, grid)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindShapeMismatch))
	assert.Contains(t, err.Error(), "export exceeds")

	e.maxBytes = int64(len(body))
	grid, err = e.Fetch(context.Background(), cfg)

	require.NoError(t, err)
	assert.Len(t, grid, 2)
}

func TestCSVExport_CanceledDuringBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, _ := newExport(t, srv)
	e.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := e.Fetch(ctx, config.SheetConfig{SpreadsheetID: "s", ExportBaseURL: srv.URL})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSleepWithContext(t *testing.T) {
	assert.NoError(t, sleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepWithContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepWithContext(ctx, 0), context.Canceled)
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		contentType string
		body        string
		want        bool
	}{
		{"text/html; charset=utf-8", "a,b", true},
		{"text/csv", "<!doctype html><html>", true},
		{"", "  <html lang=en>", true},
		{"", "\uFEFF<!DOCTYPE HTML>", true},
		{"text/csv", "Name,Notes\nAcme,<html> in a cell", false},
		{"text/csv", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeHTML(tt.contentType, []byte(tt.body)), tt.body)
	}
}
