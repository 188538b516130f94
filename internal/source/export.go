package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
)

// maxExportBytes caps the size of a single export body. A larger body is
// rejected rather than truncated mid-row.
const maxExportBytes = 32 << 20

// CSVExport reads the sheet through its public CSV export. It needs no
// credentials but only works for sheets shared by link.
//
// Candidate URLs are tried in order, each up to Attempts times with a fixed
// Backoff between attempts. A response that looks like an HTML page (a
// login or consent interstitial) is rejected as KindShapeMismatch.
type CSVExport struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	logger   logging.Logger
	maxBytes int64

	// sleep is injectable to make tests fast and deterministic.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCSVExport creates the public export strategy. Zero attempts or backoff
// use the defaults of 2 attempts and 1s.
func NewCSVExport(client *http.Client, cfg config.HTTPConfig, logger logging.Logger) *CSVExport {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.ExportAttempts <= 0 {
		cfg.ExportAttempts = 2
	}
	if cfg.ExportBackoff <= 0 {
		cfg.ExportBackoff = time.Second
	}

	return &CSVExport{
		client:   client,
		attempts: cfg.ExportAttempts,
		backoff:  cfg.ExportBackoff,
		logger:   logging.OrNop(logger),
		maxBytes: maxExportBytes,
		sleep:    sleepWithContext,
	}
}

func (e *CSVExport) Name() Tag { return TagCSV }

// Preflight requires a document id and an export host.
func (e *CSVExport) Preflight(cfg config.SheetConfig) error {
	switch {
	case !cfg.HasDocument():
		return missing(TagCSV, "no spreadsheet id")
	case strings.TrimSpace(cfg.ExportBaseURL) == "":
		return missing(TagCSV, "no export base url")
	}
	return nil
}

// Fetch returns the grid of the first candidate URL with at least one
// non-blank data row. When no URL produced data the last error is returned,
// or a nil grid if every URL answered with a header-only or blank export.
func (e *CSVExport) Fetch(ctx context.Context, cfg config.SheetConfig) ([][]string, error) {
	var lastErr error

	for _, u := range ExportURLs(cfg) {
		grid, err := e.fetchURL(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if csvparser.DataRowCount(grid) > 0 {
			return grid, nil
		}
		e.logger.WithField("url", u).Debug("export returned %d rows", len(grid))
	}

	return nil, lastErr
}

// fetchURL performs up to e.attempts GETs of u.
func (e *CSVExport) fetchURL(ctx context.Context, u string) ([][]string, error) {
	log := e.logger.WithField("url", u)
	var lastErr error

	for attempt := 1; attempt <= e.attempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, e.backoff); err != nil {
				return nil, err
			}
		}

		body, err := e.get(ctx, u)
		if err == nil {
			return csvparser.Parse(body), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Debug("attempt %d/%d failed: %v", attempt, e.attempts, err)
		lastErr = err
	}

	return nil, lastErr
}

func (e *CSVExport) get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", transport(TagCSV, "failed to build request", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", transport(TagCSV, "request failed", err)
	}
	defer resp.Body.Close()

	// One byte past the cap tells a full body from a truncated one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return "", transport(TagCSV, "failed to read body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", transport(TagCSV, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if int64(len(data)) > e.maxBytes {
		return "", shape(TagCSV, "export exceeds %d bytes", e.maxBytes)
	}
	if looksLikeHTML(resp.Header.Get("Content-Type"), data) {
		return "", shape(TagCSV, "response is an HTML page, not CSV")
	}

	return string(data), nil
}

// looksLikeHTML reports whether a response is an HTML page.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}

	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(head, []byte("\uFEFF"))))

	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// ExportURLs returns the public export URLs for cfg, most specific first:
// the grid id export, the tab-name export, then the default export of the
// first tab.
func ExportURLs(cfg config.SheetConfig) []string {
	base := strings.TrimRight(strings.TrimSpace(cfg.ExportBaseURL), "/")
	doc := base + "/spreadsheets/d/" + url.PathEscape(strings.TrimSpace(cfg.SpreadsheetID))

	var urls []string
	if gid := strings.TrimSpace(cfg.GID); gid != "" {
		urls = append(urls, doc+"/export?format=csv&gid="+url.QueryEscape(gid))
	}
	if tab := strings.TrimSpace(cfg.Tab); tab != "" {
		urls = append(urls, doc+"/gviz/tq?tqx=out:csv&sheet="+url.QueryEscape(tab))
	}
	urls = append(urls, doc+"/export?format=csv")

	return urls
}

// sleepWithContext waits for d, aborting early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
