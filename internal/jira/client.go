// =============================================================================
// Pipeline Dashboard - Jira Client
// =============================================================================
//
// This module reads the tickets of a saved Jira filter through the REST API
// (v2) with basic authentication, and normalizes them to types.Ticket.
//
// ENDPOINTS:
//   GET /rest/api/2/myself  - credential check
//   GET /rest/api/2/search  - issues of filter=<id>, fixed field projection
//
// =============================================================================

package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/logging"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// ErrNotConfigured is returned when URL, credentials or filter are missing.
var ErrNotConfigured = errors.New("jira is not configured")

// searchFields is the fixed field projection requested from search.
var searchFields = []string{
	"summary", "status", "priority", "assignee", "reporter",
	"created", "updated", "duedate", "issuetype",
}

// Client handles requests to the Jira REST API.
type Client struct {
	config config.JiraConfig
	client *http.Client
	logger logging.Logger
}

// NewClient creates a Jira client. A nil httpClient uses a default client.
func NewClient(cfg config.JiraConfig, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	return &Client{
		config: cfg,
		client: httpClient,
		logger: logging.OrNop(logger),
	}
}

// Configured reports whether tickets can be fetched at all.
func (c *Client) Configured() bool {
	return c.config.HasCredentials()
}

// CheckAuth verifies the credentials.
func (c *Client) CheckAuth(ctx context.Context) error {
	if c.config.URL == "" || c.config.Email == "" || c.config.APIToken == "" {
		return ErrNotConfigured
	}

	resp, err := c.get(ctx, c.config.URL+"/rest/api/2/myself")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("authentication failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// Tickets returns the tickets of the configured filter.
func (c *Client) Tickets(ctx context.Context) ([]types.Ticket, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	return c.FetchFilter(ctx, c.config.FilterID)
}

// FetchFilter returns the first page of issues matching a saved filter.
//
// PARAMETERS:
//   - ctx: Cancels the request.
//   - filterID: The saved filter id.
//
// RETURNS:
//   - The tickets, in the order Jira returned them (never nil on success).
//   - An error on transport failure, a non-200 status or an undecodable body.
func (c *Client) FetchFilter(ctx context.Context, filterID string) ([]types.Ticket, error) {
	filterID = strings.TrimSpace(filterID)
	if filterID == "" {
		return nil, ErrNotConfigured
	}

	fields := append([]string(nil), searchFields...)
	if c.config.OwnerField != "" {
		fields = append(fields, c.config.OwnerField)
	}

	q := url.Values{}
	q.Set("jql", "filter="+filterID)
	q.Set("fields", strings.Join(fields, ","))
	if c.config.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(c.config.MaxResults))
	}

	resp, err := c.get(ctx, c.config.URL+"/rest/api/2/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	tickets := make([]types.Ticket, 0, len(result.Issues))
	for _, is := range result.Issues {
		t, err := c.toTicket(is)
		if err != nil {
			c.logger.WithField("issue", is.Key).Warn("skipping issue: %v", err)
			continue
		}
		tickets = append(tickets, t)
	}

	if result.Total > len(result.Issues) {
		c.logger.Info("filter %s has %d issues, showing the first %d", filterID, result.Total, len(result.Issues))
	}

	return tickets, nil
}

// BrowseURL returns the link to an issue in the Jira UI.
func (c *Client) BrowseURL(key string) string {
	return c.config.URL + "/browse/" + key
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.config.Email, c.config.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
