package jira

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
)

const searchBody = `{
  "total": 3,
  "issues": [
    {
      "id": "10001",
      "key": "OPS-1",
      "fields": {
        "summary": "Onboard Acme data feed",
        "status": {"name": "In Progress"},
        "priority": {"name": "High"},
        "assignee": {"displayName": "Dana Lee"},
        "reporter": {"displayName": "Sam Park"},
        "created": "2024-01-02T10:00:00.000+0000",
        "updated": "2024-01-03T10:00:00.000+0000",
        "duedate": "2024-02-01",
        "issuetype": {"name": "Task"},
        "customfield_10100": {"displayName": "Alex Kim"}
      }
    },
    {
      "id": "10002",
      "key": "OPS-2",
      "fields": {
        "summary": "Unassigned",
        "status": {"name": "To Do"},
        "assignee": null,
        "reporter": {"emailAddress": "ops@example.com"},
        "duedate": null,
        "customfield_10100": {"value": "Platform"}
      }
    }
  ]
}`

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.JiraConfig{
		URL:        srv.URL + "/",
		Email:      "bot@example.com",
		APIToken:   "secret",
		FilterID:   "12345",
		OwnerField: "customfield_10100",
		MaxResults: 50,
	}, srv.Client(), nil)
	return srv, c
}

func TestFetchFilter(t *testing.T) {
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "secret", pass)

		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Equal(t, "filter=12345", r.URL.Query().Get("jql"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		assert.Contains(t, r.URL.Query().Get("fields"), "duedate,issuetype,customfield_10100")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})

	tickets, err := c.Tickets(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.Equal(t, "10001", first.ID)
	assert.Equal(t, "OPS-1", first.Key)
	assert.Equal(t, "Onboard Acme data feed", first.Summary)
	assert.Equal(t, "In Progress", first.Status)
	assert.Equal(t, "High", first.Priority)
	require.NotNil(t, first.Assignee)
	assert.Equal(t, "Dana Lee", *first.Assignee)
	assert.Equal(t, "Sam Park", first.Reporter)
	require.NotNil(t, first.Owner)
	assert.Equal(t, "Alex Kim", *first.Owner)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, "2024-02-01", *first.DueDate)
	assert.Equal(t, "Task", first.Type)
	assert.Equal(t, srv.URL+"/browse/OPS-1", first.URL)

	second := tickets[1]
	assert.Nil(t, second.Assignee)
	assert.Nil(t, second.DueDate)
	assert.Equal(t, "ops@example.com", second.Reporter)
	assert.Empty(t, second.Priority)
	require.NotNil(t, second.Owner)
	assert.Equal(t, "Platform", *second.Owner)
}

func TestFetchFilter_ErrorStatus(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["The value '12345' does not exist for the field 'filter'."]}`))
	})

	_, err := c.FetchFilter(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFetchFilter_BadJSON(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.FetchFilter(context.Background(), "12345")
	assert.ErrorContains(t, err, "failed to decode")
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.JiraConfig{URL: "https://jira.example.com"}, nil, nil)

	assert.False(t, c.Configured())
	_, err := c.Tickets(context.Background())
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.ErrorIs(t, c.CheckAuth(context.Background()), ErrNotConfigured)

	_, err = c.FetchFilter(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckAuth(t *testing.T) {
	var status = http.StatusOK
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		w.WriteHeader(status)
	})

	assert.NoError(t, c.CheckAuth(context.Background()))

	status = http.StatusUnauthorized
	assert.ErrorContains(t, c.CheckAuth(context.Background()), "status 401")
}

func TestOwnerValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"Dana"`, "Dana"},
		{`{"displayName":"Dana"}`, "Dana"},
		{`{"value":"Platform"}`, "Platform"},
		{`{"name":"dana"}`, "dana"},
	}
	for _, tt := range tests {
		got := ownerValue([]byte(tt.raw))
		require.NotNil(t, got, tt.raw)
		assert.Equal(t, tt.want, *got)
	}

	assert.Nil(t, ownerValue(nil))
	assert.Nil(t, ownerValue([]byte("null")))
	assert.Nil(t, ownerValue([]byte(`"  "`)))
	assert.Nil(t, ownerValue([]byte(`[1,2]`)))
}
