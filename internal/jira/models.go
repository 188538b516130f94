package jira

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

type searchResponse struct {
	Total  int     `json:"total"`
	Issues []issue `json:"issues"`
}

type issue struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields json.RawMessage `json:"fields"`
}

type named struct {
	Name string `json:"name"`
}

type user struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type issueFields struct {
	Summary   string  `json:"summary"`
	Status    *named  `json:"status"`
	Priority  *named  `json:"priority"`
	Assignee  *user   `json:"assignee"`
	Reporter  *user   `json:"reporter"`
	Created   string  `json:"created"`
	Updated   string  `json:"updated"`
	DueDate   *string `json:"duedate"`
	IssueType *named  `json:"issuetype"`
}

func (c *Client) toTicket(is issue) (types.Ticket, error) {
	var f issueFields
	if len(is.Fields) > 0 {
		if err := json.Unmarshal(is.Fields, &f); err != nil {
			return types.Ticket{}, fmt.Errorf("invalid fields: %w", err)
		}
	}

	t := types.Ticket{
		ID:       is.ID,
		Key:      is.Key,
		Summary:  f.Summary,
		Status:   nameOf(f.Status),
		Priority: nameOf(f.Priority),
		Assignee: userName(f.Assignee),
		Created:  f.Created,
		Updated:  f.Updated,
		DueDate:  nonEmpty(f.DueDate),
		Type:     nameOf(f.IssueType),
		URL:      c.BrowseURL(is.Key),
	}
	if r := userName(f.Reporter); r != nil {
		t.Reporter = *r
	}

	if c.config.OwnerField != "" && len(is.Fields) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(is.Fields, &raw); err == nil {
			t.Owner = ownerValue(raw[c.config.OwnerField])
		}
	}

	return t, nil
}

// ownerValue reads a custom field holding a user, a select option or text.
func ownerValue(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return nonEmpty(&s)
	}

	var obj struct {
		DisplayName string `json:"displayName"`
		Value       string `json:"value"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, v := range []string{obj.DisplayName, obj.Value, obj.Name} {
			if v != "" {
				return &v
			}
		}
	}

	return nil
}

func nameOf(n *named) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func userName(u *user) *string {
	if u == nil {
		return nil
	}
	name := u.DisplayName
	if name == "" {
		name = u.EmailAddress
	}
	return nonEmpty(&name)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
