// =============================================================================
// Pipeline Dashboard - Business Classifier
// =============================================================================
//
// This module turns spreadsheet records into Opportunities and groups them
// into the configured stage buckets.
//
// QUALIFICATION RULES:
//   1. The record's stage (case-insensitive) contains the bucket keyword.
//   2. If ANY record in the full set has a non-empty access method, every
//      record must have an access method containing one of the qualifiers.
//      An empty access method then fails. If no record has one, the sheet
//      layout simply lacks the column and the rule is skipped.
//
// FIELD MAPPING:
//   Every field is looked up through the column resolver with the configured
//   candidate header names. The identifier is resolved strictly (exact header
//   match only); all other fields use the full precedence.
//
// IDENTIFIERS:
//   A valid record id is canonicalized to 18 characters. Otherwise the
//   Opportunity gets a synthetic "row-<index>" id, where index is the
//   record's position in the fetched set. Synthetic ids are NOT stable across
//   refreshes: inserting or removing sheet rows shifts them.
//
// =============================================================================

package classifier

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/pipeline-dashboard/internal/amount"
	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
	"github.com/ginjaninja78/pipeline-dashboard/internal/recordid"
	"github.com/ginjaninja78/pipeline-dashboard/internal/resolver"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// SyntheticPrefix starts every placeholder identifier.
const SyntheticPrefix = "row-"

// Classifier filters and maps records. It is immutable and safe for
// concurrent use.
type Classifier struct {
	columns     config.Columns
	qualifiers  []string
	instanceURL string
}

// Bucket is a named group of qualifying Opportunities.
type Bucket struct {
	Name          string              `json:"name"`
	Keyword       string              `json:"stage_keyword"`
	Count         int                 `json:"count"`
	Opportunities []types.Opportunity `json:"opportunities"`
}

// New creates a Classifier from the configuration.
func New(cfg *config.Config) *Classifier {
	qualifiers := make([]string, 0, len(cfg.AccessMethodQualifiers))
	for _, q := range cfg.AccessMethodQualifiers {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
			qualifiers = append(qualifiers, q)
		}
	}

	return &Classifier{
		columns:     cfg.Columns,
		qualifiers:  qualifiers,
		instanceURL: strings.TrimRight(strings.TrimSpace(cfg.Salesforce.InstanceURL), "/"),
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify returns the Opportunities of the records that qualify for
// stageKeyword, in record order. An empty keyword matches every stage.
func (c *Classifier) Classify(records []csvparser.Record, stageKeyword string) []types.Opportunity {
	return c.classify(records, stageKeyword, c.HasAccessMethod(records))
}

// Bucketize classifies the records once per bucket. Buckets are returned in
// configuration order, each with a non-nil Opportunities slice.
func (c *Classifier) Bucketize(records []csvparser.Record, buckets []config.Bucket) []Bucket {
	checkAccess := c.HasAccessMethod(records)

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		opps := c.classify(records, b.Keyword, checkAccess)
		out = append(out, Bucket{
			Name:          b.Name,
			Keyword:       b.Keyword,
			Count:         len(opps),
			Opportunities: opps,
		})
	}
	return out
}

// HasAccessMethod reports whether any record has a non-empty access method,
// which turns on the access-method rule for the whole set.
func (c *Classifier) HasAccessMethod(records []csvparser.Record) bool {
	for _, r := range records {
		if strings.TrimSpace(resolver.Resolve(r, c.columns.AccessMethod, false)) != "" {
			return true
		}
	}
	return false
}

func (c *Classifier) classify(records []csvparser.Record, stageKeyword string, checkAccess bool) []types.Opportunity {
	keyword := strings.ToLower(strings.TrimSpace(stageKeyword))

	opps := make([]types.Opportunity, 0)
	for i, r := range records {
		stage := strings.ToLower(resolver.Resolve(r, c.columns.Stage, false))
		if !strings.Contains(stage, keyword) {
			continue
		}
		if checkAccess && !c.qualifies(resolver.Resolve(r, c.columns.AccessMethod, false)) {
			continue
		}
		opps = append(opps, c.ToOpportunity(r, i))
	}
	return opps
}

// qualifies reports whether an access method contains a qualifier.
func (c *Classifier) qualifies(accessMethod string) bool {
	am := strings.ToLower(accessMethod)
	for _, q := range c.qualifiers {
		if strings.Contains(am, q) {
			return true
		}
	}
	return false
}

// =============================================================================
// FIELD MAPPING
// =============================================================================

// ToOpportunity maps one record to an Opportunity. index is the record's
// position in the full fetched set and is only used for synthetic ids.
func (c *Classifier) ToOpportunity(r csvparser.Record, index int) types.Opportunity {
	get := func(candidates []string) string {
		return strings.TrimSpace(resolver.Resolve(r, candidates, false))
	}

	opp := types.Opportunity{
		Name:         get(c.columns.Name),
		Stage:        get(c.columns.Stage),
		AccessMethod: get(c.columns.AccessMethod),
		AmountText:   get(c.columns.Amount),
		CloseDate:    get(c.columns.CloseDate),
		AccountName:  get(c.columns.Account),
		OwnerName:    get(c.columns.Owner),
		Probability:  amount.ParseNull(get(c.columns.Probability)),
		CreatedDate:  get(c.columns.Created),
		ModifiedDate: get(c.columns.Modified),
		Row:          index,
	}
	opp.Amount = amount.ParseNull(opp.AmountText)

	if id, ok := recordid.Canonical(resolver.Resolve(r, c.columns.ID, true)); ok {
		opp.ID = id
		opp.URL = c.RecordURL(id)
	} else {
		opp.ID = fmt.Sprintf("%s%d", SyntheticPrefix, index)
		opp.SyntheticID = true
	}

	return opp
}

// RecordURL returns the CRM deep link for a canonical id, or "" when no
// instance URL is configured.
func (c *Classifier) RecordURL(id string) string {
	if c.instanceURL == "" || id == "" {
		return ""
	}
	return c.instanceURL + "/lightning/r/Opportunity/" + id + "/view"
}
