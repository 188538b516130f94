package classifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
	"github.com/ginjaninja78/pipeline-dashboard/internal/csvparser"
)

func newClassifier() *Classifier {
	cfg := config.Default()
	cfg.Salesforce.InstanceURL = "https://acme.my.salesforce.com/"
	return New(cfg)
}

func names(t *testing.T, c *Classifier, records []csvparser.Record, keyword string) []string {
	t.Helper()
	var out []string
	for _, o := range c.Classify(records, keyword) {
		out = append(out, o.Name)
	}
	return out
}

func TestClassify_NoAccessMethodAnywhereSkipsRule(t *testing.T) {
	records := []csvparser.Record{
		{"Opportunity Name": "A", "Stage": "Due Diligence"},
		{"Opportunity Name": "B", "Stage": "3 - due diligence (legal)"},
		{"Opportunity Name": "C", "Stage": "Negotiation"},
	}

	assert.Equal(t, []string{"A", "B"}, names(t, newClassifier(), records, "Due Diligence"))
}

func TestClassify_AccessMethodAppliesToEveryRow(t *testing.T) {
	records := []csvparser.Record{
		{"Opportunity Name": "api", "Stage": "Due Diligence", "Access Method": "REST API"},
		{"Opportunity Name": "spaced", "Stage": "Due Diligence", "Access Method": "Data Feed"},
		{"Opportunity Name": "unspaced", "Stage": "Due Diligence", "Access Method": "DataFeed (daily)"},
		{"Opportunity Name": "empty", "Stage": "Due Diligence", "Access Method": ""},
		{"Opportunity Name": "missing", "Stage": "Due Diligence"},
		{"Opportunity Name": "portal", "Stage": "Due Diligence", "Access Method": "Portal"},
	}

	assert.Equal(t, []string{"api", "spaced", "unspaced"}, names(t, newClassifier(), records, "due diligence"))
}

func TestClassify_BlankAccessMethodEverywhereSkipsRule(t *testing.T) {
	records := []csvparser.Record{
		{"Opportunity Name": "A", "Stage": "Negotiation", "Access Method": "  "},
		{"Opportunity Name": "B", "Stage": "Negotiation", "Access Method": ""},
	}

	c := newClassifier()
	assert.False(t, c.HasAccessMethod(records))
	assert.Equal(t, []string{"A", "B"}, names(t, c, records, "negotiation"))
}

func TestClassify_EmptyInput(t *testing.T) {
	got := newClassifier().Classify(nil, "negotiation")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestToOpportunity_Mapping(t *testing.T) {
	r := csvparser.Record{
		"Opportunity ID":     "006A0000003DHP0",
		"Opportunity Name":   "Acme Renewal",
		"Stage Name":         "Closed Won",
		"Access_Method_L__c": "API",
		"Amount (EUR)":       "1.234.567,89",
		"Close Date":         "2024-03-31",
		"Account Name":       "Acme",
		"Opportunity Owner":  "Dana",
		"Probability (%)":    "75%",
		"Created Date":       "2024-01-02",
		"Last Modified Date": "2024-02-03",
	}

	o := newClassifier().ToOpportunity(r, 4)

	assert.Equal(t, "006A0000003DHP0IAO", o.ID)
	assert.False(t, o.SyntheticID)
	assert.Equal(t, "https://acme.my.salesforce.com/lightning/r/Opportunity/006A0000003DHP0IAO/view", o.URL)
	assert.Equal(t, "Acme Renewal", o.Name)
	assert.Equal(t, "Closed Won", o.Stage)
	assert.Equal(t, "API", o.AccessMethod)
	require.True(t, o.Amount.Valid)
	assert.True(t, o.Amount.Decimal.Equal(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "1.234.567,89", o.AmountText)
	assert.Equal(t, "2024-03-31", o.CloseDate)
	assert.Equal(t, "Acme", o.AccountName)
	assert.Equal(t, "Dana", o.OwnerName)
	require.True(t, o.Probability.Valid)
	assert.Equal(t, "75", o.Probability.Decimal.String())
	assert.Equal(t, "2024-01-02", o.CreatedDate)
	assert.Equal(t, "2024-02-03", o.ModifiedDate)
	assert.Equal(t, 4, o.Row)
}

func TestToOpportunity_SyntheticID(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name   string
		record csvparser.Record
	}{
		{"no id column", csvparser.Record{"Stage": "Negotiation"}},
		{"invalid id", csvparser.Record{"Opportunity ID": "005A0000003DHP0"}},
		{"substring header is not an id", csvparser.Record{"Source Opportunity ID": "006A0000003DHP0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := c.ToOpportunity(tt.record, 7)
			assert.Equal(t, "row-7", o.ID)
			assert.True(t, o.SyntheticID)
			assert.Empty(t, o.URL)
		})
	}
}

func TestToOpportunity_NoInstanceURL(t *testing.T) {
	o := New(config.Default()).ToOpportunity(csvparser.Record{"Id": "006A0000003DHP0IAO"}, 0)

	assert.Equal(t, "006A0000003DHP0IAO", o.ID)
	assert.Empty(t, o.URL)
	assert.False(t, o.Amount.Valid)
}

func TestSyntheticIDUsesFullSetIndex(t *testing.T) {
	records := []csvparser.Record{
		{"Stage": "Negotiation"},
		{"Stage": "Closed Won"},
		{"Stage": "Closed Won"},
	}

	got := newClassifier().Classify(records, "closed won")

	require.Len(t, got, 2)
	assert.Equal(t, "row-1", got[0].ID)
	assert.Equal(t, "row-2", got[1].ID)
}

func TestBucketize(t *testing.T) {
	records := []csvparser.Record{
		{"Opportunity Name": "A", "Stage": "Due Diligence"},
		{"Opportunity Name": "B", "Stage": "Negotiation"},
		{"Opportunity Name": "C", "Stage": "Negotiation/Review"},
	}

	buckets := newClassifier().Bucketize(records, config.DefaultBuckets())

	require.Len(t, buckets, 3)
	assert.Equal(t, "Due Diligence", buckets[0].Name)
	assert.Equal(t, 1, buckets[0].Count)
	assert.Equal(t, 2, buckets[1].Count)
	assert.Equal(t, "Closed Won", buckets[2].Name)
	assert.Equal(t, 0, buckets[2].Count)
	assert.NotNil(t, buckets[2].Opportunities)
}
