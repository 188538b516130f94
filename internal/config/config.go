// =============================================================================
// Pipeline Dashboard - Configuration Module
// =============================================================================
//
// This module handles loading and validating the dashboard configuration.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. The YAML config file (config.yaml by default; optional)
//   3. Environment variables, optionally loaded from a .env file
//
// Secrets (private keys, API keys, tokens) are expected to come from the
// environment. The resulting Config is a plain value that is passed
// explicitly to every component; nothing downstream reads the environment.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete dashboard configuration.
type Config struct {
	// Sheet describes the spreadsheet acting as the CRM proxy.
	Sheet SheetConfig `yaml:"sheet"`

	// Jira describes the issue-tracker integration.
	Jira JiraConfig `yaml:"jira"`

	// Salesforce holds the CRM instance used for opportunity deep links.
	Salesforce SalesforceConfig `yaml:"salesforce"`

	// Buckets are the named stage buckets shown on the dashboard, in order.
	Buckets []Bucket `yaml:"buckets"`

	// AccessMethodQualifiers are the substrings that qualify a record's
	// access method. Both spellings of "data feed" are listed by default.
	AccessMethodQualifiers []string `yaml:"access_method_qualifiers"`

	// Columns lists candidate header names per opportunity field.
	Columns Columns `yaml:"columns"`

	// Validation controls the data-quality checks on qualifying records.
	Validation ValidationConfig `yaml:"validation"`

	HTTP   HTTPConfig   `yaml:"http"`
	Server ServerConfig `yaml:"server"`

	// LogFile is the path to the log file. Empty logs to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// OutputDir is where exported workbooks are written.
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat is the export file name pattern.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}.
	OutputNameFormat string `yaml:"output_name_format"`
}

// SheetConfig identifies the spreadsheet and the credentials available for it.
type SheetConfig struct {
	// SpreadsheetID is the document identifier from the sheet URL.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// Tab is the sheet (tab) name. Optional.
	Tab string `yaml:"tab"`

	// GID is the numeric grid id of the tab. Optional.
	GID string `yaml:"gid"`

	// Range is an A1 range. When empty the whole tab is read.
	Range string `yaml:"range"`

	// ServiceAccountEmail and PrivateKey enable authenticated API access.
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKey          string `yaml:"private_key"`

	// APIKey enables simple keyed API access.
	APIKey string `yaml:"api_key"`

	// ExportBaseURL is the host serving public CSV exports.
	ExportBaseURL string `yaml:"export_base_url"`

	// SheetsEndpoint overrides the Sheets API endpoint. Empty uses Google's.
	SheetsEndpoint string `yaml:"sheets_endpoint"`
}

// JiraConfig holds the issue-tracker settings.
type JiraConfig struct {
	URL      string `yaml:"url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`

	// FilterID is the saved filter whose issues are shown.
	FilterID string `yaml:"filter_id"`

	// OwnerField is an optional custom field id (e.g. customfield_10100)
	// holding the ticket owner.
	OwnerField string `yaml:"owner_field"`

	MaxResults int `yaml:"max_results"`
}

// SalesforceConfig holds the CRM instance URL.
type SalesforceConfig struct {
	InstanceURL string `yaml:"instance_url"`
}

// Bucket is a named group of opportunities whose stage contains Keyword.
type Bucket struct {
	Name    string `yaml:"name"`
	Keyword string `yaml:"stage_keyword"`
}

// Columns lists candidate header names for each opportunity field, most
// specific first.
type Columns struct {
	ID           []string `yaml:"id"`
	Name         []string `yaml:"name"`
	Stage        []string `yaml:"stage"`
	AccessMethod []string `yaml:"access_method"`
	Amount       []string `yaml:"amount"`
	CloseDate    []string `yaml:"close_date"`
	Account      []string `yaml:"account"`
	Owner        []string `yaml:"owner"`
	Probability  []string `yaml:"probability"`
	Created      []string `yaml:"created"`
	Modified     []string `yaml:"modified"`
}

// ValidationConfig controls data-quality checks.
type ValidationConfig struct {
	// TreatWarningsAsErrors marks a report with any warning as invalid.
	TreatWarningsAsErrors bool `yaml:"treat_warnings_as_errors"`

	// RequiredFields are opportunity fields that must not be empty, in
	// addition to the name. See RequiredFieldNames.
	RequiredFields []string `yaml:"required_fields"`
}

// RequiredFieldNames are the values accepted in validation.required_fields.
var RequiredFieldNames = []string{"account_name", "owner_name", "close_date", "amount", "access_method", "probability"}

// HTTPConfig controls outbound requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Zero leaves the transport defaults.
	Timeout time.Duration `yaml:"timeout"`

	// ExportAttempts is the number of attempts per public export URL.
	ExportAttempts int `yaml:"export_attempts"`

	// ExportBackoff is the fixed delay between export attempts.
	ExportBackoff time.Duration `yaml:"export_backoff"`
}

// ServerConfig controls the dashboard HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RefreshSeconds is the page auto-refresh interval. Zero disables it.
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadConfig loads the configuration from the YAML file at configPath and
// the process environment. If envFile exists it is loaded into the
// environment first; a missing config or env file is not an error.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if a file exists but cannot be read or parsed, or if the
//     resulting configuration is invalid.
func LoadConfig(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	return Load(configPath, os.LookupEnv)
}

// Load is LoadConfig with an explicit environment lookup.
func Load(configPath string, lookup func(string) (string, bool)) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults and environment only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(&config, lookup)
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a Config holding only the built-in defaults.
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.Sheet.ExportBaseURL == "" {
		config.Sheet.ExportBaseURL = "https://docs.google.com"
	}
	config.Sheet.ExportBaseURL = strings.TrimRight(config.Sheet.ExportBaseURL, "/")
	config.Jira.URL = strings.TrimRight(config.Jira.URL, "/")
	config.Salesforce.InstanceURL = strings.TrimRight(config.Salesforce.InstanceURL, "/")

	if config.Jira.MaxResults == 0 {
		config.Jira.MaxResults = 100
	}
	if len(config.Buckets) == 0 {
		config.Buckets = DefaultBuckets()
	}
	if len(config.AccessMethodQualifiers) == 0 {
		config.AccessMethodQualifiers = []string{"api", "data feed", "datafeed"}
	}

	defaults := DefaultColumns()
	fillColumns(&config.Columns.ID, defaults.ID)
	fillColumns(&config.Columns.Name, defaults.Name)
	fillColumns(&config.Columns.Stage, defaults.Stage)
	fillColumns(&config.Columns.AccessMethod, defaults.AccessMethod)
	fillColumns(&config.Columns.Amount, defaults.Amount)
	fillColumns(&config.Columns.CloseDate, defaults.CloseDate)
	fillColumns(&config.Columns.Account, defaults.Account)
	fillColumns(&config.Columns.Owner, defaults.Owner)
	fillColumns(&config.Columns.Probability, defaults.Probability)
	fillColumns(&config.Columns.Created, defaults.Created)
	fillColumns(&config.Columns.Modified, defaults.Modified)

	if config.HTTP.ExportAttempts == 0 {
		config.HTTP.ExportAttempts = 2
	}
	if config.HTTP.ExportBackoff == 0 {
		config.HTTP.ExportBackoff = time.Second
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.RefreshSeconds == 0 {
		config.Server.RefreshSeconds = 300
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "opportunities_{timestamp}_{uuid}"
	}
}

func fillColumns(dst *[]string, defaults []string) {
	if len(*dst) == 0 {
		*dst = defaults
	}
}

// validate checks the configuration for values no component can work with.
// Missing credentials are not an error: they are reported through Status.
func validate(config *Config) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	for i, b := range config.Buckets {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("bucket %d has no name", i+1)
		}
		if strings.TrimSpace(b.Keyword) == "" {
			return fmt.Errorf("bucket %q has no stage_keyword", b.Name)
		}
	}

	for _, field := range config.Validation.RequiredFields {
		if !isRequiredFieldName(field) {
			return fmt.Errorf("unknown validation.required_fields entry %q (want one of %s)",
				field, strings.Join(RequiredFieldNames, ", "))
		}
	}

	if config.HTTP.ExportAttempts < 1 {
		return fmt.Errorf("http.export_attempts must be at least 1")
	}
	if config.HTTP.ExportBackoff < 0 || config.HTTP.Timeout < 0 {
		return fmt.Errorf("http durations must not be negative")
	}
	if config.Server.RefreshSeconds < 0 {
		return fmt.Errorf("server.refresh_seconds must not be negative")
	}

	return nil
}

func isRequiredFieldName(field string) bool {
	field = strings.ToLower(strings.TrimSpace(field))
	for _, name := range RequiredFieldNames {
		if field == name {
			return true
		}
	}
	return false
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultBuckets returns the stage buckets used when none are configured.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Name: "Due Diligence", Keyword: "due diligence"},
		{Name: "Negotiation", Keyword: "negotiation"},
		{Name: "Closed Won", Keyword: "closed won"},
	}
}

// DefaultColumns returns the header candidates used for unset fields.
func DefaultColumns() Columns {
	return Columns{
		ID:           []string{"Opportunity ID", "Opportunity ID (18)", "Opportunity_ID", "Record ID", "Id"},
		Name:         []string{"Opportunity Name", "Name"},
		Stage:        []string{"Stage", "Stage Name", "StageName", "Opportunity Stage"},
		AccessMethod: []string{"Access Method (L)", "Access_Method_L__c", "Access Method"},
		Amount:       []string{"Amount", "Opportunity Amount", "Total Amount"},
		CloseDate:    []string{"Close Date", "CloseDate"},
		Account:      []string{"Account Name", "Account"},
		Owner:        []string{"Opportunity Owner", "Owner Name", "Owner"},
		Probability:  []string{"Probability (%)", "Probability"},
		Created:      []string{"Created Date", "CreatedDate"},
		Modified:     []string{"Last Modified Date", "LastModifiedDate", "Last Modified"},
	}
}
