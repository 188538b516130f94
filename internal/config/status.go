package config

import (
	"strings"
)

// PrivateKeyMarker identifies structured private key material.
const PrivateKeyMarker = "PRIVATE KEY"

// maxAPIKeyLength disqualifies values too long to be a bare API key.
const maxAPIKeyLength = 100

// =============================================================================
// CREDENTIAL CHECKS
// =============================================================================

// LooksLikePrivateKey reports whether s carries a private key marker.
func LooksLikePrivateKey(s string) bool {
	return strings.Contains(s, PrivateKeyMarker)
}

// HasServiceAccount reports whether authenticated API access is possible:
// an identity email and key material that looks like a private key.
func (s SheetConfig) HasServiceAccount() bool {
	return strings.TrimSpace(s.ServiceAccountEmail) != "" && LooksLikePrivateKey(s.PrivateKey)
}

// HasAPIKey reports whether keyed API access is possible. A value that looks
// like a private key, or is too long to be an API key, does not count.
func (s SheetConfig) HasAPIKey() bool {
	key := strings.TrimSpace(s.APIKey)
	return key != "" && !LooksLikePrivateKey(key) && len(key) <= maxAPIKeyLength
}

// HasDocument reports whether a spreadsheet is configured at all.
func (s SheetConfig) HasDocument() bool {
	return strings.TrimSpace(s.SpreadsheetID) != ""
}

// PrivateKeyPEM returns the private key with escaped "\n" sequences turned
// into real newlines, as keys pasted into env files usually are.
func (s SheetConfig) PrivateKeyPEM() []byte {
	return []byte(strings.ReplaceAll(s.PrivateKey, `\n`, "\n"))
}

// ValueRange returns the A1 range reference used for API reads.
func (s SheetConfig) ValueRange() string {
	tab := strings.TrimSpace(s.Tab)
	rng := strings.TrimSpace(s.Range)

	quoted := ""
	if tab != "" {
		quoted = "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}

	switch {
	case rng != "" && strings.Contains(rng, "!"):
		return rng
	case rng != "" && quoted != "":
		return quoted + "!" + rng
	case rng != "":
		return rng
	case quoted != "":
		return quoted
	default:
		return "A:ZZ"
	}
}

// HasCredentials reports whether the issue tracker can be queried.
func (j JiraConfig) HasCredentials() bool {
	return j.URL != "" && j.Email != "" && j.APIToken != "" && j.FilterID != ""
}

// =============================================================================
// CONFIGURATION STATUS
// =============================================================================

// Status reports which data sources are configured, independent of whether
// fetching from them succeeds.
type Status struct {
	// Configured is true when opportunities can be attempted at all.
	Configured bool `json:"configured"`

	SheetConfigured bool `json:"sheet_configured"`
	ServiceAccount  bool `json:"service_account"`
	APIKey          bool `json:"api_key"`
	PublicExport    bool `json:"public_export"`
	JiraConfigured  bool `json:"jira_configured"`

	// Message is a human-readable summary.
	Message string `json:"message"`
}

// Status evaluates the configuration.
func (c *Config) Status() Status {
	s := Status{
		SheetConfigured: c.Sheet.HasDocument(),
		ServiceAccount:  c.Sheet.HasDocument() && c.Sheet.HasServiceAccount(),
		APIKey:          c.Sheet.HasDocument() && c.Sheet.HasAPIKey(),
		PublicExport:    c.Sheet.HasDocument() && c.Sheet.ExportBaseURL != "",
		JiraConfigured:  c.Jira.HasCredentials(),
	}
	s.Configured = s.ServiceAccount || s.APIKey || s.PublicExport

	var methods []string
	if s.ServiceAccount {
		methods = append(methods, "service-account")
	}
	if s.APIKey {
		methods = append(methods, "api-key")
	}
	if s.PublicExport {
		methods = append(methods, "csv")
	}

	switch {
	case !s.Configured:
		s.Message = "not configured: no spreadsheet id"
	default:
		s.Message = "sheet access via " + strings.Join(methods, ", ")
	}
	if !s.JiraConfigured {
		s.Message += "; tickets not configured"
	}

	return s
}
