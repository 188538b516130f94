package config

import (
	"strconv"
	"strings"
)

// Environment variables recognized by applyEnv. Set values override YAML.
const (
	EnvSpreadsheetID       = "GOOGLE_SHEET_ID"
	EnvSheetTab            = "GOOGLE_SHEET_TAB"
	EnvSheetGID            = "GOOGLE_SHEET_GID"
	EnvSheetRange          = "GOOGLE_SHEET_RANGE"
	EnvServiceAccountEmail = "GOOGLE_SERVICE_ACCOUNT_EMAIL"
	EnvPrivateKey          = "GOOGLE_PRIVATE_KEY"
	EnvAPIKey              = "GOOGLE_API_KEY"
	EnvJiraURL             = "JIRA_URL"
	EnvJiraEmail           = "JIRA_EMAIL"
	EnvJiraAPIToken        = "JIRA_API_TOKEN"
	EnvJiraFilterID        = "JIRA_FILTER_ID"
	EnvJiraOwnerField      = "JIRA_OWNER_FIELD"
	EnvSalesforceURL       = "SALESFORCE_INSTANCE_URL"
	EnvListenAddr          = "LISTEN_ADDR"
	EnvRefreshSeconds      = "REFRESH_SECONDS"
	EnvLogLevel            = "LOG_LEVEL"
)

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}

	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(&config.Sheet.SpreadsheetID, EnvSpreadsheetID)
	str(&config.Sheet.Tab, EnvSheetTab)
	str(&config.Sheet.GID, EnvSheetGID)
	str(&config.Sheet.Range, EnvSheetRange)
	str(&config.Sheet.ServiceAccountEmail, EnvServiceAccountEmail)
	str(&config.Sheet.PrivateKey, EnvPrivateKey)
	str(&config.Sheet.APIKey, EnvAPIKey)

	str(&config.Jira.URL, EnvJiraURL)
	str(&config.Jira.Email, EnvJiraEmail)
	str(&config.Jira.APIToken, EnvJiraAPIToken)
	str(&config.Jira.FilterID, EnvJiraFilterID)
	str(&config.Jira.OwnerField, EnvJiraOwnerField)

	str(&config.Salesforce.InstanceURL, EnvSalesforceURL)
	str(&config.Server.Addr, EnvListenAddr)
	str(&config.LogLevel, EnvLogLevel)

	// Invalid numbers keep the YAML or default value.
	if v, ok := lookup(EnvRefreshSeconds); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.Server.RefreshSeconds = n
		}
	}
}
