// Package audit builds repository collaborator access reports for a
// GitHub organization.
package audit

import (
	"log/slog"
	"sort"
	"time"
)

// SchemaVersion is the version of the report schema.
const SchemaVersion = "1.0.0"

// StatusFunc is called to report indeterminate status updates.
type StatusFunc func(message string)

// ProgressFunc is called to report determinate progress (current/total).
type ProgressFunc func(current, total int64, message string)

// Config holds the audit configuration.
type Config struct {
	Organization     string `json:"organization"`
	GitHubToken      string `json:"github_token"`    // Classic PAT (legacy)
	AppID            int64  `json:"app_id"`          // GitHub App ID (recommended)
	InstallationID   int64  `json:"installation_id"` // GitHub App installation ID
	PrivateKey       string `json:"private_key"`     // GitHub App private key (PEM)
	Permission       string `json:"permission"`      // ALL or a single level to keep
	Affiliation      string `json:"affiliation"`     // ALL, DIRECT, or OUTSIDE
	RetryCount       int    `json:"retry_count"`
	RetryBaseDelayMs int    `json:"retry_base_delay_ms"`
	FetchNames       bool   `json:"fetch_names"` // look up missing display names per user
	MaxWorkers       int    `json:"max_workers"`
	BaseURL          string `json:"base_url"` // GitHub Enterprise Server base URL

	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`

	// Progress callbacks (optional, set by the caller to report status)
	OnStatus   StatusFunc   `json:"-"`
	OnProgress ProgressFunc `json:"-"`

	// Logger receives structured diagnostics. Defaults to slog.Default.
	Logger *slog.Logger `json:"-"`
}

// AccessRow is a single (repository, user) access record: who can reach
// the repository, at what level, and through which teams.
type AccessRow struct {
	Repository    string     `json:"repository"`
	Visibility    string     `json:"visibility"`
	Login         string     `json:"login"`
	Name          string     `json:"name"`
	SSOEmail      string     `json:"sso_email"`
	VerifiedEmail string     `json:"verified_email"`
	Permission    Permission `json:"permission"`
	OrgRole       string     `json:"org_role"`
	ViaTeams      []string   `json:"via_teams,omitempty"`
}

// Report is the assembled access report for an organization.
type Report struct {
	SchemaVersion string      `json:"schema_version"`
	GeneratedAt   string      `json:"generated_at"`
	Organization  string      `json:"organization"`
	Permission    string      `json:"permission_filter"`
	Affiliation   string      `json:"affiliation"`
	Repositories  int         `json:"repositories"`
	Excluded      int         `json:"excluded_repositories"`
	Rows          []AccessRow `json:"rows"`
}

// NewReport creates a new Report with the current timestamp.
func NewReport(org string) *Report {
	return &Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Organization:  org,
	}
}

// sortRows orders rows by repository, then login. Runs over the same
// organization state produce identical output regardless of fetch order.
func sortRows(rows []AccessRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Repository != rows[j].Repository {
			return rows[i].Repository < rows[j].Repository
		}
		return rows[i].Login < rows[j].Login
	})
}

// filterRows keeps rows whose permission matches the requested level.
// Filtering happens after direct and team grants are merged, so a user
// whose effective permission was raised by a team grant is judged on the
// merged value, not on either contributing grant.
func filterRows(rows []AccessRow, level Permission, all bool) []AccessRow {
	if all {
		return rows
	}
	filtered := make([]AccessRow, 0, len(rows))
	for _, row := range rows {
		if row.Permission == level {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
