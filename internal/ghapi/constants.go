package ghapi

import "time"

// API configuration.
const (
	DefaultBaseURL = "https://api.github.com"
)

// DefaultPageSize is the per-page item count for REST listings; GitHub
// caps pages at 100 items.
const DefaultPageSize = 100

// Rate limit handling.
const (
	// CoreRateThreshold is the remaining-request floor below which REST
	// calls wait for the quota window to reset.
	CoreRateThreshold = 5

	// GraphQLRateThreshold is the remaining-point floor for GraphQL
	// queries. Nested connection queries can cost several points each.
	GraphQLRateThreshold = 10

	// resetBuffer is added to every reset wait to absorb clock skew
	// between this host and the API.
	resetBuffer = 2 * time.Second

	// maxResetWait bounds how long a single rate limit wait may be.
	// A reset further away than this indicates a clock problem.
	maxResetWait = 2 * time.Hour
)

// Retry defaults, overridable per client.
const (
	DefaultRetryCount    = 5
	DefaultRetryBaseWait = 2 * time.Second

	// DefaultPacing is the courtesy delay between successive API calls.
	DefaultPacing = 100 * time.Millisecond
)
