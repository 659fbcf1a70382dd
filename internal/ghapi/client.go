// Package ghapi wraps the GitHub REST and GraphQL APIs behind typed
// fetchers with shared rate limit tracking, retries, and call pacing.
package ghapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// GitHubClient defines the interface for the GitHub API operations an
// audit needs. This interface allows for easy mocking in tests.
type GitHubClient interface {
	ResolveOrg(ctx context.Context, org string) (*Org, error)
	FetchRepositories(ctx context.Context, org string) ([]Repository, error)
	FetchCollaborators(ctx context.Context, org, repo, affiliation string) ([]Collaborator, error)
	FetchTeams(ctx context.Context, org string) ([]Team, error)
	FetchMembers(ctx context.Context, org string) ([]Member, error)
	FetchSSOIdentities(ctx context.Context, org string) ([]SSOIdentity, error)
	FetchVerifiedEmails(ctx context.Context, org, login string) ([]string, error)
	FetchUserName(ctx context.Context, login string) (string, error)
}

// Config configures a Client.
type Config struct {
	// Token is a classic PAT. Ignored when App credentials are set.
	Token string

	// GitHub App credentials (recommended).
	AppID          int64
	InstallationID int64
	PrivateKey     []byte

	// BaseURL points at a GitHub Enterprise Server instance, e.g.
	// https://github.example.com. Empty means github.com.
	BaseURL string

	// RetryCount and RetryBaseWait tune the retry policy. Zero values
	// use the defaults.
	RetryCount    int
	RetryBaseWait time.Duration

	// Pacing is the courtesy delay between successive API calls. Zero
	// uses the default; negative disables pacing.
	Pacing time.Duration

	Logger *slog.Logger
}

// Client wraps the GitHub REST and GraphQL clients. All calls flow
// through shared rate limit gating, retry handling, and pacing, so the
// two protocols draw on their budgets without racing each other.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
	limits  *RateTracker
	retry   *RetryPolicy
	logger  *slog.Logger

	pacing    time.Duration
	paceMu    sync.Mutex
	notBefore time.Time
}

// Ensure Client implements GitHubClient.
var _ GitHubClient = (*Client)(nil)

// NewClient creates a client from the given configuration. It supports
// two authentication methods:
//   - GitHub App (recommended): Set AppID, InstallationID, and PrivateKey
//   - Classic PAT (legacy): Set Token
func NewClient(cfg Config) (*Client, error) {
	var httpClient *http.Client

	switch {
	case cfg.AppID != 0 && len(cfg.PrivateKey) > 0:
		if cfg.InstallationID == 0 {
			return nil, fmt.Errorf("installation_id is required when using GitHub App authentication")
		}
		itr, err := ghinstallation.New(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
		}
		if enterprise(cfg.BaseURL) {
			itr.BaseURL = restEndpoint(cfg.BaseURL)
		}
		httpClient = &http.Client{Transport: itr}
	case cfg.Token != "":
		src := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), src)
	default:
		return nil, fmt.Errorf("authentication required: provide app_id + private_key (recommended) or a token")
	}

	rest := github.NewClient(httpClient)
	gql := githubv4.NewClient(httpClient)
	if enterprise(cfg.BaseURL) {
		var err error
		rest, err = rest.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
		}
		gql = githubv4.NewEnterpriseClient(graphqlEndpoint(cfg.BaseURL), httpClient)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pacing := cfg.Pacing
	if pacing == 0 {
		pacing = DefaultPacing
	}
	if pacing < 0 {
		pacing = 0
	}

	return &Client{
		rest:    rest,
		graphql: gql,
		limits:  NewRateTracker(logger),
		retry:   NewRetryPolicy(cfg.RetryCount, cfg.RetryBaseWait, logger),
		logger:  logger,
		pacing:  pacing,
	}, nil
}

// NewClientWithHTTP creates a REST-only client against a custom base URL
// (for testing). Pacing is disabled and retries are minimal.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	rest := github.NewClient(httpClient)
	if u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/"); err == nil {
		rest.BaseURL = u
	}
	return &Client{
		rest:   rest,
		limits: NewRateTracker(nil),
		retry:  NewRetryPolicy(1, time.Millisecond, nil),
		logger: slog.Default(),
	}
}

// NewClientWithGraphQL creates a client with custom base URL and GraphQL
// endpoint (for testing).
func NewClientWithGraphQL(httpClient *http.Client, baseURL, graphqlURL string) *Client {
	c := NewClientWithHTTP(httpClient, baseURL)
	c.graphql = githubv4.NewEnterpriseClient(graphqlURL, httpClient)
	return c
}

// enterprise reports whether baseURL names something other than the
// public github.com API.
func enterprise(baseURL string) bool {
	return baseURL != "" && baseURL != DefaultBaseURL
}

// restEndpoint derives the REST API root for a GitHub Enterprise Server
// base URL: https://host becomes https://host/api/v3.
func restEndpoint(base string) string {
	return strings.TrimSuffix(base, "/") + "/api/v3"
}

// graphqlEndpoint derives the GraphQL endpoint for a GitHub Enterprise
// Server base URL: https://host becomes https://host/api/graphql.
func graphqlEndpoint(base string) string {
	return strings.TrimSuffix(base, "/") + "/api/graphql"
}

// doREST runs one REST call with rate limit gating, pacing, retries,
// and budget tracking. fn captures its own results and returns the API
// response so pagination and rate metadata can be read.
func (c *Client) doREST(ctx context.Context, op string, fn func(ctx context.Context) (*github.Response, error)) error {
	return c.retry.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limits.WaitCore(ctx); err != nil {
			return err
		}
		if err := c.pace(ctx); err != nil {
			return err
		}
		resp, err := fn(ctx)
		if resp != nil && resp.Rate.Limit > 0 {
			c.limits.UpdateCore(resp.Rate.Limit, resp.Rate.Remaining, resp.Rate.Reset.Time)
			c.logger.Debug("rest call", "operation", op, "remaining", resp.Rate.Remaining)
		}
		return err
	})
}

// doGraphQL runs one GraphQL query with the same gating as doREST. rl
// points at the query's rateLimit block and is read after a successful
// query.
func (c *Client) doGraphQL(ctx context.Context, op string, query interface{}, variables map[string]interface{}, rl *rateLimitBlock) error {
	return c.retry.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limits.WaitGraphQL(ctx); err != nil {
			return err
		}
		if err := c.pace(ctx); err != nil {
			return err
		}
		if err := c.graphql.Query(ctx, query, variables); err != nil {
			return err
		}
		if rl != nil && rl.Limit > 0 {
			c.limits.UpdateGraphQL(rl.Limit, rl.Remaining, rl.ResetAt.Time)
			c.logger.Debug("graphql call", "operation", op, "cost", rl.Cost, "remaining", rl.Remaining)
		}
		return nil
	})
}

// pace spaces successive API calls by the configured courtesy delay.
func (c *Client) pace(ctx context.Context) error {
	if c.pacing <= 0 {
		return nil
	}
	c.paceMu.Lock()
	now := time.Now()
	wait := c.notBefore.Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.notBefore = now.Add(wait + c.pacing)
	c.paceMu.Unlock()
	if wait > 0 {
		return sleepContext(ctx, wait)
	}
	return nil
}
