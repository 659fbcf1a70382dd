package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JHAAdmins/gh-collab-audit/internal/ghapi"
)

// Auditor audits repository collaborator access for an organization.
type Auditor struct {
	client ghapi.GitHubClient
	config Config
	logger *slog.Logger
}

// status reports an indeterminate status update.
func (a *Auditor) status(message string) {
	if a.config.OnStatus != nil {
		a.config.OnStatus(message)
	}
}

// progress reports a determinate progress update.
func (a *Auditor) progress(current, total int64, message string) {
	if a.config.OnProgress != nil {
		a.config.OnProgress(current, total, message)
	}
}

// New creates a new Auditor with the given configuration. It supports
// two authentication methods:
//   - GitHub App (recommended): Set AppID, InstallationID, and PrivateKey
//   - Classic PAT (legacy): Set GitHubToken
func New(config Config) (*Auditor, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	client, err := ghapi.NewClient(ghapi.Config{
		Token:          config.GitHubToken,
		AppID:          config.AppID,
		InstallationID: config.InstallationID,
		PrivateKey:     []byte(config.PrivateKey),
		BaseURL:        config.BaseURL,
		RetryCount:     config.RetryCount,
		RetryBaseWait:  time.Duration(config.RetryBaseDelayMs) * time.Millisecond,
		Logger:         config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	return &Auditor{
		client: client,
		config: config,
		logger: config.Logger,
	}, nil
}

// NewWithClient creates an Auditor with a custom client (for testing).
func NewWithClient(config Config, client ghapi.GitHubClient) *Auditor {
	config.applyDefaults()
	return &Auditor{
		client: client,
		config: config,
		logger: config.Logger,
	}
}

// Run fetches organization state and assembles the access report.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	if a.config.Organization == "" {
		return nil, fmt.Errorf("organization is required")
	}
	level, all, err := ParsePermissionFilter(a.config.Permission)
	if err != nil {
		return nil, err
	}
	affiliation, err := NormalizeAffiliation(a.config.Affiliation)
	if err != nil {
		return nil, err
	}

	includePatterns := a.config.IncludePatterns
	if len(includePatterns) == 0 {
		includePatterns = []string{DefaultIncludePattern}
	}

	a.status(fmt.Sprintf("Connecting to GitHub org %s...", a.config.Organization))

	org, err := a.client.ResolveOrg(ctx, a.config.Organization)
	if err != nil {
		return nil, err
	}

	// Report under the canonical login casing the API returns.
	report := NewReport(org.Login)
	report.Permission = strings.ToUpper(a.config.Permission)
	report.Affiliation = affiliation

	a.status("Fetching repositories...")
	repos, err := a.client.FetchRepositories(ctx, org.Login)
	if err != nil {
		return nil, err
	}

	audited, excluded := filterRepos(repos, includePatterns, a.config.ExcludePatterns)
	report.Repositories = len(audited)
	report.Excluded = excluded
	a.status(fmt.Sprintf("Found %d repositories (%d excluded)...", len(audited), excluded))

	a.status("Fetching teams...")
	teams, err := a.client.FetchTeams(ctx, org.Login)
	if err != nil {
		return nil, err
	}

	a.status("Fetching organization members...")
	members, err := a.client.FetchMembers(ctx, org.Login)
	if err != nil {
		return nil, err
	}

	a.status("Fetching SAML identities...")
	identities, err := a.client.FetchSSOIdentities(ctx, org.Login)
	if err != nil {
		return nil, err
	}

	a.status("Fetching collaborators...")
	collaborators, err := a.fetchCollaborators(ctx, org.Login, audited, affiliation)
	if err != nil {
		return nil, err
	}

	a.status("Reconciling access...")
	rows := reconcile(audited, collaborators, teams)

	newDirectory(members, identities, audited).enrich(rows)

	// Filter on the merged permission, never on individual grants.
	rows = filterRows(rows, level, all)

	a.status("Looking up verified emails...")
	if err := a.enrichVerifiedEmails(ctx, org.Login, rows); err != nil {
		return nil, err
	}

	if a.config.FetchNames {
		a.status("Looking up display names...")
		if err := a.enrichNames(ctx, rows); err != nil {
			return nil, err
		}
	}

	report.Rows = rows
	a.status("Audit complete")

	return report, nil
}

// filterRepos splits repositories into the audited set and a count of
// excluded ones.
func filterRepos(repos []ghapi.Repository, include, exclude []string) ([]ghapi.Repository, int) {
	audited := make([]ghapi.Repository, 0, len(repos))
	excluded := 0
	for _, repo := range repos {
		if ShouldIncludeRepo(repo.Name, include, exclude) {
			audited = append(audited, repo)
		} else {
			excluded++
		}
	}
	return audited, excluded
}

// fetchCollaborators lists collaborators for every audited repository,
// at most MaxWorkers repositories in flight at once. Repositories that
// disappear mid-run are skipped with a warning; any other failure
// cancels the remaining work and fails the audit.
func (a *Auditor) fetchCollaborators(ctx context.Context, org string, repos []ghapi.Repository, affiliation string) (map[string][]ghapi.Collaborator, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(a.config.MaxWorkers))
	total := int64(len(repos))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		done     int64
		firstErr error
	)
	result := make(map[string][]ghapi.Collaborator, len(repos))

	for _, repo := range repos {
		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(repo ghapi.Repository) {
			defer wg.Done()
			defer sem.Release(1)

			collaborators, err := a.client.FetchCollaborators(runCtx, org, repo.Name, affiliation)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result[repo.Name] = collaborators
			case ghapi.IsNotFound(err):
				a.logger.Warn("repository disappeared during audit, skipping", "repo", repo.Name)
			default:
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			done++
			a.progress(done, total, fmt.Sprintf("Fetched collaborators for %s", repo.Name))
		}(repo)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// reconcile merges direct collaborator grants with team-derived grants
// into one row per (repository, user) pair. Team grants are dropped for
// repositories absent from the collaborator results: excluded ones, and
// ones skipped because they disappeared mid-run.
func reconcile(repos []ghapi.Repository, collaborators map[string][]ghapi.Collaborator, teams []ghapi.Team) []AccessRow {
	audited := make(map[string]bool, len(repos))
	for _, repo := range repos {
		if _, ok := collaborators[repo.Name]; ok {
			audited[repo.Name] = true
		}
	}

	builder := newAccessBuilder()

	for _, repo := range repos {
		for _, collaborator := range collaborators[repo.Name] {
			builder.addDirect(repo.Name, collaborator.Login, PermissionFromFlags(collaborator.Permissions))
		}
	}

	for _, team := range teams {
		for _, grant := range team.Repos {
			if !audited[grant.Name] {
				continue
			}
			perm := ParsePermission(grant.Permission)
			for _, login := range team.Members {
				builder.addTeam(team.Slug, grant.Name, login, perm)
			}
		}
	}

	return builder.build()
}
