package ghapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/shurcooL/githubv4"
)

// ResolveOrg fetches the organization's identity and confirms the
// configured credentials can see it.
func (c *Client) ResolveOrg(ctx context.Context, org string) (*Org, error) {
	var query orgQuery
	variables := map[string]interface{}{
		"org": githubv4.String(org),
	}

	if err := c.doGraphQL(ctx, "org.resolve", &query, variables, &query.RateLimit); err != nil {
		return nil, fmt.Errorf("failed to resolve organization %s: %w", org, err)
	}

	return &Org{
		ID:    query.Organization.ID,
		Login: query.Organization.Login,
		Name:  query.Organization.Name,
	}, nil
}

// FetchRepositories fetches all repositories of an organization.
func (c *Client) FetchRepositories(ctx context.Context, org string) ([]Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: DefaultPageSize},
	}

	raw, err := collectPages(DefaultPageSize, func(page int) ([]*github.Repository, *github.Response, error) {
		opts.Page = page
		var (
			repos []*github.Repository
			resp  *github.Response
		)
		err := c.doREST(ctx, "repos.list", func(ctx context.Context) (*github.Response, error) {
			var err error
			repos, resp, err = c.rest.Repositories.ListByOrg(ctx, org, opts)
			return resp, err
		})
		return repos, resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repositories: %w", err)
	}

	repos := make([]Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, Repository{
			Name:       r.GetName(),
			Visibility: r.GetVisibility(),
		})
	}
	return repos, nil
}

// FetchCollaborators fetches the collaborators of one repository,
// restricted by affiliation (all, direct, or outside). Each collaborator
// carries the raw REST permission flag bundle.
func (c *Client) FetchCollaborators(ctx context.Context, org, repo, affiliation string) ([]Collaborator, error) {
	opts := &github.ListCollaboratorsOptions{
		Affiliation: strings.ToLower(affiliation),
		ListOptions: github.ListOptions{PerPage: DefaultPageSize},
	}
	if opts.Affiliation == "" {
		opts.Affiliation = "all"
	}

	raw, err := collectPages(DefaultPageSize, func(page int) ([]*github.User, *github.Response, error) {
		opts.Page = page
		var (
			users []*github.User
			resp  *github.Response
		)
		err := c.doREST(ctx, "collaborators.list", func(ctx context.Context) (*github.Response, error) {
			var err error
			users, resp, err = c.rest.Repositories.ListCollaborators(ctx, org, repo, opts)
			return resp, err
		})
		return users, resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collaborators for %s/%s: %w", org, repo, err)
	}

	collaborators := make([]Collaborator, 0, len(raw))
	for _, u := range raw {
		collaborators = append(collaborators, Collaborator{
			Login:       u.GetLogin(),
			Permissions: u.GetPermissions(),
			RoleName:    u.GetRoleName(),
		})
	}
	return collaborators, nil
}

// FetchTeams fetches all teams of an organization with their member
// logins and repository grants. Repository access reported by the API
// already reflects grants inherited from parent teams.
func (c *Client) FetchTeams(ctx context.Context, org string) ([]Team, error) {
	var teams []Team
	var cursor *githubv4.String

	for {
		var query teamsQuery
		variables := map[string]interface{}{
			"org":    githubv4.String(org),
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, "teams.list", &query, variables, &query.RateLimit); err != nil {
			return nil, fmt.Errorf("failed to fetch teams: %w", err)
		}

		for _, node := range query.Organization.Teams.Nodes {
			team, err := c.assembleTeam(ctx, org, node)
			if err != nil {
				return nil, err
			}
			teams = append(teams, *team)
		}

		if !query.Organization.Teams.PageInfo.HasNextPage {
			break
		}
		cursor = &query.Organization.Teams.PageInfo.EndCursor
	}

	return teams, nil
}

// assembleTeam converts a team node, draining the member and repository
// connections that did not fit in the first page.
func (c *Client) assembleTeam(ctx context.Context, org string, node teamNode) (*Team, error) {
	team := &Team{Slug: node.Slug}

	for _, m := range node.Members.Nodes {
		team.Members = append(team.Members, m.Login)
	}
	if node.Members.PageInfo.HasNextPage {
		rest, err := c.fetchTeamMembers(ctx, org, node.Slug, node.Members.PageInfo.EndCursor)
		if err != nil {
			return nil, err
		}
		team.Members = append(team.Members, rest...)
	}

	for _, edge := range node.Repositories.Edges {
		team.Repos = append(team.Repos, TeamRepo{Name: edge.Node.Name, Permission: edge.Permission})
	}
	if node.Repositories.PageInfo.HasNextPage {
		rest, err := c.fetchTeamRepos(ctx, org, node.Slug, node.Repositories.PageInfo.EndCursor)
		if err != nil {
			return nil, err
		}
		team.Repos = append(team.Repos, rest...)
	}

	return team, nil
}

// fetchTeamMembers drains the remaining member pages of one team.
func (c *Client) fetchTeamMembers(ctx context.Context, org, slug string, after githubv4.String) ([]string, error) {
	var members []string
	cursor := &after

	for {
		var query teamMembersQuery
		variables := map[string]interface{}{
			"org":    githubv4.String(org),
			"slug":   githubv4.String(slug),
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, "team.members", &query, variables, &query.RateLimit); err != nil {
			return nil, fmt.Errorf("failed to fetch members of team %s: %w", slug, err)
		}

		conn := query.Organization.Team.Members
		for _, n := range conn.Nodes {
			members = append(members, n.Login)
		}

		if !conn.PageInfo.HasNextPage {
			return members, nil
		}
		cursor = &conn.PageInfo.EndCursor
	}
}

// fetchTeamRepos drains the remaining repository pages of one team.
func (c *Client) fetchTeamRepos(ctx context.Context, org, slug string, after githubv4.String) ([]TeamRepo, error) {
	var repos []TeamRepo
	cursor := &after

	for {
		var query teamReposQuery
		variables := map[string]interface{}{
			"org":    githubv4.String(org),
			"slug":   githubv4.String(slug),
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, "team.repositories", &query, variables, &query.RateLimit); err != nil {
			return nil, fmt.Errorf("failed to fetch repositories of team %s: %w", slug, err)
		}

		conn := query.Organization.Team.Repositories
		for _, edge := range conn.Edges {
			repos = append(repos, TeamRepo{Name: edge.Node.Name, Permission: edge.Permission})
		}

		if !conn.PageInfo.HasNextPage {
			return repos, nil
		}
		cursor = &conn.PageInfo.EndCursor
	}
}

// FetchMembers fetches all organization members with their role and
// display name.
func (c *Client) FetchMembers(ctx context.Context, org string) ([]Member, error) {
	var members []Member
	var cursor *githubv4.String

	for {
		var query membersQuery
		variables := map[string]interface{}{
			"org":    githubv4.String(org),
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, "members.list", &query, variables, &query.RateLimit); err != nil {
			return nil, fmt.Errorf("failed to fetch organization members: %w", err)
		}

		for _, edge := range query.Organization.MembersWithRole.Edges {
			members = append(members, Member{
				Login: edge.Node.Login,
				Name:  edge.Node.Name,
				Role:  edge.Role,
			})
		}

		if !query.Organization.MembersWithRole.PageInfo.HasNextPage {
			break
		}
		cursor = &query.Organization.MembersWithRole.PageInfo.EndCursor
	}

	return members, nil
}

// FetchSSOIdentities fetches the SAML identity mappings of the
// organization. When no org-level provider exists, or the credentials
// cannot read identities (an enterprise-level provider supersedes the
// org one), it returns an empty set and logs the degradation instead of
// failing the run.
func (c *Client) FetchSSOIdentities(ctx context.Context, org string) ([]SSOIdentity, error) {
	var identities []SSOIdentity
	var cursor *githubv4.String

	for {
		var query ssoQuery
		variables := map[string]interface{}{
			"org":    githubv4.String(org),
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, "sso.identities", &query, variables, &query.RateLimit); err != nil {
			if IsSSOUnavailable(err) {
				c.logger.Warn("SAML identities unavailable, SSO emails will be empty",
					"org", org, "error", err)
				return nil, nil
			}
			return nil, fmt.Errorf("failed to fetch SAML identities: %w", err)
		}

		provider := query.Organization.SamlIdentityProvider
		if provider == nil {
			c.logger.Info("organization has no SAML identity provider, SSO emails will be empty", "org", org)
			return nil, nil
		}

		for _, edge := range provider.ExternalIdentities.Edges {
			// Identities without a linked user cannot be attributed.
			if edge.Node.User.Login == "" {
				continue
			}
			identities = append(identities, SSOIdentity{
				Login:  edge.Node.User.Login,
				NameID: edge.Node.SamlIdentity.NameID,
			})
		}

		if !provider.ExternalIdentities.PageInfo.HasNextPage {
			break
		}
		cursor = &provider.ExternalIdentities.PageInfo.EndCursor
	}

	return identities, nil
}

// FetchVerifiedEmails fetches a user's email addresses on domains the
// organization has verified. Most users have zero or one.
func (c *Client) FetchVerifiedEmails(ctx context.Context, org, login string) ([]string, error) {
	var query verifiedEmailsQuery
	variables := map[string]interface{}{
		"org":   githubv4.String(org),
		"login": githubv4.String(login),
	}

	if err := c.doGraphQL(ctx, "user.verified_emails", &query, variables, &query.RateLimit); err != nil {
		return nil, fmt.Errorf("failed to fetch verified emails for %s: %w", login, err)
	}

	return query.User.OrganizationVerifiedDomainEmails, nil
}

// FetchUserName fetches a user's public display name.
func (c *Client) FetchUserName(ctx context.Context, login string) (string, error) {
	var user *github.User
	err := c.doREST(ctx, "users.get", func(ctx context.Context) (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		user, resp, err = c.rest.Users.Get(ctx, login)
		return resp, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile for %s: %w", login, err)
	}
	return user.GetName(), nil
}
