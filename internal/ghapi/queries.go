package ghapi

import "github.com/shurcooL/githubv4"

// pageInfo carries relay-style cursor pagination state.
type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

// rateLimitBlock mirrors the rateLimit field embedded in every query so
// each response reports the remaining GraphQL point budget.
type rateLimitBlock struct {
	Limit     int
	Cost      int
	Remaining int
	ResetAt   githubv4.DateTime
}

// orgQuery resolves the organization and verifies it is reachable with
// the configured credentials.
type orgQuery struct {
	Organization struct {
		ID    string `graphql:"id"`
		Login string
		Name  string
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// membersQuery fetches organization members with their role and display
// name.
type membersQuery struct {
	Organization struct {
		MembersWithRole struct {
			Edges []struct {
				Role string
				Node struct {
					Login string
					Name  string
				}
			}
			PageInfo pageInfo
		} `graphql:"membersWithRole(first: 100, after: $cursor)"`
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// teamNode is one team with the first page of its members and repository
// grants. Teams whose connections exceed one page are drained with the
// follow-up queries below.
type teamNode struct {
	Slug    string
	Members struct {
		Nodes []struct {
			Login string
		}
		PageInfo pageInfo
	} `graphql:"members(first: 100)"`
	Repositories struct {
		Edges []struct {
			Permission string
			Node       struct {
				Name string
			}
		}
		PageInfo pageInfo
	} `graphql:"repositories(first: 100)"`
}

// teamsQuery pages through organization teams. The page is smaller than
// elsewhere because each team carries two nested connections.
type teamsQuery struct {
	Organization struct {
		Teams struct {
			Nodes    []teamNode
			PageInfo pageInfo
		} `graphql:"teams(first: 50, after: $cursor)"`
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// teamMembersQuery drains the member connection of a single team.
type teamMembersQuery struct {
	Organization struct {
		Team struct {
			Members struct {
				Nodes []struct {
					Login string
				}
				PageInfo pageInfo
			} `graphql:"members(first: 100, after: $cursor)"`
		} `graphql:"team(slug: $slug)"`
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// teamReposQuery drains the repository connection of a single team.
type teamReposQuery struct {
	Organization struct {
		Team struct {
			Repositories struct {
				Edges []struct {
					Permission string
					Node       struct {
						Name string
					}
				}
				PageInfo pageInfo
			} `graphql:"repositories(first: 100, after: $cursor)"`
		} `graphql:"team(slug: $slug)"`
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// samlProvider is the organization's SAML identity provider. The field
// is nil when SAML is configured at the enterprise level or not at all.
type samlProvider struct {
	ExternalIdentities struct {
		Edges []struct {
			Node struct {
				User struct {
					Login string
				}
				SamlIdentity struct {
					NameID string `graphql:"nameId"`
				}
			}
		}
		PageInfo pageInfo
	} `graphql:"externalIdentities(first: 100, after: $cursor)"`
}

// ssoQuery fetches the SAML identities linked to organization members.
type ssoQuery struct {
	Organization struct {
		SamlIdentityProvider *samlProvider
	} `graphql:"organization(login: $org)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}

// verifiedEmailsQuery fetches a user's email addresses on domains the
// organization has verified.
type verifiedEmailsQuery struct {
	User struct {
		OrganizationVerifiedDomainEmails []string `graphql:"organizationVerifiedDomainEmails(login: $org)"`
	} `graphql:"user(login: $login)"`
	RateLimit rateLimitBlock `graphql:"rateLimit"`
}
