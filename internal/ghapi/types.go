package ghapi

// Org identifies the audited organization.
type Org struct {
	ID    string
	Login string
	Name  string
}

// Repository is an organization repository in scope for an audit.
type Repository struct {
	Name       string
	Visibility string // public, private, internal
}

// Collaborator is a repository collaborator as returned by the REST
// collaborator listing. Permissions is the raw flag bundle; callers
// normalize it to a single level.
type Collaborator struct {
	Login       string
	Permissions map[string]bool
	RoleName    string
}

// Member is an organization member with their role and display name.
type Member struct {
	Login string
	Name  string
	Role  string // ADMIN or MEMBER
}

// TeamRepo is a repository a team can access, with the team's permission
// on it.
type TeamRepo struct {
	Name       string
	Permission string
}

// Team is an organization team with its member logins and repository
// grants. Repository access reported here already reflects grants the
// team inherits from parent teams.
type Team struct {
	Slug    string
	Members []string
	Repos   []TeamRepo
}

// SSOIdentity links an organization login to its SAML identity.
// NameID is typically the SSO email address.
type SSOIdentity struct {
	Login  string
	NameID string
}
