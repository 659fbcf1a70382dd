package audit

import (
	"context"

	"github.com/JHAAdmins/gh-collab-audit/internal/ghapi"
)

// directory indexes the organization state used to enrich access rows.
type directory struct {
	members    map[string]ghapi.Member // login -> member record
	ssoEmails  map[string]string       // login -> SAML NameID
	visibility map[string]string       // repo -> visibility
}

func newDirectory(members []ghapi.Member, identities []ghapi.SSOIdentity, repos []ghapi.Repository) *directory {
	d := &directory{
		members:    make(map[string]ghapi.Member, len(members)),
		ssoEmails:  make(map[string]string, len(identities)),
		visibility: make(map[string]string, len(repos)),
	}
	for _, m := range members {
		d.members[m.Login] = m
	}
	for _, id := range identities {
		if id.NameID != "" {
			d.ssoEmails[id.Login] = id.NameID
		}
	}
	for _, r := range repos {
		d.visibility[r.Name] = r.Visibility
	}
	return d
}

// enrich fills identity and repository context on each row. Users with
// no organization membership are marked as outside collaborators; their
// SSO email stays empty because SAML identities only exist for members.
func (d *directory) enrich(rows []AccessRow) {
	for i := range rows {
		row := &rows[i]
		row.Visibility = d.visibility[row.Repository]
		row.SSOEmail = d.ssoEmails[row.Login]
		if member, ok := d.members[row.Login]; ok {
			row.Name = member.Name
			row.OrgRole = member.Role
			if row.OrgRole == "" {
				row.OrgRole = OrgRoleMember
			}
		} else {
			row.OrgRole = OrgRoleOutside
		}
	}
}

// enrichVerifiedEmails looks up organization-verified emails for every
// distinct user on the report. Individual lookup failures leave the
// field empty; only caller cancellation aborts the pass.
func (a *Auditor) enrichVerifiedEmails(ctx context.Context, org string, rows []AccessRow) error {
	logins := uniqueLogins(rows)
	emails := make(map[string]string, len(logins))
	total := int64(len(logins))

	for i, login := range logins {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.progress(int64(i+1), total, "Looking up verified emails")

		addrs, err := a.client.FetchVerifiedEmails(ctx, org, login)
		if err != nil {
			a.logger.Warn("verified email lookup failed", "login", login, "error", err)
			continue
		}
		if len(addrs) > 0 {
			emails[login] = addrs[0]
		}
	}

	for i := range rows {
		rows[i].VerifiedEmail = emails[rows[i].Login]
	}
	return nil
}

// enrichNames fills display names the member directory did not supply,
// one profile call per distinct user. Failed lookups are cached so a
// user appearing on many rows is only tried once.
func (a *Auditor) enrichNames(ctx context.Context, rows []AccessRow) error {
	names := make(map[string]string)

	for i := range rows {
		row := &rows[i]
		if row.Name != "" {
			continue
		}
		name, ok := names[row.Login]
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			fetched, err := a.client.FetchUserName(ctx, row.Login)
			if err != nil {
				a.logger.Warn("profile lookup failed", "login", row.Login, "error", err)
			}
			names[row.Login] = fetched
			name = fetched
		}
		row.Name = name
	}
	return nil
}

// uniqueLogins returns each login on the report once, in row order.
func uniqueLogins(rows []AccessRow) []string {
	seen := make(map[string]bool, len(rows))
	var logins []string
	for _, row := range rows {
		if !seen[row.Login] {
			seen[row.Login] = true
			logins = append(logins, row.Login)
		}
	}
	return logins
}
