package audit

// rowKey identifies one (repository, user) access row.
type rowKey struct {
	repo  string
	login string
}

// accessBuilder merges direct collaborator grants and team-derived
// grants into one row per (repository, user) pair.
//
// Merge rules:
//   - A grant above the recorded permission replaces it. If the new
//     grant came from a team, provenance resets to that team alone.
//   - A team grant equal to the recorded permission appends its slug to
//     the row's provenance, so every team granting at the effective
//     level is reported.
//   - A grant below the recorded permission never lowers it.
type accessBuilder struct {
	rows map[rowKey]*AccessRow
}

// newAccessBuilder creates an empty builder.
func newAccessBuilder() *accessBuilder {
	return &accessBuilder{rows: make(map[rowKey]*AccessRow)}
}

// addDirect records a direct collaborator grant.
func (b *accessBuilder) addDirect(repo, login string, perm Permission) {
	if perm == PermissionNone {
		return
	}
	row := b.row(repo, login)
	if perm > row.Permission {
		row.Permission = perm
		row.ViaTeams = nil
	}
}

// addTeam records a grant a user holds through a team's repository access.
func (b *accessBuilder) addTeam(team, repo, login string, perm Permission) {
	if perm == PermissionNone {
		return
	}
	row := b.row(repo, login)
	switch {
	case perm > row.Permission:
		row.Permission = perm
		row.ViaTeams = []string{team}
	case perm == row.Permission:
		row.appendTeam(team)
	}
}

// row returns the row for the given key, creating it if needed.
func (b *accessBuilder) row(repo, login string) *AccessRow {
	key := rowKey{repo: repo, login: login}
	if row, ok := b.rows[key]; ok {
		return row
	}
	row := &AccessRow{Repository: repo, Login: login}
	b.rows[key] = row
	return row
}

// appendTeam adds a team slug to the row's provenance, skipping duplicates.
func (r *AccessRow) appendTeam(team string) {
	for _, t := range r.ViaTeams {
		if t == team {
			return
		}
	}
	r.ViaTeams = append(r.ViaTeams, team)
}

// build returns the merged rows sorted by repository and login.
func (b *accessBuilder) build() []AccessRow {
	rows := make([]AccessRow, 0, len(b.rows))
	for _, row := range b.rows {
		rows = append(rows, *row)
	}
	sortRows(rows)
	return rows
}
