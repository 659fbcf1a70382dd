package audit

import (
	"reflect"
	"testing"

	"github.com/JHAAdmins/gh-collab-audit/internal/ghapi"
)

func TestAccessBuilder_DirectOnly(t *testing.T) {
	b := newAccessBuilder()
	b.addDirect("api", "amber", PermissionWrite)

	rows := b.build()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Permission != PermissionWrite {
		t.Errorf("Permission = %v, want %v", row.Permission, PermissionWrite)
	}
	if row.ViaTeams != nil {
		t.Errorf("ViaTeams = %v, want nil for a direct grant", row.ViaTeams)
	}
}

func TestAccessBuilder_TeamRaisesPermission(t *testing.T) {
	b := newAccessBuilder()
	b.addDirect("api", "amber", PermissionRead)
	b.addTeam("platform", "api", "amber", PermissionWrite)

	rows := b.build()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Permission != PermissionWrite {
		t.Errorf("Permission = %v, want %v", row.Permission, PermissionWrite)
	}
	if !reflect.DeepEqual(row.ViaTeams, []string{"platform"}) {
		t.Errorf("ViaTeams = %v, want [platform]", row.ViaTeams)
	}
}

func TestAccessBuilder_LowerGrantNeverDowngrades(t *testing.T) {
	b := newAccessBuilder()
	b.addDirect("api", "amber", PermissionAdmin)
	b.addTeam("platform", "api", "amber", PermissionRead)
	b.addDirect("api", "amber", PermissionWrite)

	rows := b.build()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Permission != PermissionAdmin {
		t.Errorf("Permission = %v, want %v", row.Permission, PermissionAdmin)
	}
	// Lower team grants contribute nothing to provenance either.
	if row.ViaTeams != nil {
		t.Errorf("ViaTeams = %v, want nil", row.ViaTeams)
	}
}

func TestAccessBuilder_EqualTeamsAllReported(t *testing.T) {
	b := newAccessBuilder()
	b.addTeam("platform", "api", "amber", PermissionWrite)
	b.addTeam("backend", "api", "amber", PermissionWrite)
	b.addTeam("platform", "api", "amber", PermissionWrite) // duplicate grant

	rows := b.build()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if !reflect.DeepEqual(row.ViaTeams, []string{"platform", "backend"}) {
		t.Errorf("ViaTeams = %v, want [platform backend]", row.ViaTeams)
	}
}

func TestAccessBuilder_HigherTeamResetsProvenance(t *testing.T) {
	b := newAccessBuilder()
	b.addTeam("readers", "api", "amber", PermissionRead)
	b.addTeam("writers", "api", "amber", PermissionWrite)

	rows := b.build()
	row := rows[0]
	if row.Permission != PermissionWrite {
		t.Errorf("Permission = %v, want %v", row.Permission, PermissionWrite)
	}
	// Only teams granting at the effective level count.
	if !reflect.DeepEqual(row.ViaTeams, []string{"writers"}) {
		t.Errorf("ViaTeams = %v, want [writers]", row.ViaTeams)
	}
}

func TestAccessBuilder_DirectWinClearsTeams(t *testing.T) {
	b := newAccessBuilder()
	b.addTeam("platform", "api", "amber", PermissionWrite)
	b.addDirect("api", "amber", PermissionAdmin)

	rows := b.build()
	row := rows[0]
	if row.Permission != PermissionAdmin {
		t.Errorf("Permission = %v, want %v", row.Permission, PermissionAdmin)
	}
	if row.ViaTeams != nil {
		t.Errorf("ViaTeams = %v, want nil after a direct grant won", row.ViaTeams)
	}
}

func TestAccessBuilder_NoneIgnored(t *testing.T) {
	b := newAccessBuilder()
	b.addDirect("api", "amber", PermissionNone)
	b.addTeam("platform", "api", "amber", PermissionNone)

	if rows := b.build(); len(rows) != 0 {
		t.Errorf("got %d rows, want 0 for NONE grants", len(rows))
	}
}

func TestAccessBuilder_SeparateRowsPerRepoAndUser(t *testing.T) {
	b := newAccessBuilder()
	b.addDirect("api", "amber", PermissionWrite)
	b.addDirect("api", "blake", PermissionRead)
	b.addDirect("web", "amber", PermissionAdmin)

	rows := b.build()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// build() sorts by repository, then login.
	wantOrder := []rowKey{
		{"api", "amber"},
		{"api", "blake"},
		{"web", "amber"},
	}
	for i, want := range wantOrder {
		if rows[i].Repository != want.repo || rows[i].Login != want.login {
			t.Errorf("rows[%d] = %s/%s, want %s/%s",
				i, rows[i].Repository, rows[i].Login, want.repo, want.login)
		}
	}
}

func TestAccessBuilder_OrderIndependent(t *testing.T) {
	// The same grants applied in any order must produce the same rows.
	type grant struct {
		team  string // empty means direct
		repo  string
		login string
		perm  Permission
	}
	grants := []grant{
		{"", "api", "amber", PermissionRead},
		{"platform", "api", "amber", PermissionWrite},
		{"backend", "api", "amber", PermissionWrite},
		{"", "api", "blake", PermissionAdmin},
		{"platform", "api", "blake", PermissionWrite},
	}

	apply := func(order []int) []AccessRow {
		b := newAccessBuilder()
		for _, i := range order {
			g := grants[i]
			if g.team == "" {
				b.addDirect(g.repo, g.login, g.perm)
			} else {
				b.addTeam(g.team, g.repo, g.login, g.perm)
			}
		}
		return b.build()
	}

	forward := apply([]int{0, 1, 2, 3, 4})
	reversed := apply([]int{4, 3, 2, 1, 0})

	if len(forward) != 2 {
		t.Fatalf("got %d rows, want 2", len(forward))
	}
	if forward[0].Permission != PermissionWrite {
		t.Errorf("amber Permission = %v, want %v", forward[0].Permission, PermissionWrite)
	}
	if forward[1].Permission != PermissionAdmin {
		t.Errorf("blake Permission = %v, want %v", forward[1].Permission, PermissionAdmin)
	}

	// Provenance sets must agree regardless of application order, though
	// slug order inside a row may differ.
	if len(forward[0].ViaTeams) != 2 || len(reversed[0].ViaTeams) != 2 {
		t.Errorf("amber ViaTeams = %v / %v, want two teams in both", forward[0].ViaTeams, reversed[0].ViaTeams)
	}
	if forward[1].ViaTeams != nil || reversed[1].ViaTeams != nil {
		t.Errorf("blake ViaTeams = %v / %v, want nil in both", forward[1].ViaTeams, reversed[1].ViaTeams)
	}
}

func TestReconcile_MergesDirectAndTeamGrants(t *testing.T) {
	repos := []ghapi.Repository{
		{Name: "api", Visibility: "private"},
		{Name: "web", Visibility: "public"},
	}
	collaborators := map[string][]ghapi.Collaborator{
		"api": {
			{Login: "amber", Permissions: map[string]bool{"pull": true}},
			{Login: "blake", Permissions: map[string]bool{"admin": true, "push": true, "pull": true}},
		},
		"web": {
			{Login: "amber", Permissions: map[string]bool{"push": true, "pull": true}},
		},
	}
	teams := []ghapi.Team{
		{
			Slug:    "platform",
			Members: []string{"amber", "carol"},
			Repos:   []ghapi.TeamRepo{{Name: "api", Permission: "WRITE"}},
		},
	}

	rows := reconcile(repos, collaborators, teams)

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}

	byKey := make(map[rowKey]AccessRow, len(rows))
	for _, row := range rows {
		byKey[rowKey{row.Repository, row.Login}] = row
	}

	amber := byKey[rowKey{"api", "amber"}]
	if amber.Permission != PermissionWrite {
		t.Errorf("api/amber Permission = %v, want %v", amber.Permission, PermissionWrite)
	}
	if !reflect.DeepEqual(amber.ViaTeams, []string{"platform"}) {
		t.Errorf("api/amber ViaTeams = %v, want [platform]", amber.ViaTeams)
	}

	blake := byKey[rowKey{"api", "blake"}]
	if blake.Permission != PermissionAdmin {
		t.Errorf("api/blake Permission = %v, want %v", blake.Permission, PermissionAdmin)
	}

	// carol only has access through the team.
	carol := byKey[rowKey{"api", "carol"}]
	if carol.Permission != PermissionWrite {
		t.Errorf("api/carol Permission = %v, want %v", carol.Permission, PermissionWrite)
	}
	if !reflect.DeepEqual(carol.ViaTeams, []string{"platform"}) {
		t.Errorf("api/carol ViaTeams = %v, want [platform]", carol.ViaTeams)
	}

	web := byKey[rowKey{"web", "amber"}]
	if web.Permission != PermissionWrite {
		t.Errorf("web/amber Permission = %v, want %v", web.Permission, PermissionWrite)
	}
	if web.ViaTeams != nil {
		t.Errorf("web/amber ViaTeams = %v, want nil", web.ViaTeams)
	}
}

func TestReconcile_DropsGrantsForUnauditedRepos(t *testing.T) {
	repos := []ghapi.Repository{{Name: "api"}}
	collaborators := map[string][]ghapi.Collaborator{"api": {}}
	teams := []ghapi.Team{
		{
			Slug:    "platform",
			Members: []string{"amber"},
			Repos: []ghapi.TeamRepo{
				{Name: "api", Permission: "READ"},
				{Name: "excluded-archive", Permission: "ADMIN"},
			},
		},
	}

	rows := reconcile(repos, collaborators, teams)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Repository != "api" {
		t.Errorf("Repository = %q, want %q", rows[0].Repository, "api")
	}
}

func TestReconcile_DropsGrantsForSkippedRepos(t *testing.T) {
	// A repository that disappeared mid-run has no collaborator result.
	// Team data fetched before the deletion must not resurrect it.
	repos := []ghapi.Repository{{Name: "api"}, {Name: "deleted"}}
	collaborators := map[string][]ghapi.Collaborator{
		"api": {{Login: "amber", Permissions: map[string]bool{"pull": true}}},
	}
	teams := []ghapi.Team{
		{Slug: "platform", Members: []string{"amber"}, Repos: []ghapi.TeamRepo{{Name: "deleted", Permission: "ADMIN"}}},
	}

	rows := reconcile(repos, collaborators, teams)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Repository != "api" {
		t.Errorf("Repository = %q, want %q", rows[0].Repository, "api")
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	repos := []ghapi.Repository{{Name: "web"}, {Name: "api"}}
	collaborators := map[string][]ghapi.Collaborator{
		"api": {
			{Login: "zoe", Permissions: map[string]bool{"push": true}},
			{Login: "amber", Permissions: map[string]bool{"pull": true}},
		},
		"web": {
			{Login: "blake", Permissions: map[string]bool{"admin": true}},
		},
	}
	teams := []ghapi.Team{
		{Slug: "b-team", Members: []string{"amber"}, Repos: []ghapi.TeamRepo{{Name: "api", Permission: "READ"}}},
		{Slug: "a-team", Members: []string{"amber"}, Repos: []ghapi.TeamRepo{{Name: "api", Permission: "READ"}}},
	}

	first := reconcile(repos, collaborators, teams)
	second := reconcile(repos, collaborators, teams)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconcile not deterministic:\n first = %v\nsecond = %v", first, second)
	}
}
