package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Permission is a repository permission level on the GitHub access scale.
// Levels are ordered so that direct comparison reflects privilege:
// NONE < READ < TRIAGE < WRITE < MAINTAIN < ADMIN.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionTriage
	PermissionWrite
	PermissionMaintain
	PermissionAdmin
)

// permissionNames maps levels to their canonical GraphQL enum spelling.
var permissionNames = map[Permission]string{
	PermissionNone:     "NONE",
	PermissionRead:     "READ",
	PermissionTriage:   "TRIAGE",
	PermissionWrite:    "WRITE",
	PermissionMaintain: "MAINTAIN",
	PermissionAdmin:    "ADMIN",
}

// String returns the canonical uppercase name of the permission level.
func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "NONE"
}

// MarshalJSON encodes the permission as its canonical name.
func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a permission from any recognized spelling.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("permission must be a string: %w", err)
	}
	*p = ParsePermission(s)
	return nil
}

// ParsePermission normalizes a permission string to a level.
// It accepts GraphQL enum values in any case (READ, TRIAGE, WRITE,
// MAINTAIN, ADMIN) as well as the REST API role names (pull, push).
// Unrecognized values map to PermissionNone rather than an error so a
// new GitHub permission level degrades gracefully instead of failing a run.
func ParsePermission(s string) Permission {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READ", "PULL":
		return PermissionRead
	case "TRIAGE":
		return PermissionTriage
	case "WRITE", "PUSH":
		return PermissionWrite
	case "MAINTAIN":
		return PermissionMaintain
	case "ADMIN":
		return PermissionAdmin
	default:
		return PermissionNone
	}
}

// flagOrder lists REST collaborator permission flags from most to least
// privileged, with the alias spellings GitHub has used for each level.
var flagOrder = []struct {
	keys  []string
	level Permission
}{
	{[]string{"admin"}, PermissionAdmin},
	{[]string{"maintain"}, PermissionMaintain},
	{[]string{"push", "write"}, PermissionWrite},
	{[]string{"triage"}, PermissionTriage},
	{[]string{"pull", "read"}, PermissionRead},
}

// PermissionFromFlags resolves a REST collaborator permissions object
// (a bundle of boolean flags such as {"admin": false, "push": true,
// "pull": true}) to the highest level that is set. GitHub sets every
// flag at or below the granted level, so checking from the top down
// yields the effective permission.
func PermissionFromFlags(flags map[string]bool) Permission {
	for _, entry := range flagOrder {
		for _, key := range entry.keys {
			if flags[key] {
				return entry.level
			}
		}
	}
	return PermissionNone
}

// permissionFilters maps config filter values to levels. ALL is handled
// separately because it disables filtering entirely.
var permissionFilters = map[string]Permission{
	"READ":     PermissionRead,
	"TRIAGE":   PermissionTriage,
	"WRITE":    PermissionWrite,
	"MAINTAIN": PermissionMaintain,
	"ADMIN":    PermissionAdmin,
}

// ParsePermissionFilter parses a permission filter value from
// configuration. Valid values are ALL (no filtering) and the five
// permission levels, case-insensitively.
func ParsePermissionFilter(s string) (level Permission, all bool, err error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" || v == "ALL" {
		return PermissionNone, true, nil
	}
	if level, ok := permissionFilters[v]; ok {
		return level, false, nil
	}
	return PermissionNone, false, fmt.Errorf("invalid permission filter %q: must be ALL, ADMIN, MAINTAIN, WRITE, TRIAGE, or READ", s)
}
