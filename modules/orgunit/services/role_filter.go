package services

import (
	"strings"

	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

// DefaultFieldWorkerRoles are the role names whose holders can be picked as the
// field worker of a union.
var DefaultFieldWorkerRoles = []string{
	"FWA: Family Welfare Assistant",
	"Field Worker Program Access (no authorities)",
	"FWV Test",
}

// RoleSet is an allow-list of role names, matched exactly.
type RoleSet map[string]struct{}

func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
	return s
}

func (s RoleSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

func (s RoleSet) Matches(u types.UserRecord) bool {
	for _, r := range u.Roles {
		if s.Contains(r) {
			return true
		}
	}
	return false
}

// FilterByRole keeps users holding at least one allowed role, in input order.
func FilterByRole(users []types.UserRecord, allowed RoleSet) []types.DropdownUser {
	out := make([]types.DropdownUser, 0, len(users))
	for _, u := range users {
		if !allowed.Matches(u) {
			continue
		}
		out = append(out, types.DropdownUser{ID: u.ID, DisplayName: u.DisplayName})
	}
	return out
}
