package services

import (
	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

// UserFilter narrows the users of one org record to dropdown entries.
type UserFilter interface {
	Filter(users []types.UserRecord) ([]types.DropdownUser, error)
}

type UserFilterFunc func(users []types.UserRecord) ([]types.DropdownUser, error)

func (f UserFilterFunc) Filter(users []types.UserRecord) ([]types.DropdownUser, error) {
	return f(users)
}

// RoleUserFilter applies FilterByRole and, when set, an eligibility predicate.
type RoleUserFilter struct {
	Roles       RoleSet
	Eligibility *UserEligibility
}

func NewRoleUserFilter(roles []string, eligibility *UserEligibility) RoleUserFilter {
	if len(roles) == 0 {
		roles = DefaultFieldWorkerRoles
	}
	return RoleUserFilter{Roles: NewRoleSet(roles...), Eligibility: eligibility}
}

func (f RoleUserFilter) Filter(users []types.UserRecord) ([]types.DropdownUser, error) {
	if f.Eligibility == nil {
		return FilterByRole(users, f.Roles), nil
	}
	kept := make([]types.UserRecord, 0, len(users))
	for _, u := range users {
		if !f.Roles.Matches(u) {
			continue
		}
		ok, err := f.Eligibility.Eligible(u)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, u)
		}
	}
	return FilterByRole(kept, f.Roles), nil
}

// BuildDropdown folds the resolved hierarchy into the persisted lookup: every
// root org gets its label, and the filtered users of every record in its bucket.
func BuildDropdown(records []types.OrgRecord, index types.HierarchyIndex, filter UserFilter) (types.DropdownModel, error) {
	model := types.NewDropdownModel()
	for _, root := range index.Roots() {
		bucket, _ := index.Bucket(root)
		for _, member := range bucket {
			if len(member.Users) == 0 {
				continue
			}
			users, err := filter.Filter(member.Users)
			if err != nil {
				return types.DropdownModel{}, err
			}
			model.AddUsers(root, users)
		}
	}
	for _, rec := range records {
		if rec.Level == index.RootLevel() {
			model.AddOrg(rec.ID, rec.Label)
		}
	}
	return model, nil
}
