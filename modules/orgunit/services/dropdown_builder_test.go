package services

import (
	"errors"
	"testing"

	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

func fwa(id string, name string) types.UserRecord {
	return types.UserRecord{ID: id, DisplayName: name, Roles: []string{"FWA: Family Welfare Assistant"}}
}

func TestBuildDropdown(t *testing.T) {
	recs := []types.OrgRecord{
		{ID: "U1", Label: "Union One", Level: 5, Users: []types.UserRecord{fwa("u-a", "A")}},
		{ID: "U2", Label: "Union Two", Level: 5},
		{ID: "S1", Label: "Sub", Level: 6, ParentID: "U1", Users: []types.UserRecord{
			fwa("u-b", "B"),
			{ID: "u-x", DisplayName: "Admin", Roles: []string{"Superuser"}},
		}},
		{ID: "W1", Label: "Ward", Level: 7, ParentID: "s1", Users: []types.UserRecord{fwa("u-a", "A"), fwa("u-c", "C")}},
		{ID: "W9", Label: "Orphan", Level: 7, ParentID: "S9", Users: []types.UserRecord{fwa("u-z", "Z")}},
	}
	index := ResolveHierarchy(recs)
	model, err := BuildDropdown(recs, index, NewRoleUserFilter(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Orgs) != 2 || model.Orgs["U1"] != "Union One" || model.Orgs["U2"] != "Union Two" {
		t.Fatalf("orgs=%v", model.Orgs)
	}
	if _, ok := model.Orgs["S1"]; ok {
		t.Fatal("sub unit must not get a label")
	}
	users := model.UsersFor("U1")
	if len(users) != 3 || users[0].ID != "u-a" || users[1].ID != "u-b" || users[2].ID != "u-c" {
		t.Fatalf("users=%+v", users)
	}
	if _, ok := model.Users["U2"]; ok {
		t.Fatal("union without field workers must not get a user list")
	}
	for org, list := range model.Users {
		for _, u := range list {
			if u.ID == "u-z" || u.ID == "u-x" {
				t.Fatalf("unexpected user %s under %s", u.ID, org)
			}
		}
	}
}

func TestBuildDropdown_Eligibility(t *testing.T) {
	e, err := NewUserEligibility(`user.id != "u-b"`)
	if err != nil {
		t.Fatal(err)
	}
	recs := []types.OrgRecord{
		{ID: "U1", Label: "Union One", Level: 5, Users: []types.UserRecord{fwa("u-a", "A"), fwa("u-b", "B")}},
	}
	model, err := BuildDropdown(recs, ResolveHierarchy(recs), NewRoleUserFilter(nil, e))
	if err != nil {
		t.Fatal(err)
	}
	if got := model.UsersFor("U1"); len(got) != 1 || got[0].ID != "u-a" {
		t.Fatalf("users=%+v", got)
	}
}

func TestBuildDropdown_FilterError(t *testing.T) {
	recs := []types.OrgRecord{{ID: "U1", Level: 5, Users: []types.UserRecord{fwa("u-a", "A")}}}
	boom := errors.New("boom")
	_, err := BuildDropdown(recs, ResolveHierarchy(recs), UserFilterFunc(func([]types.UserRecord) ([]types.DropdownUser, error) {
		return nil, boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestBuildDropdown_Empty(t *testing.T) {
	model, err := BuildDropdown(nil, ResolveHierarchy(nil), NewRoleUserFilter(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Orgs) != 0 || len(model.Users) != 0 {
		t.Fatalf("model=%+v", model)
	}
}
