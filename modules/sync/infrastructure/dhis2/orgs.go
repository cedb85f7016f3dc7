package dhis2

import (
	"context"
	"net/url"

	orgtypes "github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

const orgsAndUsersFields = "id,displayName,level,parent[id]," +
	"users[id,displayName,userRoles[name],userCredentials[userRoles[name]]]"

type roleRef struct {
	Name string `json:"name"`
}

type remoteUser struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	UserRoles       []roleRef `json:"userRoles"`
	UserCredentials *struct {
		UserRoles []roleRef `json:"userRoles"`
	} `json:"userCredentials"`
}

// roles merges the credential roles of older servers with the user-level
// roles of newer ones.
func (u remoteUser) roles() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(refs []roleRef) {
		for _, r := range refs {
			if r.Name == "" {
				continue
			}
			if _, ok := seen[r.Name]; ok {
				continue
			}
			seen[r.Name] = struct{}{}
			out = append(out, r.Name)
		}
	}
	if u.UserCredentials != nil {
		add(u.UserCredentials.UserRoles)
	}
	add(u.UserRoles)
	return out
}

type remoteOrgUnit struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Level       int    `json:"level"`
	Parent      *struct {
		ID string `json:"id"`
	} `json:"parent"`
	Users []remoteUser `json:"users"`
}

type orgUnitsEnvelope struct {
	OrganisationUnits []remoteOrgUnit `json:"organisationUnits"`
}

// FetchOrgsAndUsers lists every org unit the account can see together with
// the users assigned to it.
func (c *Client) FetchOrgsAndUsers(ctx context.Context) ([]orgtypes.OrgRecord, error) {
	q := url.Values{}
	q.Set("paging", "false")
	q.Set("fields", orgsAndUsersFields)

	var env orgUnitsEnvelope
	if _, err := c.getJSON(ctx, "organisation_units", "organisationUnits", q, &env); err != nil {
		return nil, err
	}

	out := make([]orgtypes.OrgRecord, 0, len(env.OrganisationUnits))
	for _, ou := range env.OrganisationUnits {
		rec := orgtypes.OrgRecord{
			ID:    ou.ID,
			Label: ou.DisplayName,
			Level: ou.Level,
		}
		if ou.Parent != nil {
			rec.ParentID = ou.Parent.ID
		}
		for _, u := range ou.Users {
			rec.Users = append(rec.Users, orgtypes.UserRecord{
				ID:          u.ID,
				DisplayName: u.DisplayName,
				Roles:       u.roles(),
			})
		}
		out = append(out, rec)
	}
	return out, nil
}
