package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/icddrb/eregistry/internal/routing"
	orgports "github.com/icddrb/eregistry/modules/orgunit/domain/ports"
	orgtypes "github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

type orgUsersResponse struct {
	OrgID string                  `json:"org_id"`
	Name  string                  `json:"name"`
	Users []orgtypes.DropdownUser `json:"users"`
}

// handleDropdownAPI returns the whole dropdown, or one union's field workers
// when ?org= is set.
func handleDropdownAPI(w http.ResponseWriter, r *http.Request, store DropdownReader) {
	model, err := store.GetDropdown(r.Context())
	if err != nil {
		if errors.Is(err, orgports.ErrDropdownNotFound) {
			routing.WriteError(w, r, http.StatusNotFound, "dropdown_not_found", "union dropdown has not been synced yet")
			return
		}
		log.Printf("dropdown read error: err=%v", err)
		routing.WriteError(w, r, http.StatusInternalServerError, "dropdown_read_failed", "dropdown read failed")
		return
	}

	orgID := strings.TrimSpace(r.URL.Query().Get("org"))
	if orgID == "" {
		routing.WriteJSON(w, http.StatusOK, model)
		return
	}
	name, ok := model.Orgs[orgID]
	if !ok {
		routing.WriteError(w, r, http.StatusNotFound, "org_not_found", "org unit is not in the union dropdown")
		return
	}
	users := model.UsersFor(orgID)
	if users == nil {
		users = []orgtypes.DropdownUser{}
	}
	routing.WriteJSON(w, http.StatusOK, orgUsersResponse{OrgID: orgID, Name: name, Users: users})
}
