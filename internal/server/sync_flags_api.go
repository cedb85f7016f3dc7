package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/icddrb/eregistry/internal/routing"
	"github.com/icddrb/eregistry/pkg/httperr"
	"github.com/icddrb/eregistry/pkg/loadflag"
)

type flagItem struct {
	Resource string `json:"resource"`
	Key      string `json:"key"`
	Enabled  bool   `json:"enabled"`
}

type flagsResponse struct {
	Flags []flagItem `json:"flags"`
}

type setFlagRequest struct {
	Resource string `json:"resource"`
	Enabled  *bool  `json:"enabled"`
}

func handleFlagsListAPI(w http.ResponseWriter, r *http.Request, store FlagStore) {
	snapshot, err := store.Snapshot(r.Context())
	if err != nil {
		log.Printf("flags read error: err=%v", err)
		routing.WriteError(w, r, http.StatusInternalServerError, "flags_read_failed", "flags read failed")
		return
	}
	resp := flagsResponse{Flags: make([]flagItem, 0, len(snapshot))}
	for _, rt := range loadflag.AllResourceTypes() {
		resp.Flags = append(resp.Flags, flagItem{Resource: string(rt), Key: loadflag.Key(rt), Enabled: snapshot[rt]})
	}
	routing.WriteJSON(w, http.StatusOK, resp)
}

func decodeSetFlagRequest(w http.ResponseWriter, r *http.Request) (loadflag.ResourceType, bool, error) {
	var req setFlagRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		return "", false, httperr.NewBadRequest("bad_json", "bad json")
	}
	if req.Enabled == nil {
		return "", false, httperr.NewBadRequest("enabled_required", "enabled is required")
	}
	rt, err := loadflag.ParseResourceType(req.Resource)
	if err != nil {
		return "", false, httperr.NewBadRequest("unknown_resource", "unknown resource type")
	}
	return rt, *req.Enabled, nil
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	code, msg, ok := httperr.AsBadRequest(err)
	if !ok {
		code, msg = "bad_request", "bad request"
	}
	routing.WriteError(w, r, http.StatusBadRequest, code, msg)
}

func handleFlagsSetAPI(w http.ResponseWriter, r *http.Request, store FlagStore) {
	rt, enabled, err := decodeSetFlagRequest(w, r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if enabled {
		err = store.Enable(r.Context(), rt)
	} else {
		err = store.Clear(r.Context(), rt)
	}
	if err != nil {
		if errors.Is(err, loadflag.ErrUnknownResourceType) {
			routing.WriteError(w, r, http.StatusBadRequest, "unknown_resource", "unknown resource type")
			return
		}
		log.Printf("flag write error: resource=%s enabled=%v err=%v", rt, enabled, err)
		routing.WriteError(w, r, http.StatusInternalServerError, "flag_write_failed", "flag write failed")
		return
	}
	routing.WriteJSON(w, http.StatusOK, flagItem{Resource: string(rt), Key: loadflag.Key(rt), Enabled: enabled})
}

func handleFlagsClearAllAPI(w http.ResponseWriter, r *http.Request, store FlagStore) {
	if err := store.ClearAll(r.Context()); err != nil {
		log.Printf("flags clear error: err=%v", err)
		routing.WriteError(w, r, http.StatusInternalServerError, "flags_clear_failed", "flags clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
