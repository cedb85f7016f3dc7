package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/icddrb/eregistry/internal/routing"
	"github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/modules/sync/services"
	"github.com/icddrb/eregistry/pkg/httperr"
	"github.com/icddrb/eregistry/pkg/syncfault"
)

type runResponse struct {
	Phase    types.Phase     `json:"phase"`
	Strategy types.Strategy  `json:"strategy,omitempty"`
	RunID    string          `json:"run_id"`
	State    types.SyncState `json:"state"`
}

type stateResponse struct {
	RunID string          `json:"run_id,omitempty"`
	State types.SyncState `json:"state"`
}

// handleRunAPI runs one phase synchronously. The sync keeps going if the
// caller disconnects.
func handleRunAPI(w http.ResponseWriter, r *http.Request, runner SyncRunner) {
	phase, strategy, err := parseRunRequest(r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	switch phase {
	case types.PhaseInitial:
		err = runner.LoadInitialData(ctx)
	case types.PhaseMetadata:
		err = runner.LoadMetaData(ctx, strategy)
	case types.PhaseDataValues:
		err = runner.LoadDataValues(ctx, strategy)
	case types.PhaseUnion:
		err = runner.LoadUnionData(ctx)
	case types.PhaseDeleted:
		err = runner.SyncRemotelyDeletedData(ctx)
	default:
		err = runner.RunCycle(ctx)
	}

	if err != nil {
		if errors.Is(err, services.ErrSyncInProgress) {
			routing.WriteError(w, r, http.StatusConflict, "sync_in_progress", "another sync is running")
			return
		}
		if f, ok := syncfault.As(err); ok {
			log.Printf("sync run fault: phase=%s run_id=%s err=%v", phase, runner.RunID(), err)
			routing.WriteErrorWithMeta(w, r, http.StatusBadGateway, "sync_fault", "remote registry call failed", map[string]string{
				"fault_kind": string(f.Kind),
				"op":         f.Op,
				"run_id":     runner.RunID(),
			})
			return
		}
		log.Printf("sync run error: phase=%s run_id=%s err=%v", phase, runner.RunID(), err)
		routing.WriteError(w, r, http.StatusInternalServerError, "sync_failed", "sync failed")
		return
	}

	routing.WriteJSON(w, http.StatusOK, runResponse{Phase: phase, Strategy: strategy, RunID: runner.RunID(), State: runner.State()})
}

// parseRunRequest reads phase and strategy. strategy only applies to the
// metadata and data_values phases and defaults to DOWNLOAD_ALL there.
func parseRunRequest(r *http.Request) (types.Phase, types.Strategy, error) {
	q := r.URL.Query()
	phase, err := types.ParsePhase(q.Get("phase"))
	if err != nil {
		return "", "", httperr.NewBadRequest("unknown_phase", "phase must be one of initial, metadata, data_values, union, deleted, cycle")
	}
	raw := q.Get("strategy")
	if !phase.TakesStrategy() {
		if raw != "" {
			return "", "", httperr.NewBadRequest("strategy_not_applicable", "strategy only applies to the metadata and data_values phases")
		}
		return phase, "", nil
	}
	if raw == "" {
		return phase, types.StrategyDownloadAll, nil
	}
	strategy, err := types.ParseStrategy(raw)
	if err != nil {
		return "", "", httperr.NewBadRequest("unknown_strategy", "strategy must be DOWNLOAD_ALL or DOWNLOAD_ONLY_NEW")
	}
	return phase, strategy, nil
}

func handleStateAPI(w http.ResponseWriter, _ *http.Request, runner SyncRunner) {
	routing.WriteJSON(w, http.StatusOK, stateResponse{RunID: runner.RunID(), State: runner.State()})
}
