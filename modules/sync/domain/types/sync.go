package types

import (
	"errors"
	"strings"
)

// Strategy selects how much a loader pulls from the remote server.
type Strategy string

const (
	StrategyDownloadAll     Strategy = "DOWNLOAD_ALL"
	StrategyDownloadOnlyNew Strategy = "DOWNLOAD_ONLY_NEW"
)

var ErrUnknownStrategy = errors.New("unknown_sync_strategy")

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(raw))) {
	case StrategyDownloadAll:
		return StrategyDownloadAll, nil
	case StrategyDownloadOnlyNew:
		return StrategyDownloadOnlyNew, nil
	default:
		return "", ErrUnknownStrategy
	}
}

type SyncState string

const (
	SyncStateNotStarted        SyncState = "NOT_STARTED"
	SyncStateMetadataLoading   SyncState = "METADATA_LOADING"
	SyncStateMetadataLoaded    SyncState = "METADATA_LOADED"
	SyncStateDataValuesLoading SyncState = "DATA_VALUES_LOADING"
	SyncStateDataValuesLoaded  SyncState = "DATA_VALUES_LOADED"
	SyncStateReconciling       SyncState = "RECONCILING"
	SyncStateDone              SyncState = "DONE"
	SyncStateFailed            SyncState = "FAILED"
)

// Phase names the orchestrator operation an event or log line belongs to.
type Phase string

const (
	PhaseInitial    Phase = "initial"
	PhaseMetadata   Phase = "metadata"
	PhaseDataValues Phase = "data_values"
	PhaseUnion      Phase = "union"
	PhaseDeleted    Phase = "deleted"
	PhaseCycle      Phase = "cycle"
)

var ErrUnknownPhase = errors.New("unknown_sync_phase")

// ParsePhase accepts the phases that can be triggered on their own.
func ParsePhase(raw string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(raw))) {
	case PhaseInitial:
		return PhaseInitial, nil
	case PhaseMetadata:
		return PhaseMetadata, nil
	case PhaseDataValues:
		return PhaseDataValues, nil
	case PhaseUnion:
		return PhaseUnion, nil
	case PhaseDeleted:
		return PhaseDeleted, nil
	case PhaseCycle, "":
		return PhaseCycle, nil
	default:
		return "", ErrUnknownPhase
	}
}

// TakesStrategy reports whether the phase is driven by a download strategy.
func (p Phase) TakesStrategy() bool {
	return p == PhaseMetadata || p == PhaseDataValues
}
