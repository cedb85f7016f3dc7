package services

import (
	"context"
	"errors"
	"log"
	"sync"

	orgservices "github.com/icddrb/eregistry/modules/orgunit/services"
	"github.com/icddrb/eregistry/modules/sync/domain/ports"
	"github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/pkg/runid"
	"github.com/icddrb/eregistry/pkg/uievent"
)

var ErrSyncInProgress = errors.New("sync_in_progress")

const (
	finishingUpMessage        = "Finishing up..."
	updatingMetadataMessage   = "Updating metadata..."
	updatingDataValuesMessage = "Updating data values..."
)

type Logger interface {
	Printf(format string, args ...any)
}

type Deps struct {
	Orgs       ports.OrgUserFetcher
	Metadata   ports.MetadataLoader
	Tracker    ports.TrackerLoader
	Deleted    ports.DeletedReconciler
	Dropdown   ports.DropdownWriter
	Events     uievent.Publisher
	Logger     Logger
	Resolver   orgservices.HierarchyResolver
	UserFilter orgservices.UserFilter
	// Locker defaults to a LocalLocker; processes sharing a store need a shared one.
	Locker Locker
}

// Orchestrator sequences the sync phases against the remote server. Only one
// operation holds the run lock at a time; a second caller gets ErrSyncInProgress.
type Orchestrator struct {
	orgs     ports.OrgUserFetcher
	metadata ports.MetadataLoader
	tracker  ports.TrackerLoader
	deleted  ports.DeletedReconciler
	dropdown ports.DropdownWriter
	events   uievent.Publisher
	logger   Logger
	resolver orgservices.HierarchyResolver
	filter   orgservices.UserFilter
	newRunID func() (string, error)

	locker Locker

	mu    sync.Mutex
	state types.SyncState
	runID string
}

func NewOrchestrator(d Deps) *Orchestrator {
	o := &Orchestrator{
		orgs:     d.Orgs,
		metadata: d.Metadata,
		tracker:  d.Tracker,
		deleted:  d.Deleted,
		dropdown: d.Dropdown,
		events:   d.Events,
		logger:   d.Logger,
		resolver: d.Resolver,
		filter:   d.UserFilter,
		newRunID: runid.New,
		locker:   d.Locker,
		state:    types.SyncStateNotStarted,
	}
	if o.events == nil {
		o.events = uievent.Discard
	}
	if o.locker == nil {
		o.locker = NewLocalLocker()
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.resolver.RootLevel == 0 && o.resolver.Depth == 0 {
		o.resolver = orgservices.NewHierarchyResolver(0, 0)
	}
	if o.filter == nil {
		o.filter = orgservices.NewRoleUserFilter(nil, nil)
	}
	return o
}

func (o *Orchestrator) State() types.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RunID is the id of the most recent operation, empty before the first one.
func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runID
}

func (o *Orchestrator) setState(s types.SyncState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// clearFailure moves a Failed state to Done. Phases without a state of their
// own call it on success so a good retry does not keep reporting the failure.
func (o *Orchestrator) clearFailure() {
	o.mu.Lock()
	if o.state == types.SyncStateFailed {
		o.state = types.SyncStateDone
	}
	o.mu.Unlock()
}

// acquire takes the run lock and opens a new run. The returned release must be
// called once the operation is over.
func (o *Orchestrator) acquire(ctx context.Context) (string, func(), error) {
	unlock, ok, err := o.locker.TryLock(ctx)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrSyncInProgress
	}
	id, err := o.newRunID()
	if err != nil {
		unlock()
		return "", nil, err
	}
	o.mu.Lock()
	o.runID = id
	o.mu.Unlock()
	return id, unlock, nil
}

// IsInitialDataLoaded reports whether both metadata and tracker data have
// completed a full load at least once.
func (o *Orchestrator) IsInitialDataLoaded(ctx context.Context) (bool, error) {
	ok, err := o.metadata.MetadataLoaded(ctx)
	if err != nil || !ok {
		return false, err
	}
	return o.tracker.TrackerDataLoaded(ctx)
}

func (o *Orchestrator) LoadInitialData(ctx context.Context) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return o.loadInitialData(ctx, id)
}

func (o *Orchestrator) LoadMetaData(ctx context.Context, strategy types.Strategy) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	o.progress(id, updatingMetadataMessage, uievent.MessageTypeUpdate)
	return o.loadMetaData(ctx, id, strategy)
}

func (o *Orchestrator) LoadDataValues(ctx context.Context, strategy types.Strategy) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	o.progress(id, updatingDataValuesMessage, uievent.MessageTypeUpdate)
	return o.loadDataValues(ctx, id, strategy)
}

func (o *Orchestrator) LoadUnionData(ctx context.Context) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return o.loadUnionData(ctx, id)
}

func (o *Orchestrator) SyncRemotelyDeletedData(ctx context.Context) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return o.syncRemotelyDeletedData(ctx, id)
}

// RunCycle runs initial load, union sync and deletion reconcile in order and
// stops at the first failure.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	id, release, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	o.setState(types.SyncStateNotStarted)
	o.logger.Printf("sync cycle start: run_id=%s", id)
	steps := []struct {
		phase types.Phase
		run   func() error
	}{
		{phase: types.PhaseInitial, run: func() error { return o.loadInitialData(ctx, id) }},
		{phase: types.PhaseUnion, run: func() error { return o.loadUnionData(ctx, id) }},
		{phase: types.PhaseDeleted, run: func() error { return o.syncRemotelyDeletedData(ctx, id) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			o.setState(types.SyncStateFailed)
			o.logger.Printf("sync cycle failed: run_id=%s phase=%s err=%v", id, step.phase, err)
			return err
		}
	}
	o.setState(types.SyncStateDone)
	o.logger.Printf("sync cycle done: run_id=%s", id)
	return nil
}

func (o *Orchestrator) loadInitialData(ctx context.Context, runID string) error {
	metaLoaded, err := o.metadata.MetadataLoaded(ctx)
	if err != nil {
		o.fail(runID, types.PhaseInitial, err)
		return err
	}
	if !metaLoaded {
		o.logger.Printf("sync initial: run_id=%s loading=metadata", runID)
		o.progress(runID, finishingUpMessage, uievent.MessageTypeStartup)
		if err := o.loadMetaData(ctx, runID, types.StrategyDownloadAll); err != nil {
			return err
		}
		o.events.Publish(uievent.New(uievent.TypeInitialSyncingEnd, runID, string(types.PhaseInitial)))
		o.progress(runID, finishingUpMessage, uievent.MessageTypeStartup)
		if err := o.loadDataValues(ctx, runID, types.StrategyDownloadAll); err != nil {
			return err
		}
		o.events.Publish(uievent.New(uievent.TypeInitialSyncingEnd, runID, string(types.PhaseInitial)))
		return nil
	}

	trackerLoaded, err := o.tracker.TrackerDataLoaded(ctx)
	if err != nil {
		o.fail(runID, types.PhaseInitial, err)
		return err
	}
	if !trackerLoaded {
		o.logger.Printf("sync initial: run_id=%s loading=data_values", runID)
		o.progress(runID, finishingUpMessage, uievent.MessageTypeStartup)
		return o.loadDataValues(ctx, runID, types.StrategyDownloadAll)
	}
	o.clearFailure()
	return nil
}

func (o *Orchestrator) loadMetaData(ctx context.Context, runID string, strategy types.Strategy) error {
	defer o.bracket(runID, types.PhaseMetadata)()
	o.setState(types.SyncStateMetadataLoading)
	if err := o.metadata.LoadMetadata(ctx, strategy); err != nil {
		o.fail(runID, types.PhaseMetadata, err)
		return err
	}
	o.setState(types.SyncStateMetadataLoaded)
	return nil
}

func (o *Orchestrator) loadDataValues(ctx context.Context, runID string, strategy types.Strategy) error {
	defer o.bracket(runID, types.PhaseDataValues)()
	o.setState(types.SyncStateDataValuesLoading)
	if err := o.tracker.LoadTrackerData(ctx, strategy); err != nil {
		o.fail(runID, types.PhaseDataValues, err)
		return err
	}
	o.setState(types.SyncStateDataValuesLoaded)
	return nil
}

// loadUnionData rebuilds the union/field-worker dropdown. An empty org list
// leaves the stored dropdown as it was. The phase has no state of its own.
func (o *Orchestrator) loadUnionData(ctx context.Context, runID string) error {
	defer o.bracket(runID, types.PhaseUnion)()
	records, err := o.orgs.FetchOrgsAndUsers(ctx)
	if err != nil {
		o.fail(runID, types.PhaseUnion, err)
		return err
	}
	o.logger.Printf("sync union: run_id=%s org_units=%d", runID, len(records))
	if len(records) == 0 {
		o.logger.Printf("sync union: run_id=%s no org units found", runID)
		o.clearFailure()
		return nil
	}

	index := o.resolver.Resolve(records)
	model, err := orgservices.BuildDropdown(records, index, o.filter)
	if err != nil {
		o.fail(runID, types.PhaseUnion, err)
		return err
	}
	o.logger.Printf("sync union: run_id=%s unions=%d unions_with_users=%d", runID, index.Len(), len(model.Users))
	if err := o.dropdown.PutDropdown(ctx, model); err != nil {
		o.fail(runID, types.PhaseUnion, err)
		return err
	}
	o.clearFailure()
	return nil
}

func (o *Orchestrator) syncRemotelyDeletedData(ctx context.Context, runID string) error {
	defer o.bracket(runID, types.PhaseDeleted)()
	o.setState(types.SyncStateReconciling)
	if err := o.deleted.ReconcileDeleted(ctx); err != nil {
		o.fail(runID, types.PhaseDeleted, err)
		return err
	}
	o.setState(types.SyncStateDone)
	return nil
}

// bracket publishes SYNCING_START now and returns the func publishing the
// matching SYNCING_END; callers defer it so every exit path closes the pair.
func (o *Orchestrator) bracket(runID string, phase types.Phase) func() {
	o.events.Publish(uievent.New(uievent.TypeSyncingStart, runID, string(phase)))
	return func() {
		o.events.Publish(uievent.New(uievent.TypeSyncingEnd, runID, string(phase)))
	}
}

// progress publishes a loading message. Initial loads use the startup screen;
// standalone reloads use the update one.
func (o *Orchestrator) progress(runID string, msg string, mt uievent.MessageType) {
	o.events.Publish(uievent.NewLoadingMessage(runID, msg, mt))
}

func (o *Orchestrator) fail(runID string, phase types.Phase, err error) {
	o.setState(types.SyncStateFailed)
	o.logger.Printf("sync phase failed: run_id=%s phase=%s err=%v", runID, phase, err)
}
