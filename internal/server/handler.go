package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/icddrb/eregistry/internal/routing"
	"github.com/icddrb/eregistry/internal/syncruntime"
	orgtypes "github.com/icddrb/eregistry/modules/orgunit/domain/types"
	synctypes "github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/pkg/authz"
	"github.com/icddrb/eregistry/pkg/loadflag"
	"github.com/icddrb/eregistry/pkg/uievent"
)

type DropdownReader interface {
	GetDropdown(ctx context.Context) (orgtypes.DropdownModel, error)
}

type FlagStore interface {
	Snapshot(ctx context.Context) (map[loadflag.ResourceType]bool, error)
	Enable(ctx context.Context, rt loadflag.ResourceType) error
	Clear(ctx context.Context, rt loadflag.ResourceType) error
	ClearAll(ctx context.Context) error
}

type SyncRunner interface {
	LoadInitialData(ctx context.Context) error
	LoadMetaData(ctx context.Context, strategy synctypes.Strategy) error
	LoadDataValues(ctx context.Context, strategy synctypes.Strategy) error
	LoadUnionData(ctx context.Context) error
	SyncRemotelyDeletedData(ctx context.Context) error
	RunCycle(ctx context.Context) error
	State() synctypes.SyncState
	RunID() string
}

type EventSource interface {
	Subscribe(ctx context.Context) <-chan uievent.Event
}

type HandlerOptions struct {
	Dropdown DropdownReader
	Flags    FlagStore
	Sync     SyncRunner
	Events   EventSource
	// Authorizer defaults to the casbin files under config/access.
	Authorizer authorizer
	// Tokens maps bearer tokens to role slugs; defaults to SYNC_API_TOKENS.
	Tokens map[string]string
}

// NewHandler serves the runtime's stores and orchestrator with the casbin
// policy under config/access and the tokens in SYNC_API_TOKENS.
func NewHandler(rt *syncruntime.Runtime) (http.Handler, error) {
	if rt == nil {
		return nil, errors.New("server: missing runtime")
	}
	return NewHandlerWithOptions(HandlerOptions{
		Dropdown: rt.Dropdown,
		Flags:    rt.Flags,
		Sync:     rt.Orchestrator,
		Events:   rt.Events,
	})
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	if opts.Dropdown == nil || opts.Flags == nil || opts.Sync == nil || opts.Events == nil {
		return nil, errors.New("server: missing sync dependencies")
	}

	a := opts.Authorizer
	if a == nil {
		loaded, err := authz.NewAuthorizerFromEnv()
		if err != nil {
			return nil, err
		}
		a = loaded
	}

	tokens := opts.Tokens
	if tokens == nil {
		parsed, err := tokensFromEnv()
		if err != nil {
			return nil, err
		}
		tokens = parsed
	}

	router := routing.NewRouter()
	health := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", health)
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", health)

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, pathDropdown, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleDropdownAPI(w, r, opts.Dropdown)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, pathFlags, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleFlagsListAPI(w, r, opts.Flags)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, pathFlags, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleFlagsSetAPI(w, r, opts.Flags)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodDelete, pathFlags, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleFlagsClearAllAPI(w, r, opts.Flags)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, pathRun, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleRunAPI(w, r, opts.Sync)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, pathState, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleStateAPI(w, r, opts.Sync)
	}))
	router.Handle(routing.RouteClassWebsocket, http.MethodGet, routing.PathEvents, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleEventsWS(w, r, opts.Events)
	}))

	return withPrincipal(tokens, withAuthz(router.Class, a, router)), nil
}

const (
	pathDropdown = "/internal/sync/dropdown"
	pathFlags    = "/internal/sync/flags"
	pathRun      = "/internal/sync/run"
	pathState    = "/internal/sync/state"
)
