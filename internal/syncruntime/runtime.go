package syncruntime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/icddrb/eregistry/internal/syncconfig"
	orgtypes "github.com/icddrb/eregistry/modules/orgunit/domain/types"
	"github.com/icddrb/eregistry/modules/orgunit/infrastructure/persistence"
	orgservices "github.com/icddrb/eregistry/modules/orgunit/services"
	"github.com/icddrb/eregistry/modules/sync/domain/ports"
	"github.com/icddrb/eregistry/modules/sync/infrastructure/dhis2"
	"github.com/icddrb/eregistry/modules/sync/services"
	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
	"github.com/icddrb/eregistry/pkg/uievent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runtime holds the wired sync stack shared by syncd and the HTTP server.
type Runtime struct {
	Profile      syncconfig.Profile
	KV           kv.Store
	Flags        *loadflag.Store
	Dropdown     *persistence.DropdownKVStore
	Events       *uievent.Bus
	Orchestrator *services.Orchestrator
}

type Options struct {
	KV         kv.Store
	DHIS2      syncconfig.DHIS2
	HTTPClient *http.Client
	Profile    syncconfig.Profile
	// Events receives every lifecycle event in addition to the runtime bus.
	Events uievent.Publisher
	Logger services.Logger
	// Locker guards sync runs. Without one, runtimes built over the same store
	// share an in-process lock.
	Locker services.Locker
}

func New(opts Options) (*Runtime, error) {
	if opts.KV == nil {
		return nil, errors.New("syncruntime: missing kv store")
	}
	client, err := dhis2.New(opts.DHIS2.BaseURL, opts.DHIS2.Username, opts.DHIS2.Password, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var eligibility *orgservices.UserEligibility
	if strings.TrimSpace(opts.Profile.UserFilterExpr) != "" {
		eligibility, err = orgservices.NewUserEligibility(opts.Profile.UserFilterExpr)
		if err != nil {
			return nil, err
		}
		logger.Printf("sync user filter: roles=%d expr=%q", len(opts.Profile.FieldWorkerRoles), eligibility.Expr())
	}

	flags := loadflag.NewStore(opts.KV)
	dropdown := persistence.NewDropdownKVStore(opts.KV)
	bus := uievent.NewBus()
	tracker := dhis2.NewTrackerLoader(client, flags, opts.KV)
	locker := opts.Locker
	if locker == nil {
		locker = localLockerFor(opts.KV)
	}

	orch := services.NewOrchestrator(services.Deps{
		Orgs:       flagGatedFetcher{flags: flags, next: client},
		Metadata:   dhis2.NewMetadataLoader(client, flags, opts.KV),
		Tracker:    tracker,
		Deleted:    tracker,
		Dropdown:   dropdown,
		Events:     uievent.Fanout{bus, opts.Events},
		Logger:     logger,
		Resolver:   orgservices.NewHierarchyResolver(opts.Profile.RootLevel, opts.Profile.Depth),
		UserFilter: orgservices.NewRoleUserFilter(opts.Profile.FieldWorkerRoles, eligibility),
		Locker:     locker,
	})

	return &Runtime{
		Profile:      opts.Profile,
		KV:           opts.KV,
		Flags:        flags,
		Dropdown:     dropdown,
		Events:       bus,
		Orchestrator: orch,
	}, nil
}

// Bootstrap enables the profile's resources when no flag has been enabled yet.
// It reports whether anything was written.
func (r *Runtime) Bootstrap(ctx context.Context) (bool, error) {
	snapshot, err := r.Flags.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, enabled := range snapshot {
		if enabled {
			return false, nil
		}
	}
	resources, err := r.Profile.Resources()
	if err != nil {
		return false, err
	}
	for _, rt := range resources {
		if err := r.Flags.Enable(ctx, rt); err != nil {
			return false, err
		}
	}
	return len(resources) > 0, nil
}

func (r *Runtime) Close() {
	r.Events.Shutdown()
}

// flagGatedFetcher skips the org/user fetch while UNIONUSERS is disabled.
type flagGatedFetcher struct {
	flags *loadflag.Store
	next  ports.OrgUserFetcher
}

func (f flagGatedFetcher) FetchOrgsAndUsers(ctx context.Context) ([]orgtypes.OrgRecord, error) {
	ok, err := f.flags.IsEnabled(ctx, loadflag.ResourceUnionUsers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return f.next.FetchOrgsAndUsers(ctx)
}

var localLockers sync.Map

// localLockerFor returns one in-process locker per store instance.
func localLockerFor(store kv.Store) services.Locker {
	if !reflect.TypeOf(store).Comparable() {
		return services.NewLocalLocker()
	}
	l, _ := localLockers.LoadOrStore(store, services.NewLocalLocker())
	return l.(services.Locker)
}

// OpenKV returns the in-memory store when SYNC_STORE=memory and a Postgres
// backed store otherwise. The Postgres backend comes with an advisory-lock
// Locker shared by every process on the same database; the memory backend
// returns a nil Locker. The close func releases the pool.
func OpenKV(ctx context.Context, dsn string) (kv.Store, services.Locker, func(), error) {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("SYNC_STORE")), "memory") {
		return kv.NewMemoryStore(), nil, func() {}, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	return kv.NewPGStore(pool), NewPGLocker(pool), pool.Close, nil
}
