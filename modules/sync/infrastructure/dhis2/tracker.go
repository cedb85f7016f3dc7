package dhis2

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
	"github.com/icddrb/eregistry/pkg/syncfault"
)

type TrackerLoader struct {
	l *loader
}

func NewTrackerLoader(client *Client, flags *loadflag.Store, store kv.Store) *TrackerLoader {
	return &TrackerLoader{l: &loader{
		client:    client,
		flags:     flags,
		kv:        store,
		kinds:     loadflag.TrackerResourceTypes(),
		resources: trackerResources,
		keyFor:    TrackerKey,
		query:     trackerQuery,
	}}
}

func trackerQuery(r resource, since time.Time, incremental bool) url.Values {
	q := url.Values{}
	q.Set("paging", "false")
	q.Set("fields", r.Fields)
	q.Set("ouMode", "ACCESSIBLE")
	if incremental {
		q.Set("lastUpdatedStartDate", since.UTC().Format(remoteTimeLayout))
	}
	return q
}

func (t *TrackerLoader) LoadTrackerData(ctx context.Context, strategy types.Strategy) error {
	return t.l.load(ctx, strategy)
}

func (t *TrackerLoader) TrackerDataLoaded(ctx context.Context) (bool, error) {
	return t.l.loaded(ctx)
}

func (t *TrackerLoader) Records(ctx context.Context, rt loadflag.ResourceType) (RecordSet, error) {
	return t.l.records(ctx, rt)
}

type deletedObject struct {
	UID string `json:"uid"`
}

type deletedObjectsEnvelope struct {
	DeletedObjects []deletedObject `json:"deletedObjects"`
}

// ReconcileDeleted asks the server which tracker records were deleted since the
// last reconcile and drops them from the local record sets.
func (t *TrackerLoader) ReconcileDeleted(ctx context.Context) error {
	enabled, err := t.l.flags.Enabled(ctx, t.l.kinds)
	if err != nil {
		return err
	}
	for _, rt := range enabled {
		if err := t.reconcileOne(ctx, rt); err != nil {
			return err
		}
	}
	return nil
}

func (t *TrackerLoader) reconcileOne(ctx context.Context, rt loadflag.ResourceType) error {
	r := t.l.resources[rt]
	since, ok, err := readTimestamp(ctx, t.l.kv, DeletedAtKey(rt))
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("paging", "false")
	q.Set("klass", r.Klass)
	if ok {
		q.Set("deletedAt", since.UTC().Format(remoteTimeLayout))
	}

	op := "deleted_objects." + strings.ToLower(string(rt))
	resp, err := t.l.client.get(ctx, op, "deletedObjects", q)
	if err != nil {
		return err
	}
	var env deletedObjectsEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return syncfault.Decode(op, err)
	}

	if len(env.DeletedObjects) > 0 {
		set, err := t.l.records(ctx, rt)
		if err != nil {
			return err
		}
		removed := 0
		for _, d := range env.DeletedObjects {
			if _, ok := set[d.UID]; ok {
				delete(set, d.UID)
				removed++
			}
		}
		if removed > 0 {
			if err := saveRecordSet(ctx, t.l.kv, TrackerKey(rt), set); err != nil {
				return err
			}
		}
	}
	return writeTimestamp(ctx, t.l.kv, DeletedAtKey(rt), resp.serverTime)
}
