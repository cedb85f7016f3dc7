package dhis2

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
)

// loader pulls every enabled resource kind of one family into the kv store.
type loader struct {
	client    *Client
	flags     *loadflag.Store
	kv        kv.Store
	kinds     []loadflag.ResourceType
	resources map[loadflag.ResourceType]resource
	keyFor    func(loadflag.ResourceType) string
	query     func(r resource, since time.Time, incremental bool) url.Values
}

func (l *loader) load(ctx context.Context, strategy types.Strategy) error {
	enabled, err := l.flags.Enabled(ctx, l.kinds)
	if err != nil {
		return err
	}
	for _, rt := range enabled {
		if err := l.loadOne(ctx, rt, strategy); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) loadOne(ctx context.Context, rt loadflag.ResourceType, strategy types.Strategy) error {
	r := l.resources[rt]
	var since time.Time
	incremental := false
	if strategy == types.StrategyDownloadOnlyNew && r.Incremental {
		t, ok, err := readTimestamp(ctx, l.kv, LastUpdatedKey(rt))
		if err != nil {
			return err
		}
		since, incremental = t, ok
	}

	op := strings.ToLower(string(rt))
	resp, err := l.client.get(ctx, op, r.Path, l.query(r, since, incremental))
	if err != nil {
		return err
	}
	fresh, err := splitCollection(op, resp.body, r.Collection, r.IDField)
	if err != nil {
		return err
	}

	set := make(RecordSet)
	if incremental {
		if set, err = loadRecordSet(ctx, l.kv, l.keyFor(rt)); err != nil {
			return err
		}
	}
	for id, raw := range fresh {
		set[id] = raw
	}
	if err := saveRecordSet(ctx, l.kv, l.keyFor(rt), set); err != nil {
		return err
	}
	return writeTimestamp(ctx, l.kv, LastUpdatedKey(rt), resp.serverTime)
}

// loaded reports whether every enabled kind has completed at least one load.
func (l *loader) loaded(ctx context.Context) (bool, error) {
	enabled, err := l.flags.Enabled(ctx, l.kinds)
	if err != nil {
		return false, err
	}
	for _, rt := range enabled {
		_, ok, err := l.kv.Get(ctx, LastUpdatedKey(rt))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Records returns the stored records of one resource kind.
func (l *loader) records(ctx context.Context, rt loadflag.ResourceType) (RecordSet, error) {
	return loadRecordSet(ctx, l.kv, l.keyFor(rt))
}
