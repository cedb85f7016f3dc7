package dhis2

import (
	"context"
	"net/url"
	"time"

	"github.com/icddrb/eregistry/modules/sync/domain/types"
	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
)

type MetadataLoader struct {
	l *loader
}

func NewMetadataLoader(client *Client, flags *loadflag.Store, store kv.Store) *MetadataLoader {
	return &MetadataLoader{l: &loader{
		client:    client,
		flags:     flags,
		kv:        store,
		kinds:     loadflag.MetadataResourceTypes(),
		resources: metadataResources,
		keyFor:    MetadataKey,
		query:     metadataQuery,
	}}
}

func metadataQuery(r resource, since time.Time, incremental bool) url.Values {
	q := url.Values{}
	q.Set("paging", "false")
	q.Set("fields", r.Fields)
	if incremental {
		q.Set("filter", "lastUpdated:gt:"+since.UTC().Format(remoteTimeLayout))
	}
	return q
}

func (m *MetadataLoader) LoadMetadata(ctx context.Context, strategy types.Strategy) error {
	return m.l.load(ctx, strategy)
}

func (m *MetadataLoader) MetadataLoaded(ctx context.Context) (bool, error) {
	return m.l.loaded(ctx)
}

func (m *MetadataLoader) Records(ctx context.Context, rt loadflag.ResourceType) (RecordSet, error) {
	return m.l.records(ctx, rt)
}
