package dhis2

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/icddrb/eregistry/pkg/kv"
	"github.com/icddrb/eregistry/pkg/loadflag"
	"github.com/icddrb/eregistry/pkg/syncfault"
)

const (
	metadataKeyPrefix    = "metadata."
	trackerKeyPrefix     = "tracker."
	lastUpdatedKeyPrefix = "lastupdated."
	deletedAtKeyPrefix   = "deletedat."
)

func MetadataKey(rt loadflag.ResourceType) string    { return metadataKeyPrefix + string(rt) }
func TrackerKey(rt loadflag.ResourceType) string     { return trackerKeyPrefix + string(rt) }
func LastUpdatedKey(rt loadflag.ResourceType) string { return lastUpdatedKeyPrefix + string(rt) }
func DeletedAtKey(rt loadflag.ResourceType) string   { return deletedAtKeyPrefix + string(rt) }

// RecordSet is the locally stored copy of one resource kind, keyed by remote id.
type RecordSet map[string]json.RawMessage

func (s RecordSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func loadRecordSet(ctx context.Context, store kv.Store, key string) (RecordSet, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	set := make(RecordSet)
	if !ok || len(raw) == 0 {
		return set, nil
	}
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("record set %s: %w", key, err)
	}
	return set, nil
}

func saveRecordSet(ctx context.Context, store kv.Store, key string, set RecordSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, raw)
}

// splitCollection pulls the records out of `{"<collection>": [...]}` and keys
// them by idField. Records without a string id are skipped and logged.
func splitCollection(op string, body []byte, collection string, idField string) (RecordSet, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, syncfault.Decode(op, err)
	}
	out := make(RecordSet)
	list, ok := env[collection]
	if !ok || string(list) == "null" {
		return out, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, syncfault.Decode(op, err)
	}
	for _, item := range items {
		var head map[string]json.RawMessage
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, syncfault.Decode(op, err)
		}
		rawID, ok := head[idField]
		if !ok {
			log.Printf("dhis2 record skipped: op=%s id_field=%s reason=missing_id", op, idField)
			continue
		}
		var id string
		if err := json.Unmarshal(rawID, &id); err != nil {
			log.Printf("dhis2 record skipped: op=%s id_field=%s reason=non_string_id id=%s err=%v", op, idField, rawID, err)
			continue
		}
		if id == "" {
			log.Printf("dhis2 record skipped: op=%s id_field=%s reason=empty_id", op, idField)
			continue
		}
		out[id] = item
	}
	return out, nil
}

// readTimestamp reads a stored server time. An unparsable value reads as
// missing, which makes the next load a full one.
func readTimestamp(ctx context.Context, store kv.Store, key string) (time.Time, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		log.Printf("dhis2 timestamp ignored: key=%s value=%q err=%v", key, raw, err)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func writeTimestamp(ctx context.Context, store kv.Store, key string, t time.Time) error {
	return store.Put(ctx, key, []byte(t.UTC().Format(time.RFC3339Nano)))
}
