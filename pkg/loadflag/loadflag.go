package loadflag

import (
	"context"
	"errors"
	"fmt"

	"github.com/icddrb/eregistry/pkg/kv"
)

// KeyPrefix is prepended to the resource type name to form the persisted key.
const KeyPrefix = "load"

var (
	valueTrue  = []byte("true")
	valueFalse = []byte("false")
)

// Store gates which resource kinds are due for (re)loading. There is no locking:
// callers run one sync cycle at a time.
type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func Key(rt ResourceType) string {
	return KeyPrefix + string(rt)
}

func (s *Store) Enable(ctx context.Context, rt ResourceType) error {
	if !rt.Valid() {
		return ErrUnknownResourceType
	}
	return s.kv.Put(ctx, Key(rt), valueTrue)
}

func (s *Store) Clear(ctx context.Context, rt ResourceType) error {
	if !rt.Valid() {
		return ErrUnknownResourceType
	}
	return s.kv.Put(ctx, Key(rt), valueFalse)
}

// ClearAll clears each flag independently: a failed write does not stop the
// remaining ones. The failures come back joined.
func (s *Store) ClearAll(ctx context.Context) error {
	var errs []error
	for _, rt := range allResourceTypes {
		if err := s.Clear(ctx, rt); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", rt, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) IsEnabled(ctx context.Context, rt ResourceType) (bool, error) {
	if !rt.Valid() {
		return false, ErrUnknownResourceType
	}
	v, ok, err := s.kv.Get(ctx, Key(rt))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return string(v) == string(valueTrue), nil
}

// Enabled lists the enabled flags among types, keeping their order.
func (s *Store) Enabled(ctx context.Context, types []ResourceType) ([]ResourceType, error) {
	var out []ResourceType
	for _, rt := range types {
		ok, err := s.IsEnabled(ctx, rt)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rt)
		}
	}
	return out, nil
}

// Snapshot reports every flag, for listing through the API and dbtool.
func (s *Store) Snapshot(ctx context.Context) (map[ResourceType]bool, error) {
	out := make(map[ResourceType]bool, len(allResourceTypes))
	for _, rt := range allResourceTypes {
		ok, err := s.IsEnabled(ctx, rt)
		if err != nil {
			return nil, err
		}
		out[rt] = ok
	}
	return out, nil
}
