package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/icddrb/eregistry/modules/orgunit/domain/ports"
	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
	"github.com/icddrb/eregistry/pkg/kv"
)

const DropdownKey = "dropdown.unionfwa"

type DropdownKVStore struct {
	kv  kv.Store
	now func() time.Time
}

func NewDropdownKVStore(store kv.Store) *DropdownKVStore {
	return &DropdownKVStore{kv: store, now: time.Now}
}

var _ ports.DropdownStore = (*DropdownKVStore)(nil)

func (s *DropdownKVStore) GetDropdown(ctx context.Context) (types.DropdownModel, error) {
	raw, ok, err := s.kv.Get(ctx, DropdownKey)
	if err != nil {
		return types.DropdownModel{}, err
	}
	if !ok {
		return types.DropdownModel{}, ports.ErrDropdownNotFound
	}
	model := types.NewDropdownModel()
	if err := json.Unmarshal(raw, &model); err != nil {
		return types.DropdownModel{}, err
	}
	if model.Orgs == nil {
		model.Orgs = make(map[string]string)
	}
	if model.Users == nil {
		model.Users = make(map[string][]types.DropdownUser)
	}
	return model, nil
}

// PutDropdown replaces the stored model and stamps UpdatedAt.
func (s *DropdownKVStore) PutDropdown(ctx context.Context, model types.DropdownModel) error {
	model.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(model)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, DropdownKey, raw)
}
