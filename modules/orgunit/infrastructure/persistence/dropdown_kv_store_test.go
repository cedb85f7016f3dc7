package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/icddrb/eregistry/modules/orgunit/domain/ports"
	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
	"github.com/icddrb/eregistry/pkg/kv"
)

type kvStub struct {
	kv.Store
	getRaw []byte
	getOK  bool
	getErr error
	putErr error
	puts   int
}

func (s *kvStub) Get(context.Context, string) ([]byte, bool, error) {
	return s.getRaw, s.getOK, s.getErr
}

func (s *kvStub) Put(context.Context, string, []byte) error {
	s.puts++
	return s.putErr
}

func TestDropdownKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewDropdownKVStore(kv.NewMemoryStore())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("BDT", 6*3600))
	store.now = func() time.Time { return fixed }

	if _, err := store.GetDropdown(ctx); !errors.Is(err, ports.ErrDropdownNotFound) {
		t.Fatalf("err=%v", err)
	}

	model := types.NewDropdownModel()
	model.AddOrg("U1", "Union One")
	model.AddUsers("U1", []types.DropdownUser{{ID: "a", DisplayName: "A"}})
	if err := store.PutDropdown(ctx, model); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDropdown(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Orgs["U1"] != "Union One" {
		t.Fatalf("orgs=%v", got.Orgs)
	}
	if users := got.UsersFor("U1"); len(users) != 1 || users[0].ID != "a" {
		t.Fatalf("users=%+v", users)
	}
	if !got.UpdatedAt.Equal(fixed) || got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("updated_at=%v", got.UpdatedAt)
	}
}

func TestDropdownKVStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("get error", func(t *testing.T) {
		store := NewDropdownKVStore(&kvStub{getErr: errors.New("boom")})
		if _, err := store.GetDropdown(ctx); err == nil || err.Error() != "boom" {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		store := NewDropdownKVStore(&kvStub{getRaw: []byte("{"), getOK: true})
		if _, err := store.GetDropdown(ctx); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("null maps", func(t *testing.T) {
		store := NewDropdownKVStore(&kvStub{getRaw: []byte(`{"orgs":null,"users":null}`), getOK: true})
		got, err := store.GetDropdown(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.Orgs == nil || got.Users == nil {
			t.Fatalf("model=%+v", got)
		}
	})

	t.Run("put error", func(t *testing.T) {
		stub := &kvStub{putErr: errors.New("put")}
		store := NewDropdownKVStore(stub)
		if err := store.PutDropdown(ctx, types.NewDropdownModel()); err == nil || stub.puts != 1 {
			t.Fatalf("err=%v puts=%d", err, stub.puts)
		}
	})
}
