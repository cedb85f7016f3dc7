package loadflag

import (
	"context"
	"errors"
	"testing"

	"github.com/icddrb/eregistry/pkg/kv"
)

type failingKV struct {
	kv.Store
	putErr   error
	getErr   error
	failFrom int
	failKey  string
	puts     int
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	f.puts++
	if f.putErr != nil && f.failKey != "" && key == f.failKey && string(value) == "false" {
		return f.putErr
	}
	if f.putErr != nil && f.failKey == "" && f.puts >= f.failFrom {
		return f.putErr
	}
	return f.Store.Put(ctx, key, value)
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	s := NewStore(backing)

	on, err := s.IsEnabled(ctx, ResourcePrograms)
	if err != nil || on {
		t.Fatalf("on=%v err=%v", on, err)
	}

	if err := s.Enable(ctx, ResourcePrograms); err != nil {
		t.Fatal(err)
	}
	if on, _ := s.IsEnabled(ctx, ResourcePrograms); !on {
		t.Fatal("expected enabled")
	}
	raw, ok, _ := backing.Get(ctx, "loadPROGRAMS")
	if !ok || string(raw) != "true" {
		t.Fatalf("raw=%q ok=%v", raw, ok)
	}

	if err := s.Clear(ctx, ResourcePrograms); err != nil {
		t.Fatal(err)
	}
	if on, _ := s.IsEnabled(ctx, ResourcePrograms); on {
		t.Fatal("expected cleared")
	}
}

func TestStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemoryStore())

	for _, rt := range AllResourceTypes() {
		if err := s.Enable(ctx, rt); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != len(AllResourceTypes()) {
		t.Fatalf("snap=%v", snap)
	}
	for rt, on := range snap {
		if on {
			t.Fatalf("%s still enabled", rt)
		}
	}
}

func TestStore_ClearAllContinuesPastPersistenceError(t *testing.T) {
	ctx := context.Background()
	backing := &failingKV{Store: kv.NewMemoryStore()}
	s := NewStore(backing)
	for _, rt := range AllResourceTypes() {
		if err := s.Enable(ctx, rt); err != nil {
			t.Fatal(err)
		}
	}

	writeErr := errors.New("write failed")
	backing.putErr = writeErr
	backing.failKey = Key(ResourcePrograms)
	err := s.ClearAll(ctx)
	if !errors.Is(err, writeErr) {
		t.Fatalf("err=%v", err)
	}

	for _, rt := range AllResourceTypes() {
		on, err := s.IsEnabled(ctx, rt)
		if err != nil {
			t.Fatal(err)
		}
		if rt == ResourcePrograms {
			if !on {
				t.Fatal("failing flag should still read enabled")
			}
			continue
		}
		if on {
			t.Fatalf("%s still enabled", rt)
		}
	}
}

func TestStore_ClearAllJoinsEveryFailure(t *testing.T) {
	ctx := context.Background()
	backing := &failingKV{Store: kv.NewMemoryStore(), putErr: errors.New("disk full"), failFrom: 1}
	s := NewStore(backing)

	err := s.ClearAll(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if backing.puts != len(AllResourceTypes()) {
		t.Fatalf("puts=%d want=%d", backing.puts, len(AllResourceTypes()))
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != len(AllResourceTypes()) {
		t.Fatalf("err=%v", err)
	}
}

func TestStore_UnknownResourceType(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemoryStore())

	if err := s.Enable(ctx, "NOPE"); !errors.Is(err, ErrUnknownResourceType) {
		t.Fatalf("err=%v", err)
	}
	if err := s.Clear(ctx, "NOPE"); !errors.Is(err, ErrUnknownResourceType) {
		t.Fatalf("err=%v", err)
	}
	if _, err := s.IsEnabled(ctx, "NOPE"); !errors.Is(err, ErrUnknownResourceType) {
		t.Fatalf("err=%v", err)
	}
}

func TestStore_GetError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&failingKV{Store: kv.NewMemoryStore(), getErr: errors.New("boom")})

	if _, err := s.IsEnabled(ctx, ResourceEvents); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Enabled(ctx, TrackerResourceTypes()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Snapshot(ctx); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_Enabled(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemoryStore())
	_ = s.Enable(ctx, ResourceEvents)
	_ = s.Enable(ctx, ResourceTrackedEntityInstances)

	got, err := s.Enabled(ctx, TrackerResourceTypes())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != ResourceTrackedEntityInstances || got[1] != ResourceEvents {
		t.Fatalf("got=%v", got)
	}
}

func TestParseResourceType(t *testing.T) {
	rt, err := ParseResourceType(" programs ")
	if err != nil || rt != ResourcePrograms {
		t.Fatalf("rt=%q err=%v", rt, err)
	}
	if _, err := ParseResourceType("unknown"); !errors.Is(err, ErrUnknownResourceType) {
		t.Fatalf("err=%v", err)
	}
	if Key(ResourceEvents) != "loadEVENTS" {
		t.Fatalf("key=%q", Key(ResourceEvents))
	}
	if len(MetadataResourceTypes())+len(TrackerResourceTypes())+1 != len(AllResourceTypes()) {
		t.Fatal("resource partitions out of sync")
	}
}
