package uievent

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNew(t *testing.T) {
	e := New(TypeSyncingStart, "run-1", "metadata")
	if e.Type != TypeSyncingStart || e.RunID != "run-1" || e.Phase != "metadata" {
		t.Fatalf("e=%+v", e)
	}
	if _, err := ulid.Parse(e.ID); err != nil {
		t.Fatalf("id=%q err=%v", e.ID, err)
	}
	if e.Time.Location() != time.UTC {
		t.Fatalf("time not utc: %v", e.Time)
	}

	m := NewLoadingMessage("run-1", "Finishing up", MessageTypeStartup)
	if m.Type != TypeLoadingMessage || m.Message != "Finishing up" || m.MessageType != MessageTypeStartup {
		t.Fatalf("m=%+v", m)
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBus()
	ch := b.Subscribe(ctx)
	if b.SubscriberCount() != 1 {
		t.Fatalf("count=%d", b.SubscriberCount())
	}

	b.Publish(New(TypeSyncingStart, "r", ""))
	b.Publish(New(TypeSyncingEnd, "r", ""))

	got := []Type{(<-ch).Type, (<-ch).Type}
	if got[0] != TypeSyncingStart || got[1] != TypeSyncingEnd {
		t.Fatalf("got=%v", got)
	}
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := NewBus(WithSubscriberBuffer(1))
	ch := b.Subscribe(context.Background())

	b.Publish(New(TypeSyncingStart, "", ""))
	b.Publish(New(TypeSyncingEnd, "", ""))

	if b.Dropped() != 1 {
		t.Fatalf("dropped=%d", b.Dropped())
	}
	if (<-ch).Type != TypeSyncingStart {
		t.Fatal("expected first event kept")
	}
}

func TestBus_UnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBus()
	ch := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not removed")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("count=%d", b.SubscriberCount())
	}
}

func TestBus_Shutdown(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(context.Background())
	b.Shutdown()
	b.Shutdown()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	b.Publish(New(TypeSyncingStart, "", ""))

	late := b.Subscribe(context.Background())
	if _, ok := <-late; ok {
		t.Fatal("expected closed channel after shutdown")
	}
}

func TestRecorderAndFanout(t *testing.T) {
	var a, c Recorder
	var called int
	f := Fanout{&a, nil, PublisherFunc(func(Event) { called++ }), &c}
	f.Publish(New(TypeInitialSyncingEnd, "", ""))
	Discard.Publish(New(TypeSyncingEnd, "", ""))
	PublisherFunc(nil).Publish(Event{})

	if len(a.Events()) != 1 || len(c.Types()) != 1 || called != 1 {
		t.Fatalf("a=%v c=%v called=%d", a.Events(), c.Types(), called)
	}
	if c.Types()[0] != TypeInitialSyncingEnd {
		t.Fatalf("types=%v", c.Types())
	}
}
