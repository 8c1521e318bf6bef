package event

import (
	"context"
	"testing"
)

func TestBusPublishMatchesSubscribers(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe("order.created", func(ctx context.Context, evt Event) {
		got = append(got, "exact:"+evt.Name)
	})
	bus.Subscribe(Wildcard, func(ctx context.Context, evt Event) {
		got = append(got, "wildcard:"+evt.Name)
	})
	bus.Subscribe("order.cancelled", func(ctx context.Context, evt Event) {
		got = append(got, "other:"+evt.Name)
	})

	bus.Publish(context.Background(), Event{Name: "order.created"})

	if len(got) != 2 {
		t.Fatalf("expected 2 handler calls, got %d: %v", len(got), got)
	}
	if got[0] != "exact:order.created" || got[1] != "wildcard:order.created" {
		t.Fatalf("unexpected handler calls: %v", got)
	}
}

func TestBusPublishFillsOccurredAt(t *testing.T) {
	bus := NewBus()
	var seen Event
	bus.Subscribe("test.ping", func(ctx context.Context, evt Event) {
		seen = evt
	})
	bus.Publish(context.Background(), Event{Name: "test.ping"})
	if seen.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be filled")
	}
}

func TestBusHandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("order.updated", func(ctx context.Context, evt Event) {
		panic("boom")
	})
	var called bool
	bus.Subscribe(Wildcard, func(ctx context.Context, evt Event) {
		called = true
	})

	bus.Publish(context.Background(), Event{Name: "order.updated"})

	if !called {
		t.Fatalf("expected wildcard handler to run after panic in exact handler")
	}
}
