package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewRunEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(RunEventSucceeded, func(ctx context.Context, event RunEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(RunEventSucceeded, func(ctx context.Context, event RunEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), RunEvent{Type: RunEventSucceeded}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusRoutesByType(t *testing.T) {
	bus := NewRunEventBus()
	called := false
	bus.Subscribe(RunEventFailed, func(ctx context.Context, event RunEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), RunEvent{Type: RunEventStarted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another type should not be called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewRunEventBus()
	called := false
	unsubscribe := bus.Subscribe(RunEventStarted, func(ctx context.Context, event RunEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), RunEvent{Type: RunEventStarted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewRunEventBus()
	errA := errors.New("err-a")
	bus.Subscribe(RunEventCanceled, func(ctx context.Context, event RunEvent) error {
		return errA
	})
	bus.Subscribe(RunEventCanceled, func(ctx context.Context, event RunEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), RunEvent{Type: RunEventCanceled})
	if !errors.Is(err, errA) {
		t.Fatalf("expected joined error to contain err-a, got %v", err)
	}
}
