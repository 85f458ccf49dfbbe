package monitor

import (
	"testing"
	"time"

	"holochat/internal/app/registry"
)

func TestSweepDemotesIdleUser(t *testing.T) {
	store := registry.NewStore(nil)
	store.Login("bob")

	m := NewMonitor(store, time.Hour, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	m.Sweep()

	u, ok := store.Get("bob")
	if !ok {
		t.Fatal("user missing")
	}
	if u.Status != registry.StatusInactive {
		t.Fatalf("expected Inactive, got %q", u.Status)
	}

	// The sweep never promotes; only TYPING/MESSAGE activity does.
	m.Sweep()
	if u, _ := store.Get("bob"); u.Status != registry.StatusInactive {
		t.Fatalf("expected Inactive to stick, got %q", u.Status)
	}

	store.Touch("bob", registry.StatusTyping)
	if u, _ := store.Get("bob"); u.Status != registry.StatusTyping {
		t.Fatalf("expected Typing after activity, got %q", u.Status)
	}
}

func TestFreshUserSurvivesSweep(t *testing.T) {
	store := registry.NewStore(nil)
	store.Login("eve")

	m := NewMonitor(store, time.Hour, time.Hour)
	m.Sweep()

	if u, _ := store.Get("eve"); u.Status != registry.StatusActive {
		t.Fatalf("expected Active, got %q", u.Status)
	}
}

func TestStartIsGuardedAndStopTerminates(t *testing.T) {
	store := registry.NewStore(nil)
	m := NewMonitor(store, time.Millisecond, time.Hour)

	m.Start()
	m.Start() // second start must be a no-op

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not terminate the sweep loop")
	}
}
