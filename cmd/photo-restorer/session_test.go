package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fpang/photo-restorer/internal/workflow"
)

func newTestStore(ttl time.Duration) (*sessionStore, *time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(func() *workflow.Controller {
		return workflow.NewController(stubAnalyzer{}, stubRestorer{})
	}, ttl)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestSessionStoreGetAndCreate(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	defer store.closeAll()

	a := store.create()
	b := store.create()
	if a.id == b.id {
		t.Fatalf("session ids collide: %s", a.id)
	}

	got, ok := store.get(a.id)
	if !ok || got != a {
		t.Errorf("get(%s) = %v, %v", a.id, got, ok)
	}
	if _, ok := store.get("unknown"); ok {
		t.Error("get(unknown) should miss")
	}
	if n := store.len(); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
}

func TestSessionStoreSweep(t *testing.T) {
	store, now := newTestStore(10 * time.Minute)
	defer store.closeAll()

	idle := store.create()
	active := store.create()

	*now = now.Add(6 * time.Minute)
	store.get(active.id)

	*now = now.Add(6 * time.Minute)
	if n := store.sweep(); n != 1 {
		t.Fatalf("sweep closed %d sessions, want 1", n)
	}
	if _, ok := store.get(idle.id); ok {
		t.Error("idle session still present after sweep")
	}
	if _, ok := store.get(active.id); !ok {
		t.Error("active session was swept")
	}

	if _, err := idle.ctrl.Dispatch(workflow.Analyze{}); !errors.Is(err, workflow.ErrClosed) {
		t.Errorf("swept controller Dispatch error = %v, want ErrClosed", err)
	}
}

func TestSessionStoreRunClosesOnCancel(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	sess := store.create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}

	if n := store.len(); n != 0 {
		t.Errorf("len = %d after shutdown, want 0", n)
	}
	if _, err := sess.ctrl.Dispatch(workflow.Reset{}); !errors.Is(err, workflow.ErrClosed) {
		t.Errorf("Dispatch after shutdown = %v, want ErrClosed", err)
	}
}
