package app

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeScheduler struct {
	mu     sync.Mutex
	starts int
	stops  int
	err    error
}

func (f *fakeScheduler) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.err
}

func (f *fakeScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func TestActivateStartsOnce(t *testing.T) {
	sched := &fakeScheduler{}
	a := New(context.Background(), sched, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Activate()
		}()
	}
	wg.Wait()

	if sched.starts != 1 || !a.Active() {
		t.Fatalf("expected a single start, got %d", sched.starts)
	}

	a.Shutdown()
	a.Shutdown()
	if sched.stops != 1 || a.Active() {
		t.Fatalf("expected a single stop, got %d", sched.stops)
	}
}

func TestActivateFailureIsReported(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("bad schedule")}
	a := New(context.Background(), sched, nil)

	if err := a.Activate(); err == nil {
		t.Fatalf("expected start error")
	}
	if a.Active() {
		t.Fatalf("failed start must not be active")
	}
	a.Shutdown()
	if sched.stops != 0 {
		t.Fatalf("a scheduler that never started must not be stopped")
	}

	sched.err = nil
	if err := a.Activate(); err != nil || sched.starts != 2 {
		t.Fatalf("expected a retried start, got err=%v starts=%d", err, sched.starts)
	}
}

func TestDeactivateAllowsRestart(t *testing.T) {
	sched := &fakeScheduler{}
	a := New(context.Background(), sched, nil)

	if err := a.Activate(); err != nil {
		t.Fatalf("activate: %v", err)
	}
	a.Deactivate()
	if a.Active() || sched.stops != 1 {
		t.Fatalf("expected stopped jobs, stops=%d", sched.stops)
	}
	if err := a.Activate(); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !a.Active() || sched.starts != 2 {
		t.Fatalf("expected a second start, got %d", sched.starts)
	}
	a.Shutdown()
	if sched.stops != 2 {
		t.Fatalf("expected a second stop, got %d", sched.stops)
	}
}
