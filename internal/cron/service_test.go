package cron

import (
	"context"
	"fmt"
	"testing"

	"github.com/liamreece/leasepoint-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	err      error
	acquires int
	releases int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	return !f.held, nil
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.releases++
	return nil
}

type fakeJob struct {
	name string
	runs int
	err  error
}

func (f *fakeJob) Name() string { return f.name }

func (f *fakeJob) Run(ctx context.Context) error {
	f.runs++
	return f.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRunCycleRunsEveryJob(t *testing.T) {
	lock := &fakeLock{}
	first := &fakeJob{name: "payment-reminders"}
	second := &fakeJob{name: "outbox-retention"}
	svc := newTestService(t, lock, first, second)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("runs = %d / %d", first.runs, second.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("lock releases = %d", lock.releases)
	}
}

func TestRunCycleJobFailureDoesNotStopOthers(t *testing.T) {
	lock := &fakeLock{}
	failing := &fakeJob{name: "payment-reminders", err: fmt.Errorf("smtp down")}
	healthy := &fakeJob{name: "outbox-retention"}
	svc := newTestService(t, lock, failing, healthy)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if healthy.runs != 1 {
		t.Fatal("later jobs must still run after a failure")
	}
	if lock.releases != 1 {
		t.Fatalf("lock releases = %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &fakeLock{held: true}
	job := &fakeJob{name: "payment-reminders"}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run when another instance holds the lock")
	}
	if lock.releases != 0 {
		t.Fatal("a lock we never took must not be released")
	}
}

func TestRunCycleLockFailure(t *testing.T) {
	lock := &fakeLock{err: fmt.Errorf("redis unavailable")}
	job := &fakeJob{name: "payment-reminders"}
	svc := newTestService(t, lock, job)

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("lock acquisition failures must surface")
	}
	if job.runs != 0 {
		t.Fatal("no job may run without the lock")
	}
}
