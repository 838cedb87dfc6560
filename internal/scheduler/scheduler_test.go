package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adcounsel/adcounsel/internal/agent"
)

// fakeRunner counts audits and can be made to block.
type fakeRunner struct {
	runs    atomic.Int32
	release chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, accountID, _ string) (*agent.LoopResult, error) {
	f.runs.Add(1)
	if f.release != nil {
		<-f.release
	}
	return &agent.LoopResult{Outcome: agent.OutcomeSkip, Reason: "healthy account"}, nil
}

type fakeRunLog struct {
	mu      sync.Mutex
	entries map[string]string
}

func (f *fakeRunLog) SetSetting(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string]string{}
	}
	f.entries[key] = value
	return nil
}

func (f *fakeRunLog) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key]
}

func TestSchedulerDispatchesMatchingJob(t *testing.T) {
	runner := &fakeRunner{}
	runlog := &fakeRunLog{}
	s := New(Config{LockPath: t.TempDir() + "/test.lock"}, runner, runlog)

	cron, _ := ParseCron("* * * * *")
	s.Register(&Job{AccountID: "acct-1", Cron: cron})

	s.tick(context.Background(), time.Now())
	time.Sleep(100 * time.Millisecond)

	if runner.runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runner.runs.Load())
	}
	if got := runlog.get("last_audit_acct-1"); got == "" {
		t.Error("run status should be logged")
	}
}

func TestSchedulerNonMatchingJobNotDispatched(t *testing.T) {
	runner := &fakeRunner{}
	s := New(Config{LockPath: t.TempDir() + "/test.lock"}, runner, nil)

	cron, _ := ParseCron("0 0 * * *")
	s.Register(&Job{AccountID: "acct-1", Cron: cron})

	noon := time.Date(2026, 2, 15, 12, 30, 0, 0, time.UTC)
	s.tick(context.Background(), noon)
	time.Sleep(50 * time.Millisecond)

	if runner.runs.Load() != 0 {
		t.Errorf("runs = %d, want 0 at noon for a midnight job", runner.runs.Load())
	}
}

func TestSchedulerConcurrencyCap(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	runlog := &fakeRunLog{}
	s := New(Config{
		MaxConcurrentAudits: 1,
		LockPath:            t.TempDir() + "/test.lock",
	}, runner, runlog)

	cron, _ := ParseCron("* * * * *")
	s.Register(&Job{AccountID: "acct-1", Cron: cron})
	s.Register(&Job{AccountID: "acct-2", Cron: cron})

	s.tick(context.Background(), time.Now())
	time.Sleep(100 * time.Millisecond)

	// One audit holds the only slot; the other was skipped.
	if runner.runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 while the slot is held", runner.runs.Load())
	}
	close(runner.release)
}

func TestSchedulerLockPreventsOverlap(t *testing.T) {
	lockPath := t.TempDir() + "/overlap.lock"
	s1 := New(Config{LockPath: lockPath}, &fakeRunner{}, nil)
	s2 := New(Config{LockPath: lockPath}, &fakeRunner{}, nil)

	acquired, err := s1.lock.TryLock()
	if err != nil || !acquired {
		t.Fatal("s1 should acquire lock")
	}

	acquired2, err := s2.lock.TryLock()
	if err != nil {
		t.Fatal("unexpected error on s2 lock:", err)
	}
	if acquired2 {
		t.Error("s2 should NOT acquire lock while s1 holds it")
		s2.lock.Unlock()
	}

	s1.lock.Unlock()

	acquired3, err := s2.lock.TryLock()
	if err != nil {
		t.Fatal("unexpected error on s2 retry:", err)
	}
	if !acquired3 {
		t.Error("s2 should acquire lock after s1 released")
	}
	s2.lock.Unlock()
}

func TestSemaphoreConcurrencyLimit(t *testing.T) {
	sem := NewSemaphore(2)

	if !sem.TryAcquire() {
		t.Error("first acquire should succeed")
	}
	if !sem.TryAcquire() {
		t.Error("second acquire should succeed")
	}
	if sem.TryAcquire() {
		t.Error("third acquire should fail (cap=2)")
	}
	if sem.Available() != 0 {
		t.Errorf("Available() = %d, want 0", sem.Available())
	}

	sem.Release()
	if sem.Available() != 1 {
		t.Errorf("Available() = %d, want 1", sem.Available())
	}
	if !sem.TryAcquire() {
		t.Error("acquire after release should succeed")
	}
}
