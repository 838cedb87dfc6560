package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adcounsel/adcounsel/internal/agent"
)

// AuditRunner executes one investigation session for an account.
type AuditRunner interface {
	Run(ctx context.Context, accountID, initialFacts string) (*agent.LoopResult, error)
}

// RunLog records scheduler activity; the store's settings table satisfies it.
type RunLog interface {
	SetSetting(key, value string) error
}

// Job is one recurring account audit.
type Job struct {
	AccountID string
	Cron      *CronExpr
}

// Config holds scheduler settings.
type Config struct {
	TickInterval time.Duration
	// MaxConcurrentAudits caps simultaneous sessions across accounts. Each
	// session is private, so parallel accounts need no coordination beyond
	// this cap.
	MaxConcurrentAudits int
	LockPath            string
}

// DefaultConfig returns sensible scheduler defaults.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		TickInterval:        60 * time.Second,
		MaxConcurrentAudits: 2,
		LockPath:            filepath.Join(home, ".adcounsel", "scheduler.lock"),
	}
}

// Scheduler fires registered account audits on their cron expressions. A
// file lock keeps concurrently running daemons from double-dispatching.
type Scheduler struct {
	cfg    Config
	runner AuditRunner
	runlog RunLog

	jobs map[string]*Job
	mu   sync.RWMutex
	sem  *Semaphore
	lock *FileLock
}

// New creates a Scheduler dispatching to the given runner. runlog may be nil.
func New(cfg Config, runner AuditRunner, runlog RunLog) *Scheduler {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxConcurrentAudits <= 0 {
		cfg.MaxConcurrentAudits = def.MaxConcurrentAudits
	}
	if cfg.LockPath == "" {
		cfg.LockPath = def.LockPath
	}
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		runlog: runlog,
		jobs:   make(map[string]*Job),
		sem:    NewSemaphore(cfg.MaxConcurrentAudits),
		lock:   NewFileLock(cfg.LockPath),
	}
}

// Register adds a recurring audit for an account.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.AccountID] = job
	slog.Info("audit job registered", "account_id", job.AccountID)
}

// Run starts the tick loop. Blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "tick", s.cfg.TickInterval, "jobs", len(s.jobs))
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick acquires the global file lock, then dispatches any matching jobs.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	acquired, err := s.lock.TryLock()
	if err != nil {
		slog.Warn("scheduler lock error", "error", err)
		return
	}
	if !acquired {
		slog.Debug("scheduler tick skipped: lock held by another process")
		return
	}
	defer s.lock.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		if !job.Cron.Matches(now) {
			continue
		}
		s.dispatch(ctx, job, now)
	}
}

// dispatch starts an audit session if a concurrency slot is available.
func (s *Scheduler) dispatch(ctx context.Context, job *Job, now time.Time) {
	if !s.sem.TryAcquire() {
		slog.Warn("audit skipped: concurrency limit reached", "account_id", job.AccountID)
		s.logRun(job.AccountID, "skipped_concurrency", now)
		return
	}

	slog.Info("dispatching scheduled audit", "account_id", job.AccountID)
	go func(accountID string) {
		defer s.sem.Release()

		if _, err := s.runner.Run(ctx, accountID, "scheduled audit at "+now.Format(time.RFC3339)); err != nil {
			slog.Error("scheduled audit failed", "account_id", accountID, "error", err)
			s.logRun(accountID, "failed", now)
			return
		}
		s.logRun(accountID, "completed", now)
	}(job.AccountID)
}

// logRun persists the last run status per account (best-effort).
func (s *Scheduler) logRun(accountID, status string, tick time.Time) {
	if s.runlog == nil {
		return
	}
	_ = s.runlog.SetSetting("last_audit_"+accountID, status+" "+tick.UTC().Format(time.RFC3339))
}
