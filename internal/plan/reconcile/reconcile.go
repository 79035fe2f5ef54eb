package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/fsm"
)

// Fetcher fetches a fresh plan snapshot. Implemented by the plan API client.
type Fetcher interface {
	GetPlan(ctx context.Context, planID string) (models.Plan, error)
}

// Known holds the last-known values the scheduler diffs against. Diffing
// against last-known rather than original values avoids re-triggering on a
// change that was already reported.
type Known struct {
	Status           string
	CurrentPrincipal int64
}

// Change carries only the merged fields of a detected change, never a full
// snapshot, so fields missing from the poll response are not clobbered.
type Change struct {
	Status           string
	CurrentPrincipal int64
	Rollover         bool
	RolloverType     models.RolloverType
}

// Diff compares a snapshot against the last-known values and reduces it to a
// Change. Pure; the scheduler's timing is layered on top.
func Diff(last Known, snap models.Plan) (Change, bool) {
	if snap.Status == last.Status && snap.CurrentPrincipal == last.CurrentPrincipal {
		return Change{}, false
	}
	return Change{
		Status:           snap.Status,
		CurrentPrincipal: snap.CurrentPrincipal,
		Rollover:         snap.Rollover(),
		RolloverType:     snap.RolloverType,
	}, true
}

// Config aggregates the scheduler's behavioural parameters.
type Config struct {
	// Interval between poll ticks.
	Interval time.Duration
	// PendingMaxAttempts is the ceiling while watching a PENDING plan.
	PendingMaxAttempts int
	// DefaultMaxAttempts is the ceiling for every other status.
	DefaultMaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.PendingMaxAttempts <= 0 {
		c.PendingMaxAttempts = 60
	}
	if c.DefaultMaxAttempts <= 0 {
		c.DefaultMaxAttempts = 12
	}
	return c
}

// Scheduler owns the polling loop that reconciles a plan view against the
// server-authoritative record. At most one loop is active per scheduler;
// starting a new loop fences off the previous one, so a slow poll racing a
// restart cannot apply stale state.
type Scheduler struct {
	cfg      Config
	fetch    Fetcher
	infoLog  *log.Logger
	errorLog *log.Logger

	mu          sync.Mutex
	planID      string
	last        Known
	attempts    int
	maxAttempts int
	seq         uint64
	cancel      context.CancelFunc
	running     bool
	onChange    func(Change)
}

func NewScheduler(fetch Fetcher, cfg Config, infoLog, errorLog *log.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg.withDefaults(),
		fetch:    fetch,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// OnChange registers the callback receiving merged change fields.
func (s *Scheduler) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Prime records the plan's current values as the diff baseline without
// starting the loop.
func (s *Scheduler) Prime(plan models.Plan) {
	s.mu.Lock()
	s.planID = plan.ID
	s.last = Known{Status: plan.Status, CurrentPrincipal: plan.CurrentPrincipal}
	s.mu.Unlock()
}

// Observe primes the scheduler from a snapshot and begins polling only when
// the plan is PENDING. Any other status stays idle until Start is called
// explicitly, e.g. after a top-up confirmation.
func (s *Scheduler) Observe(ctx context.Context, plan models.Plan) {
	s.Prime(plan)
	if plan.Status == fsm.StatusPending {
		s.Start(ctx)
	}
}

// Start begins a polling loop, stopping any previous one first. The attempt
// ceiling depends on the status being watched.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.attempts = 0
	if s.last.Status == fsm.StatusPending {
		s.maxAttempts = s.cfg.PendingMaxAttempts
	} else {
		s.maxAttempts = s.cfg.DefaultMaxAttempts
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	planID, ceiling := s.planID, s.maxAttempts
	s.mu.Unlock()

	s.infoLog.Printf("reconcile: watching plan %s (ceiling %d)", planID, ceiling)
	go s.loop(loopCtx, seq)
}

// Stop cancels the active loop, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.running = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Running reports whether a polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, seq uint64) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick(ctx, seq) {
				return
			}
		}
	}
}

// pollOnce runs a single tick of the current loop generation.
func (s *Scheduler) pollOnce(ctx context.Context) bool {
	s.mu.Lock()
	seq := s.seq
	s.mu.Unlock()
	return s.tick(ctx, seq)
}

// tick fetches one snapshot and applies the transition rules. It returns
// true when the loop should stop: change detected, ceiling reached, or the
// loop was superseded.
func (s *Scheduler) tick(ctx context.Context, seq uint64) bool {
	s.mu.Lock()
	if seq != s.seq || !s.running {
		s.mu.Unlock()
		return true
	}
	planID := s.planID
	s.mu.Unlock()

	snap, err := s.fetch.GetPlan(ctx, planID)

	s.mu.Lock()
	if seq != s.seq || !s.running {
		// superseded while the fetch was in flight
		s.mu.Unlock()
		return true
	}
	s.attempts++

	if err != nil {
		// A failed fetch is swallowed and counted like an unchanged tick;
		// persistent failure degrades to a ceiling stop, never a user error.
		s.errorLog.Printf("reconcile: poll plan %s: %v", planID, err)
		if s.attempts >= s.maxAttempts {
			s.stopLocked()
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()
		return false
	}

	change, changed := Diff(s.last, snap)
	stop := s.attempts >= s.maxAttempts
	var fire func(Change)
	if changed {
		wasPending := s.last.Status == fsm.StatusPending
		if wasPending && snap.Status == fsm.StatusActive {
			stop = true
		}
		if snap.CurrentPrincipal != s.last.CurrentPrincipal {
			stop = true
		}
		s.last = Known{Status: snap.Status, CurrentPrincipal: snap.CurrentPrincipal}
		fire = s.onChange
	}
	if stop {
		s.stopLocked()
	}
	s.mu.Unlock()

	if fire != nil {
		fire(change)
	}
	return stop
}
