package watch

import (
	"context"
	"log"
	"sync"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/fsm"
	"investBack/internal/plan/timeutil"
)

// Invoker performs the unattended rollover call. Implemented by the plan API
// client.
type Invoker interface {
	Rollover(ctx context.Context, planID string, option models.RolloverType) (models.RolloverResult, error)
}

// AttemptStore records that an unattended rollover was already attempted for
// a plan, so re-arming on every observation cannot double-fire even if the
// server call is not idempotent. MarkAttempt returns false when an attempt
// was already recorded.
type AttemptStore interface {
	MarkAttempt(ctx context.Context, planID string) (bool, error)
	ClearAttempt(ctx context.Context, planID string) error
}

// Config aggregates the watcher's behavioural parameters.
type Config struct {
	// Delay before the one-shot check runs after a MATURED plan is observed.
	Delay time.Duration
	// GraceDays is the post-maturity window after which the rollover fires
	// unattended.
	GraceDays int
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = 2 * time.Second
	}
	if c.GraceDays <= 0 {
		c.GraceDays = 7
	}
	return c
}

// Watcher arms a one-shot delayed check that rolls over a MATURED plan once
// the grace window has elapsed, without user interaction.
type Watcher struct {
	cfg      Config
	invoke   Invoker
	attempts AttemptStore
	now      timeutil.NowFunc
	infoLog  *log.Logger
	errorLog *log.Logger

	mu       sync.Mutex
	timer    *time.Timer
	armedFor string
	onDone   func(models.RolloverResult)
}

func NewWatcher(invoke Invoker, attempts AttemptStore, cfg Config, infoLog, errorLog *log.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg.withDefaults(),
		invoke:   invoke,
		attempts: attempts,
		now:      time.Now,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// OnRollover registers the callback run after a successful unattended
// rollover, typically a snapshot refetch.
func (w *Watcher) OnRollover(fn func(models.RolloverResult)) {
	w.mu.Lock()
	w.onDone = fn
	w.mu.Unlock()
}

// Arm schedules the delayed check for a MATURED plan. Arming for a different
// plan, or again for the same one, replaces the pending check. Non-MATURED
// plans cancel any pending check instead.
func (w *Watcher) Arm(ctx context.Context, plan models.Plan) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	if plan.Status != fsm.StatusMatured {
		return
	}
	w.armedFor = plan.ID
	w.timer = time.AfterFunc(w.cfg.Delay, func() {
		w.check(ctx, plan)
	})
}

// Cancel drops any pending check, e.g. when the owning view is torn down.
func (w *Watcher) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
}

func (w *Watcher) cancelLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.armedFor = ""
}

// Armed reports whether a check is pending for the given plan.
func (w *Watcher) Armed(planID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armedFor == planID && w.timer != nil
}

// shouldFire is the real correctness guard: the scheduling only decides when
// the check runs, the grace window decides whether it acts.
func (w *Watcher) shouldFire(plan models.Plan, now time.Time) bool {
	if plan.Status != fsm.StatusMatured {
		return false
	}
	return timeutil.DaysSince(plan.MaturityDate, now) >= w.cfg.GraceDays
}

// check runs the one-shot decision. Failures are logged and swallowed: the
// user did not initiate this action and must not see an error for it. No
// retry happens here; the next MATURED observation re-arms the watcher.
func (w *Watcher) check(ctx context.Context, plan models.Plan) {
	if !w.shouldFire(plan, w.now()) {
		return
	}
	marked, err := w.attempts.MarkAttempt(ctx, plan.ID)
	if err != nil {
		w.errorLog.Printf("auto-rollover: attempt marker for plan %s: %v", plan.ID, err)
		return
	}
	if !marked {
		w.infoLog.Printf("auto-rollover: plan %s already attempted, skipping", plan.ID)
		return
	}

	res, err := w.invoke.Rollover(ctx, plan.ID, models.RolloverPrincipalAndInterest)
	if err != nil {
		w.errorLog.Printf("auto-rollover: plan %s: %v", plan.ID, err)
		if clearErr := w.attempts.ClearAttempt(ctx, plan.ID); clearErr != nil {
			w.errorLog.Printf("auto-rollover: clear marker for plan %s: %v", plan.ID, clearErr)
		}
		return
	}
	w.infoLog.Printf("auto-rollover: plan %s rolled over into %s", plan.ID, res.PlanID)

	w.mu.Lock()
	done := w.onDone
	w.mu.Unlock()
	if done != nil {
		done(res)
	}
}
