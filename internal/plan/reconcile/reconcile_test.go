package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/fsm"
)

// stubFetcher serves queued snapshots; once the queue drains it keeps
// serving the last one.
type stubFetcher struct {
	mu    sync.Mutex
	queue []models.Plan
	errs  []error
	calls int
}

func (f *stubFetcher) GetPlan(ctx context.Context, planID string) (models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return models.Plan{}, err
		}
	}
	if len(f.queue) > 1 {
		snap := f.queue[0]
		f.queue = f.queue[1:]
		return snap, nil
	}
	if len(f.queue) == 1 {
		return f.queue[0], nil
	}
	return models.Plan{}, models.ErrPlanNotFound
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func pendingPlan() models.Plan {
	return models.Plan{ID: "plan-1", Status: fsm.StatusPending, CurrentPrincipal: 0}
}

// Test schedulers use an hour-long interval so the real ticker never fires;
// ticks are driven directly through pollOnce.
func testScheduler(f Fetcher) *Scheduler {
	return NewScheduler(f, Config{Interval: time.Hour}, quietLogger(), quietLogger())
}

func TestObserveAutoStartsOnlyWhenPending(t *testing.T) {
	f := &stubFetcher{queue: []models.Plan{pendingPlan()}}
	s := testScheduler(f)

	s.Observe(context.Background(), pendingPlan())
	if !s.Running() {
		t.Fatal("expected polling to start for PENDING plan")
	}
	s.Stop()

	active := pendingPlan()
	active.Status = fsm.StatusActive
	s2 := testScheduler(f)
	s2.Observe(context.Background(), active)
	if s2.Running() {
		t.Fatal("non-PENDING plan must not start polling on observation")
	}
}

func TestUnchangedTickIncrementsAttemptsWithoutCallback(t *testing.T) {
	f := &stubFetcher{queue: []models.Plan{pendingPlan()}}
	s := testScheduler(f)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Observe(context.Background(), pendingPlan())
	for i := 0; i < 5; i++ {
		if done := s.pollOnce(context.Background()); done {
			t.Fatalf("unexpected stop on tick %d", i+1)
		}
	}
	if fired != 0 {
		t.Fatalf("expected no callback, fired %d times", fired)
	}
	if s.attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", s.attempts)
	}
	s.Stop()
}

func TestPendingToActiveFiresOnceAndStops(t *testing.T) {
	activated := pendingPlan()
	activated.Status = fsm.StatusActive
	activated.CurrentPrincipal = 100000
	activated.RolloverType = models.RolloverPrincipalAndInterest

	f := &stubFetcher{queue: []models.Plan{pendingPlan(), pendingPlan(), activated}}
	s := testScheduler(f)

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })
	s.Observe(context.Background(), pendingPlan())

	for i := 0; i < 10 && !s.pollOnce(context.Background()); i++ {
	}

	if len(changes) != 1 {
		t.Fatalf("expected exactly one change callback, got %d", len(changes))
	}
	got := changes[0]
	if got.Status != fsm.StatusActive || got.CurrentPrincipal != 100000 {
		t.Fatalf("unexpected change: %+v", got)
	}
	if !got.Rollover || got.RolloverType != models.RolloverPrincipalAndInterest {
		t.Fatalf("derived rollover fields missing: %+v", got)
	}
	if s.Running() {
		t.Fatal("expected polling to stop after PENDING -> ACTIVE")
	}
}

func TestPrincipalChangeStopsPolling(t *testing.T) {
	before := models.Plan{ID: "plan-1", Status: fsm.StatusActive, CurrentPrincipal: 500000}
	after := before
	after.CurrentPrincipal = 300000

	f := &stubFetcher{queue: []models.Plan{before, after}}
	s := testScheduler(f)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Prime(before)
	s.Start(context.Background())

	if done := s.pollOnce(context.Background()); done {
		t.Fatal("unchanged tick must not stop")
	}
	if done := s.pollOnce(context.Background()); !done {
		t.Fatal("principal change must stop polling")
	}
	if fired != 1 {
		t.Fatalf("expected one callback, got %d", fired)
	}
}

func TestCeilingStopsSilently(t *testing.T) {
	f := &stubFetcher{queue: []models.Plan{pendingPlan()}}
	s := testScheduler(f)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Observe(context.Background(), pendingPlan())

	ticks := 0
	for !s.pollOnce(context.Background()) {
		ticks++
		if ticks > 100 {
			t.Fatal("ceiling never reached")
		}
	}
	if got := s.attempts; got != 60 {
		t.Fatalf("expected PENDING ceiling of 60 attempts, got %d", got)
	}
	if fired != 0 {
		t.Fatalf("ceiling stop must be silent, got %d callbacks", fired)
	}
	if s.Running() {
		t.Fatal("expected polling stopped")
	}
}

func TestNonPendingCeilingIsTwelve(t *testing.T) {
	plan := models.Plan{ID: "plan-1", Status: fsm.StatusActive, CurrentPrincipal: 500000}
	f := &stubFetcher{queue: []models.Plan{plan}}
	s := testScheduler(f)

	s.Prime(plan)
	s.Start(context.Background())
	for !s.pollOnce(context.Background()) {
	}
	if s.attempts != 12 {
		t.Fatalf("expected ceiling of 12 attempts, got %d", s.attempts)
	}
}

func TestFailedFetchSwallowedAndCounted(t *testing.T) {
	f := &stubFetcher{
		queue: []models.Plan{pendingPlan()},
		errs:  []error{errors.New("timeout"), nil},
	}
	s := testScheduler(f)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Observe(context.Background(), pendingPlan())
	if done := s.pollOnce(context.Background()); done {
		t.Fatal("single failed fetch must not stop polling")
	}
	if s.attempts != 1 {
		t.Fatalf("failed fetch must count toward ceiling, attempts=%d", s.attempts)
	}
	if done := s.pollOnce(context.Background()); done {
		t.Fatal("recovered tick with no change must continue")
	}
	if fired != 0 {
		t.Fatal("failures must never surface through the change callback")
	}
	s.Stop()
}

func TestRestartFencesSupersededLoop(t *testing.T) {
	changed := pendingPlan()
	changed.Status = fsm.StatusActive

	f := &stubFetcher{queue: []models.Plan{changed}}
	s := testScheduler(f)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Observe(context.Background(), pendingPlan())
	s.mu.Lock()
	staleSeq := s.seq
	s.mu.Unlock()

	// Restart supersedes the first loop.
	s.Start(context.Background())

	before := f.callCount()
	if done := s.tick(context.Background(), staleSeq); !done {
		t.Fatal("superseded tick must report done")
	}
	if f.callCount() != before {
		t.Fatal("superseded tick must not fetch")
	}
	if fired != 0 {
		t.Fatal("superseded tick must not fire callbacks")
	}
	s.Stop()
}

func TestDiffReducer(t *testing.T) {
	last := Known{Status: fsm.StatusActive, CurrentPrincipal: 500000}

	same := models.Plan{Status: fsm.StatusActive, CurrentPrincipal: 500000}
	if _, changed := Diff(last, same); changed {
		t.Fatal("identical values must not report change")
	}

	moved := models.Plan{Status: fsm.StatusMatured, CurrentPrincipal: 500000, RolloverType: models.RolloverPrincipalOnly}
	ch, changed := Diff(last, moved)
	if !changed {
		t.Fatal("status change must report")
	}
	if ch.Status != fsm.StatusMatured || !ch.Rollover {
		t.Fatalf("unexpected change: %+v", ch)
	}
}
