package detail

import (
	"context"
	"testing"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/fsm"
)

func TestRegistryReusesLiveView(t *testing.T) {
	api := &stubAPI{plans: []models.Plan{{ID: "plan-1", Status: fsm.StatusActive, CurrentPrincipal: 100}}}
	r := NewRegistry(api, noAttempts{}, testConfig(), quiet(), quiet())
	session := models.Session{ID: "s1"}

	first, err := r.Acquire(context.Background(), session, "plan-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	second, err := r.Acquire(context.Background(), session, "plan-1")
	if err != nil {
		t.Fatalf("Acquire again: %v", err)
	}
	if first != second {
		t.Fatal("same session and plan must share one controller")
	}

	other, err := r.Acquire(context.Background(), models.Session{ID: "s2"}, "plan-1")
	if err != nil {
		t.Fatalf("Acquire other session: %v", err)
	}
	if other == first {
		t.Fatal("sessions must not share plan views")
	}
	r.Release(session, "plan-1")
	r.Release(models.Session{ID: "s2"}, "plan-1")
}

func TestRegistryAcquireLoadFailure(t *testing.T) {
	api := &stubAPI{} // empty queue: GetPlan reports not found
	r := NewRegistry(api, noAttempts{}, testConfig(), quiet(), quiet())

	if _, err := r.Acquire(context.Background(), models.Session{ID: "s1"}, "missing"); err == nil {
		t.Fatal("expected load failure to surface")
	}
	// A failed acquire must not leave a dead view behind.
	if n := r.SweepIdle(0, time.Now().Add(time.Hour)); n != 0 {
		t.Fatalf("expected empty registry, swept %d", n)
	}
}

func TestRegistrySweepIdle(t *testing.T) {
	api := &stubAPI{plans: []models.Plan{{ID: "plan-1", Status: fsm.StatusActive, CurrentPrincipal: 100}}}
	r := NewRegistry(api, noAttempts{}, testConfig(), quiet(), quiet())
	session := models.Session{ID: "s1"}

	if _, err := r.Acquire(context.Background(), session, "plan-1"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if n := r.SweepIdle(time.Hour, time.Now()); n != 0 {
		t.Fatalf("fresh view must survive the sweep, dropped %d", n)
	}
	if n := r.SweepIdle(time.Minute, time.Now().Add(time.Hour)); n != 1 {
		t.Fatalf("idle view must be dropped, got %d", n)
	}

	// A new acquire after the sweep builds a fresh view.
	c, err := r.Acquire(context.Background(), session, "plan-1")
	if err != nil {
		t.Fatalf("Acquire after sweep: %v", err)
	}
	r.Release(session, "plan-1")
	if c.Reconciling() {
		t.Fatal("released view must not keep polling")
	}
}
