package detail

import (
	"context"
	"log"
	"sync"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/watch"
)

// Registry hands out one live Controller per (session, plan) pair so the
// HTTP surface shares a single polling loop per plan view. Views are
// released explicitly or swept after idling.
type Registry struct {
	api      PlanAPI
	attempts watch.AttemptStore
	cfg      Config
	infoLog  *log.Logger
	errorLog *log.Logger

	mu    sync.Mutex
	views map[string]*view
}

type view struct {
	controller *Controller
	lastTouch  time.Time
}

func NewRegistry(api PlanAPI, attempts watch.AttemptStore, cfg Config, infoLog, errorLog *log.Logger) *Registry {
	return &Registry{
		api:      api,
		attempts: attempts,
		cfg:      cfg,
		infoLog:  infoLog,
		errorLog: errorLog,
		views:    make(map[string]*view),
	}
}

func viewKey(session models.Session, planID string) string {
	return session.ID + ":" + planID
}

// Acquire returns the live controller for the plan view, creating and
// loading one on first access.
func (r *Registry) Acquire(ctx context.Context, session models.Session, planID string) (*Controller, error) {
	key := viewKey(session, planID)

	r.mu.Lock()
	if v, ok := r.views[key]; ok {
		v.lastTouch = time.Now()
		r.mu.Unlock()
		return v.controller, nil
	}
	r.mu.Unlock()

	c := NewController(r.api, r.attempts, session, r.cfg, r.infoLog, r.errorLog)
	if err := c.Load(ctx, planID); err != nil {
		c.Close()
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.views[key]; ok {
		// Lost the race to a concurrent first access.
		c.Close()
		v.lastTouch = time.Now()
		return v.controller, nil
	}
	r.views[key] = &view{controller: c, lastTouch: time.Now()}
	return c, nil
}

// Release tears down the plan view, cancelling its loops and timers.
func (r *Registry) Release(session models.Session, planID string) {
	key := viewKey(session, planID)
	r.mu.Lock()
	v, ok := r.views[key]
	if ok {
		delete(r.views, key)
	}
	r.mu.Unlock()
	if ok {
		v.controller.Close()
	}
}

// SweepIdle closes views untouched for longer than maxIdle and returns how
// many were dropped.
func (r *Registry) SweepIdle(maxIdle time.Duration, now time.Time) int {
	r.mu.Lock()
	var stale []*view
	for key, v := range r.views {
		if now.Sub(v.lastTouch) > maxIdle {
			stale = append(stale, v)
			delete(r.views, key)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		v.controller.Close()
	}
	return len(stale)
}
