package main

import (
	"context"
	"log"
	"time"

	"investBack/internal/plan/detail"
)

const (
	viewSweepInterval  = 5 * time.Minute
	defaultViewMaxIdle = 15 * time.Minute
)

// startViewSweeper periodically closes plan views nobody has touched for a
// while, so abandoned sessions do not keep polling loops and timers alive.
func startViewSweeper(ctx context.Context, registry *detail.Registry, maxIdle time.Duration, infoLog *log.Logger) {
	if registry == nil {
		return
	}
	if maxIdle <= 0 {
		maxIdle = defaultViewMaxIdle
	}

	go func() {
		ticker := time.NewTicker(viewSweepInterval)
		defer ticker.Stop()

		run := func() {
			if dropped := registry.SweepIdle(maxIdle, time.Now()); dropped > 0 && infoLog != nil {
				infoLog.Printf("view sweeper: closed %d idle plan views", dropped)
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
