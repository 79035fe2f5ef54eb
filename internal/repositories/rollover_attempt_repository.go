package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RolloverAttemptRepository records unattended rollover attempts in Redis so
// a plan observed from several devices or sessions fires at most once. The
// marker is written with SET NX; only the writer that created it proceeds.
type RolloverAttemptRepository struct {
	Rdb *redis.Client
	// TTL bounds how long a marker suppresses retries. Zero keeps markers
	// for a day.
	TTL time.Duration
}

func attemptKey(planID string) string {
	return fmt.Sprintf("rollover:attempt:%s", planID)
}

func (r *RolloverAttemptRepository) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return 24 * time.Hour
}

// MarkAttempt claims the plan for an unattended rollover. It returns false
// when another writer already holds the marker.
func (r *RolloverAttemptRepository) MarkAttempt(ctx context.Context, planID string) (bool, error) {
	return r.Rdb.SetNX(ctx, attemptKey(planID), time.Now().UTC().Format(time.RFC3339), r.ttl()).Result()
}

// ClearAttempt releases the marker after a failed rollover call so the next
// observation may retry.
func (r *RolloverAttemptRepository) ClearAttempt(ctx context.Context, planID string) error {
	return r.Rdb.Del(ctx, attemptKey(planID)).Err()
}
