package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"investBack/internal/models"
)

// SessionRepository keeps authenticated sessions in Redis, keyed both by
// session id and by refresh token so either side of the token pair can be
// resolved.
type SessionRepository struct {
	Rdb *redis.Client
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func refreshKey(token string) string {
	return fmt.Sprintf("session:refresh:%s", token)
}

// SaveSession stores the session under both keys with a TTL matching its
// expiry.
func (r *SessionRepository) SaveSession(ctx context.Context, session models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return models.ErrSessionNotFound
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	pipe := r.Rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), raw, ttl)
	pipe.Set(ctx, refreshKey(session.RefreshToken), session.ID, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetSession resolves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	raw, err := r.Rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// GetSessionByRefreshToken resolves a session through the refresh-token index.
func (r *SessionRepository) GetSessionByRefreshToken(ctx context.Context, token string) (models.Session, error) {
	sessionID, err := r.Rdb.Get(ctx, refreshKey(token)).Result()
	if err == redis.Nil {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	return r.GetSession(ctx, sessionID)
}

// SetPinConfigured updates the PIN flag on a live session, preserving its TTL.
func (r *SessionRepository) SetPinConfigured(ctx context.Context, sessionID string, configured bool) error {
	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.PinConfigured = configured
	return r.SaveSession(ctx, session)
}

// DeleteSession removes the session and its refresh-token index.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := r.GetSession(ctx, sessionID)
	if err == models.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.Rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.Del(ctx, refreshKey(session.RefreshToken))
	_, err = pipe.Exec(ctx)
	return err
}
