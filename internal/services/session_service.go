package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"investBack/internal/models"
	"investBack/internal/repositories"
	"investBack/utils"
)

type SessionService struct {
	Repo         *repositories.SessionRepository
	TokenManager *utils.Manager
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// CreateSession opens a new session for an authenticated user and issues the
// token pair. pinConfigured comes from the upstream identity profile and is
// cached on the session for PIN-gated flows.
func (s *SessionService) CreateSession(ctx context.Context, userID string, pinConfigured bool) (models.Tokens, error) {
	refresh, err := s.TokenManager.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}
	session := models.Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		PinConfigured: pinConfigured,
		RefreshToken:  refresh,
		ExpiresAt:     time.Now().Add(s.RefreshTTL),
	}
	if err := s.Repo.SaveSession(ctx, session); err != nil {
		return models.Tokens{}, err
	}
	access, err := s.TokenManager.NewJWT(models.Claims{
		UserID:        session.UserID,
		SessionID:     session.ID,
		PinConfigured: session.PinConfigured,
	}, s.AccessTTL)
	if err != nil {
		return models.Tokens{}, err
	}
	return models.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshSession rotates the refresh token and issues a fresh access token.
// The old refresh token is invalidated as part of the rotation.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (models.Tokens, error) {
	session, err := s.Repo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return models.Tokens{}, err
	}
	if err := s.Repo.DeleteSession(ctx, session.ID); err != nil {
		return models.Tokens{}, err
	}

	rotated, err := s.TokenManager.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}
	session.RefreshToken = rotated
	session.ExpiresAt = time.Now().Add(s.RefreshTTL)
	if err := s.Repo.SaveSession(ctx, session); err != nil {
		return models.Tokens{}, err
	}

	access, err := s.TokenManager.NewJWT(models.Claims{
		UserID:        session.UserID,
		SessionID:     session.ID,
		PinConfigured: session.PinConfigured,
	}, s.AccessTTL)
	if err != nil {
		return models.Tokens{}, err
	}
	return models.Tokens{AccessToken: access, RefreshToken: rotated}, nil
}

// ResolveAccessToken validates an access token and loads its live session.
// Revoked sessions fail here even when the token itself is still valid.
func (s *SessionService) ResolveAccessToken(ctx context.Context, accessToken string) (models.Session, error) {
	claims, err := s.TokenManager.Parse(accessToken)
	if err != nil {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s.Repo.GetSession(ctx, claims.SessionID)
}

// Logout revokes the session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	return s.Repo.DeleteSession(ctx, sessionID)
}
