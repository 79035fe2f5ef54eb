package authgate

import (
	"context"
	"errors"
	"log"
	"strings"

	"investBack/internal/models"
	"investBack/internal/planapi"
)

// Authorizer submits the PIN authorization. Implemented by the plan API
// client.
type Authorizer interface {
	AuthorizeIntent(ctx context.Context, intentID, pin string) error
}

// AuthError is a recoverable authorization failure; the user may retry with
// the same intent id until the server expires it.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

const fallbackMessage = "Invalid PIN"

// Gate wraps irreversible actions behind a short-lived server-issued intent
// plus a 4-digit PIN.
type Gate struct {
	api      Authorizer
	errorLog *log.Logger
}

func NewGate(api Authorizer, errorLog *log.Logger) *Gate {
	return &Gate{api: api, errorLog: errorLog}
}

// FilterPinInput strips everything but digits and caps the result at 4
// characters. Filtering happens at entry, not as a rejection after entry.
func FilterPinInput(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 4 {
			break
		}
	}
	return b.String()
}

// ValidatePin requires exactly 4 numeric digits.
func ValidatePin(pin string) error {
	if len(pin) != 4 {
		return models.ErrInvalidPin
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return models.ErrInvalidPin
		}
	}
	return nil
}

// Authorize finalises the action behind intentID. A session without a
// configured PIN short-circuits into the "set PIN first" branch before any
// network call. Remote rejections surface the payload's message verbatim,
// falling back to a generic message, and are always retryable.
func (g *Gate) Authorize(ctx context.Context, session models.Session, intentID, pin string) error {
	if !session.PinConfigured {
		return models.ErrPinNotSet
	}
	if err := ValidatePin(pin); err != nil {
		return err
	}

	if err := g.api.AuthorizeIntent(ctx, intentID, pin); err != nil {
		g.errorLog.Printf("authgate: authorize intent %s: %v", intentID, err)
		var apiErr *planapi.APIError
		if errors.As(err, &apiErr) {
			if msg := apiErr.Message(); msg != "" {
				return &AuthError{Message: msg}
			}
		}
		return &AuthError{Message: fallbackMessage}
	}
	return nil
}
