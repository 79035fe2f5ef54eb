package models

import (
	"errors"
)

var ErrNoRecord = errors.New("models: no matching record found")

var (
	ErrPlanNotFound       = errors.New("models: plan not found")
	ErrPlanClosed         = errors.New("models: plan is closed")
	ErrActionNotAvailable = errors.New("models: action not available for plan status")
	ErrAmountOutOfRange   = errors.New("models: amount must be positive and not exceed current principal")
	ErrNegativePayout     = errors.New("models: computed payout would be negative")
	ErrIncompleteIntents  = errors.New("models: both payment options are required")
	ErrPinNotSet          = errors.New("models: transaction pin is not configured")
	ErrInvalidPin         = errors.New("models: pin must be exactly 4 digits")
	ErrTermsNotAccepted   = errors.New("models: withdrawal terms must be accepted")
	ErrSessionNotFound    = errors.New("models: session not found")
	ErrInvalidRollover    = errors.New("models: invalid rollover type")
)
