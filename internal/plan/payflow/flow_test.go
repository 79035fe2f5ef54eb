package payflow

import (
	"errors"
	"testing"
	"time"

	"investBack/internal/models"
)

func fullPair() models.PaymentIntentPair {
	return models.PaymentIntentPair{
		InstantTransfer: &models.InstantTransferIntent{
			Amount:          100000,
			Fee:             50,
			Net:             99950,
			CheckoutURL:     "https://checkout.example/abc",
			ExpiresIn:       "1h",
			Reference:       "ref-1",
			Channel:         "card",
			BankAccountName: "Invest Ltd",
		},
		BankTransfer: &models.BankTransferIntent{
			Amount:            100000,
			BankName:          "First Bank",
			BankAccountName:   "Invest Ltd",
			BankAccountNumber: "0123456789",
			Reference:         "ref-1",
		},
	}
}

func TestBeginRequiresBothIntents(t *testing.T) {
	f := NewFlow()
	partial := fullPair()
	partial.BankTransfer = nil
	if err := f.Begin(partial); !errors.Is(err, models.ErrIncompleteIntents) {
		t.Fatalf("expected incomplete intents error, got %v", err)
	}
	if f.State() != StateIdle {
		t.Fatal("failed begin must not change state")
	}

	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if f.State() != StateMethodSelection {
		t.Fatalf("expected method selection, got %s", f.State())
	}
}

func TestInstantTransferPresentsHostedCheckout(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	p, err := f.SelectInstantTransfer()
	if err != nil {
		t.Fatalf("SelectInstantTransfer: %v", err)
	}
	if p.CheckoutURL != "https://checkout.example/abc" {
		t.Fatalf("expected hosted checkout url, got %q", p.CheckoutURL)
	}
	if p.CountdownSeconds != 3595 {
		t.Fatalf("expected 1h countdown of 3595s, got %d", p.CountdownSeconds)
	}
}

func TestInstantTransferFallsBackToInstructions(t *testing.T) {
	pair := fullPair()
	pair.InstantTransfer.CheckoutURL = ""
	pair.InstantTransfer.ExpiresIn = "soon"

	f := NewFlow()
	if err := f.Begin(pair); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	p, err := f.SelectInstantTransfer()
	if err != nil {
		t.Fatalf("SelectInstantTransfer: %v", err)
	}
	if p.CheckoutURL != "" {
		t.Fatal("expected no checkout url")
	}
	if p.AccountName != "Invest Ltd" || p.Channel != "card" {
		t.Fatalf("expected bank-style instructions, got %+v", p)
	}
	if p.CountdownSeconds != 59*60+55 {
		t.Fatalf("expected fallback countdown, got %d", p.CountdownSeconds)
	}
}

func TestBackFromMethodStatePreservesIntents(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.SelectInstantTransfer(); err != nil {
		t.Fatalf("SelectInstantTransfer: %v", err)
	}
	if err := f.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if f.State() != StateMethodSelection {
		t.Fatalf("backing out of a payment method must return to method selection, got %s", f.State())
	}
	if !f.Intents().Complete() {
		t.Fatal("intent pair must survive a change of method")
	}
	// The preserved pair can enter the other method directly.
	if _, err := f.SelectBankTransfer(); err != nil {
		t.Fatalf("SelectBankTransfer after back: %v", err)
	}
}

func TestBackFromMethodSelectionCancels(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if f.State() != StateCancelled {
		t.Fatalf("expected cancelled, got %s", f.State())
	}
}

func TestConfirmIsOptimistic(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.SelectBankTransfer(); err != nil {
		t.Fatalf("SelectBankTransfer: %v", err)
	}
	res, err := f.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !res.RestartReconciliation || !res.NavigateToPlan {
		t.Fatalf("confirmation must close the flow and restart reconciliation, got %+v", res)
	}
	if f.State() != StateConfirmed {
		t.Fatalf("expected confirmed, got %s", f.State())
	}
	// Terminal: no further moves.
	if err := f.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from confirmed, got %v", err)
	}
}

func TestConfirmRequiresMethodState(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm from method selection must fail, got %v", err)
	}
}

func TestCountdownExpiryDoesNotCancel(t *testing.T) {
	f := NewFlow()
	if err := f.Begin(fullPair()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.SelectInstantTransfer(); err != nil {
		t.Fatalf("SelectInstantTransfer: %v", err)
	}
	// Rewind the start so the countdown has fully elapsed.
	f.mu.Lock()
	f.startedAt = f.startedAt.Add(-2 * time.Hour)
	f.mu.Unlock()

	if got := f.CountdownRemaining(); got != 0 {
		t.Fatalf("expected countdown exhausted, got %d", got)
	}
	if f.State() != StateInstantTransfer {
		t.Fatal("expiry is informational and must not cancel the flow")
	}
	if _, err := f.Confirm(); err != nil {
		t.Fatalf("confirm after expiry must still work: %v", err)
	}
}

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1h", 3595},
		{"2h", 7195},
		{"", 3595},
		{"45m", 3595},
		{"0h", 3595},
	}
	for _, tc := range cases {
		if got := ParseExpiry(tc.in); got != tc.want {
			t.Fatalf("ParseExpiry(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCanTransitionTable(t *testing.T) {
	if !CanTransition(StateIdle, StateMethodSelection) {
		t.Fatal("idle must enter method selection")
	}
	if CanTransition(StateIdle, StateConfirmed) {
		t.Fatal("idle cannot confirm")
	}
	if !CanTransition(StateInstantTransfer, StateMethodSelection) {
		t.Fatal("instant transfer must allow change of method")
	}
	if CanTransition(StateConfirmed, StateCancelled) {
		t.Fatal("confirmed is terminal")
	}
}
