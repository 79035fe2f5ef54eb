package payflow

import (
	"errors"
	"regexp"
	"strconv"
	"sync"
	"time"

	"investBack/internal/models"
	"investBack/internal/plan/timeutil"
)

// State of the payment workflow.
type State string

const (
	StateIdle            State = "idle"
	StateMethodSelection State = "method_selection"
	StateInstantTransfer State = "instant_transfer"
	StateBankTransfer    State = "bank_transfer"
	StateConfirmed       State = "confirmed"
	StateCancelled       State = "cancelled"
)

var ErrInvalidTransition = errors.New("payflow: invalid transition")

var transitions = map[State]map[State]struct{}{
	StateIdle: {
		StateMethodSelection: {},
		StateCancelled:       {},
	},
	StateMethodSelection: {
		StateInstantTransfer: {},
		StateBankTransfer:    {},
		StateCancelled:       {},
	},
	StateInstantTransfer: {
		StateMethodSelection: {},
		StateConfirmed:       {},
		StateCancelled:       {},
	},
	StateBankTransfer: {
		StateMethodSelection: {},
		StateConfirmed:       {},
		StateCancelled:       {},
	},
	StateConfirmed: {},
	StateCancelled: {},
}

// CanTransition returns whether the workflow may move between two states.
func CanTransition(from, to State) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Presentation is what the active payment state displays.
type Presentation struct {
	// CheckoutURL is set for hosted instant checkout; empty means bank-style
	// instructions are shown instead.
	CheckoutURL   string `json:"checkoutUrl,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Channel       string `json:"channel,omitempty"`
	Reference     string `json:"reference"`
	Amount        int64  `json:"amount"`
	// CountdownSeconds is the informational expiry countdown; zero means no
	// countdown applies (bank transfer).
	CountdownSeconds int `json:"countdownSeconds,omitempty"`
}

// Result of the optimistic confirmation. The claim is not verified here;
// reconciliation catches up with server truth asynchronously.
type Result struct {
	RestartReconciliation bool
	NavigateToPlan        bool
}

// Flow drives one payment workflow: method selection, provider-specific
// presentation, optimistic confirmation. It consumes exactly one intent pair
// and preserves it across "change method" round trips so backing out never
// re-triggers intent creation.
type Flow struct {
	mu        sync.Mutex
	state     State
	pair      models.PaymentIntentPair
	countdown int
	startedAt time.Time
	now       timeutil.NowFunc
}

func NewFlow() *Flow {
	return &Flow{state: StateIdle, now: time.Now}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Intents returns the pair fetched when the flow began.
func (f *Flow) Intents() models.PaymentIntentPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pair
}

// Begin enters method selection. Both payment options must be available
// simultaneously; the orchestrator never presents partial options.
func (f *Flow) Begin(pair models.PaymentIntentPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrInvalidTransition
	}
	if !pair.Complete() {
		return models.ErrIncompleteIntents
	}
	f.pair = pair
	f.state = StateMethodSelection
	return nil
}

// SelectInstantTransfer presents the instant payment option with its expiry
// countdown.
func (f *Flow) SelectInstantTransfer() (Presentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateInstantTransfer) || f.state != StateMethodSelection {
		return Presentation{}, ErrInvalidTransition
	}
	intent := f.pair.InstantTransfer
	f.state = StateInstantTransfer
	f.countdown = ParseExpiry(intent.ExpiresIn)
	f.startedAt = f.now()

	p := Presentation{
		Reference:        intent.Reference,
		Amount:           intent.Amount,
		CountdownSeconds: f.countdown,
	}
	if intent.CheckoutURL != "" {
		p.CheckoutURL = intent.CheckoutURL
	} else {
		// No hosted checkout: fall back to bank-style instructions with the
		// same countdown semantics.
		p.AccountName = intent.BankAccountName
		p.Channel = intent.Channel
	}
	return p, nil
}

// SelectBankTransfer presents the manual transfer instructions. Purely
// informational, no countdown.
func (f *Flow) SelectBankTransfer() (Presentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateBankTransfer) || f.state != StateMethodSelection {
		return Presentation{}, ErrInvalidTransition
	}
	intent := f.pair.BankTransfer
	f.state = StateBankTransfer
	f.countdown = 0
	return Presentation{
		BankName:      intent.BankName,
		AccountName:   intent.BankAccountName,
		AccountNumber: intent.BankAccountNumber,
		Reference:     intent.Reference,
		Amount:        intent.Amount,
	}, nil
}

// Back leaves the current state one step: a payment-method state returns to
// method selection keeping the fetched intents, method selection itself
// cancels the flow.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateInstantTransfer, StateBankTransfer:
		f.state = StateMethodSelection
		f.countdown = 0
		return nil
	case StateMethodSelection:
		f.state = StateCancelled
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Cancel closes the flow from any non-terminal state.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateCancelled) {
		return ErrInvalidTransition
	}
	f.state = StateCancelled
	return nil
}

// Confirm records the user's optimistic "I have paid" claim. Nothing is
// verified here: the flow closes and the caller restarts reconciliation so
// the claim is checked against server truth asynchronously.
func (f *Flow) Confirm() (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateInstantTransfer && f.state != StateBankTransfer {
		return Result{}, ErrInvalidTransition
	}
	f.state = StateConfirmed
	return Result{RestartReconciliation: true, NavigateToPlan: true}, nil
}

// CountdownRemaining returns the seconds left on the informational expiry
// countdown. Reaching zero never cancels the flow; the user must confirm or
// cancel explicitly.
func (f *Flow) CountdownRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateInstantTransfer || f.countdown == 0 {
		return 0
	}
	elapsed := int(f.now().Sub(f.startedAt) / time.Second)
	remaining := f.countdown - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

var hourExpiry = regexp.MustCompile(`^(\d+)h$`)

// ParseExpiry converts a provider expiry hint into countdown seconds. Hour
// counts like "1h" map to hours*3600-5; anything else falls back to a fixed
// 59m55s window.
func ParseExpiry(expiresIn string) int {
	if m := hourExpiry.FindStringSubmatch(expiresIn); m != nil {
		hours, err := strconv.Atoi(m[1])
		if err == nil && hours > 0 {
			return hours*3600 - 5
		}
	}
	return 59*60 + 55
}
