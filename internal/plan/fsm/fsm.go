package fsm

// Status constants used by the plan lifecycle state machine.
const (
	StatusPending = "PENDING"
	StatusActive  = "ACTIVE"
	StatusMatured = "MATURED"
	StatusClosed  = "CLOSED"
)

var transitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusActive: {},
		StatusClosed: {},
	},
	StatusActive: {
		StatusMatured: {},
		StatusClosed:  {},
	},
	StatusMatured: {
		// Rollover reactivates a matured position; in practice the server
		// issues a new plan id for the reinvested principal.
		StatusActive: {},
		StatusClosed: {},
	},
	StatusClosed: {},
}

// CanTransition returns whether a plan can move from the current status to
// the target status. The lifecycle is monotonic except MATURED -> ACTIVE via
// rollover.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminal reports whether no further mutation is possible.
func IsTerminal(status string) bool {
	return status == StatusClosed
}

// Known reports whether the status value is one the client understands.
func Known(status string) bool {
	switch status {
	case StatusPending, StatusActive, StatusMatured, StatusClosed:
		return true
	}
	return false
}
