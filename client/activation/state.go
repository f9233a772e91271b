package activation

// State identifies a position in the controller's lifecycle.
type State int

const (
	// StateIdle is the initial state; the form is visible.
	StateIdle State = iota
	// StateSubmitting means the begin-activation call is in flight.
	StateSubmitting
	// StateAwaitingActivation means a challenge was issued and the
	// instructions are being shown; polling has not started yet.
	StateAwaitingActivation
	// StatePolling means the check-activation loop is running.
	StatePolling
	// StateComplete is the terminal success state.
	StateComplete
	// StateFailed is the terminal failure state; Reset returns to Idle.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingActivation:
		return "awaitingActivation"
	case StatePolling:
		return "polling"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Listener observes state transitions, e.g. to switch a UI between the
// form and the instructions view.
type Listener func(from, to State)
