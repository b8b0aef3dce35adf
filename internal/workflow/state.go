package workflow

import "fmt"

// State is a step of the claim-to-search workflow
type State int

const (
	StateIdle State = iota
	StateOptimizing
	StatePendingConfirmation
	StateAutoConfirmed
	StateOptimizationFailed
	StateSearching
	StateCompleted
	StateSearchFailed
)

var stateNames = map[State]string{
	StateIdle:                "idle",
	StateOptimizing:          "optimizing",
	StatePendingConfirmation: "pending_confirmation",
	StateAutoConfirmed:       "auto_confirmed",
	StateOptimizationFailed:  "optimization_failed",
	StateSearching:           "searching",
	StateCompleted:           "completed",
	StateSearchFailed:        "search_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event drives a state transition
type Event int

const (
	// EventStartOptimized starts a run that has a typed claim to optimize
	EventStartOptimized Event = iota
	// EventStartDirect starts a run that goes straight to search
	EventStartDirect
	// EventOptimized reports an optimized query that needs approval
	EventOptimized
	// EventOptimizedSkip reports an optimized query with the skip preference set
	EventOptimizedSkip
	EventOptimizeFailed
	EventConfirm
	// EventProceed moves an auto-confirmed or degraded run into search
	EventProceed
	EventSearchSucceeded
	EventSearchFailed
	// EventRecover returns a failed search to idle once the error is surfaced
	EventRecover
	// EventReset follows a fresh extraction
	EventReset
)

var eventNames = map[Event]string{
	EventStartOptimized:  "start_optimized",
	EventStartDirect:     "start_direct",
	EventOptimized:       "optimized",
	EventOptimizedSkip:   "optimized_skip",
	EventOptimizeFailed:  "optimize_failed",
	EventConfirm:         "confirm",
	EventProceed:         "proceed",
	EventSearchSucceeded: "search_succeeded",
	EventSearchFailed:    "search_failed",
	EventRecover:         "recover",
	EventReset:           "reset",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Effect is a side effect the controller performs on a transition
type Effect int

const (
	EffectMarkBusy Effect = iota
	EffectReleaseBusy
	EffectDiscardPending
	EffectCallOptimizer
	EffectStorePending
	EffectUseOptimized
	EffectUseDegraded
	EffectCallSearch
	EffectPresentResults
	EffectSurfaceError
	EffectClearView
)

type transition struct {
	from  State
	event Event
}

type outcome struct {
	to      State
	effects []Effect
}

// startStates are the states a new run may begin from
var startStates = []State{StateIdle, StateCompleted, StatePendingConfirmation}

var transitions = buildTransitions()

func buildTransitions() map[transition]outcome {
	table := map[transition]outcome{
		{StateOptimizing, EventOptimized}: {
			to:      StatePendingConfirmation,
			effects: []Effect{EffectStorePending, EffectReleaseBusy},
		},
		{StateOptimizing, EventOptimizedSkip}: {
			to:      StateAutoConfirmed,
			effects: []Effect{EffectUseOptimized},
		},
		{StateOptimizing, EventOptimizeFailed}: {
			to:      StateOptimizationFailed,
			effects: []Effect{EffectUseDegraded},
		},
		{StatePendingConfirmation, EventConfirm}: {
			to:      StateSearching,
			effects: []Effect{EffectMarkBusy, EffectUseOptimized, EffectDiscardPending, EffectCallSearch},
		},
		{StateAutoConfirmed, EventProceed}: {
			to:      StateSearching,
			effects: []Effect{EffectCallSearch},
		},
		{StateOptimizationFailed, EventProceed}: {
			to:      StateSearching,
			effects: []Effect{EffectCallSearch},
		},
		{StateSearching, EventSearchSucceeded}: {
			to:      StateCompleted,
			effects: []Effect{EffectPresentResults, EffectReleaseBusy},
		},
		{StateSearching, EventSearchFailed}: {
			to:      StateSearchFailed,
			effects: []Effect{EffectSurfaceError, EffectReleaseBusy},
		},
		{StateSearchFailed, EventRecover}: {
			to: StateIdle,
		},
	}

	for _, from := range startStates {
		table[transition{from, EventStartOptimized}] = outcome{
			to:      StateOptimizing,
			effects: []Effect{EffectMarkBusy, EffectDiscardPending, EffectCallOptimizer},
		}
		table[transition{from, EventStartDirect}] = outcome{
			to:      StateSearching,
			effects: []Effect{EffectMarkBusy, EffectDiscardPending, EffectCallSearch},
		}
	}

	for state := range stateNames {
		table[transition{state, EventReset}] = outcome{
			to:      StateIdle,
			effects: []Effect{EffectDiscardPending, EffectClearView, EffectReleaseBusy},
		}
	}

	return table
}

// TransitionError reports an event that is not valid in the current state
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s is not allowed in state %s", e.Event, e.From)
}

// Transition returns the state an event leads to
func Transition(from State, event Event) (State, error) {
	out, ok := transitions[transition{from, event}]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	return out.to, nil
}

// Effects returns the side effects of a transition, nil if it is not allowed
func Effects(from State, event Event) []Effect {
	out, ok := transitions[transition{from, event}]
	if !ok {
		return nil
	}
	return append([]Effect(nil), out.effects...)
}

// IsTerminal reports whether a state ends a chain and frees the session
func IsTerminal(s State) bool {
	switch s {
	case StateIdle, StateCompleted, StateSearchFailed, StatePendingConfirmation:
		return true
	default:
		return false
	}
}

func hasEffect(effects []Effect, effect Effect) bool {
	for _, e := range effects {
		if e == effect {
			return true
		}
	}
	return false
}
