package pipeline

import "errors"

// Stage names a step of the run.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageGenerate Stage = "generate"
	StageVerify   Stage = "verify"
)

// State is a node of the run's state machine. Runs move forward only:
// Start, Discovering, Generating, Verifying, then exactly one terminal state.
type State string

const (
	StateStart       State = "Start"
	StateDiscovering State = "Discovering"
	StateGenerating  State = "Generating"
	StateVerifying   State = "Verifying"

	StateClean             State = "Clean"
	StateDirty             State = "Dirty"
	StateDiscoveryError    State = "DiscoveryError"
	StateGenerationError   State = "GenerationError"
	StateVerifierToolError State = "VerifierToolError"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateClean, StateDirty, StateDiscoveryError, StateGenerationError, StateVerifierToolError:
		return true
	}
	return false
}

// Outcome maps the error returned by a run to its terminal state.
// Errors that are not a *Error (context cancellation) map to the empty state.
func Outcome(err error) State {
	if err == nil {
		return StateClean
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return ""
	}
	switch pe.Kind {
	case DiscoveryError:
		return StateDiscoveryError
	case CompilerError:
		return StateGenerationError
	case VerifierToolError:
		return StateVerifierToolError
	case DriftDetected:
		return StateDirty
	}
	return ""
}

func (s Stage) state() State {
	switch s {
	case StageDiscover:
		return StateDiscovering
	case StageGenerate:
		return StateGenerating
	case StageVerify:
		return StateVerifying
	}
	return StateStart
}
