package voice

import "fmt"

// State is the lifecycle of a live voice session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FailReason distinguishes why a session entered StateFailed: the user
// can fix a microphone denial themselves, while a lost transport calls
// for reconnecting.
type FailReason string

const (
	FailNone          FailReason = ""
	FailMicPermission FailReason = "microphone permission denied"
	FailTransportLost FailReason = "transport lost"
)

// Status pairs a state with its failure reason, if any.
type Status struct {
	State  State
	Reason FailReason
	Err    error
}

type event int

const (
	evStart event = iota
	evMicDenied
	evTransportOpen
	evTransportClosed
	evTransportError
	evStop
)

// transition is the pure state function. Events that are meaningless in
// the current state are ignored, so a stray transport callback arriving
// after a stop can never corrupt the session.
func transition(s State, ev event) State {
	switch ev {
	case evStart:
		if s == StateIdle || s == StateFailed {
			return StateConnecting
		}
	case evMicDenied:
		if s == StateConnecting {
			return StateFailed
		}
	case evTransportOpen:
		if s == StateConnecting {
			return StateActive
		}
	case evTransportClosed, evTransportError:
		if s == StateConnecting || s == StateActive {
			return StateFailed
		}
	case evStop:
		return StateIdle
	}
	return s
}
