package session

import "errors"

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current state, e.g. Record after End.
	ErrInvalidState = errors.New("session: invalid state")

	// ErrSessionActive is returned when Begin is called while another
	// session in the same aggregator is still active.
	ErrSessionActive = errors.New("session: another session is active")
)
