// Package session owns the record of one practice run: its reference pose,
// lifecycle state and the ordered scored observations.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// State is the session lifecycle state.
type State int

// Session states. Transitions are Idle → Active → Ended only.
const (
	Idle State = iota
	Active
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "active":
		*s = Active
	case "ended":
		*s = Ended
	default:
		return fmt.Errorf("session: unknown state %q", b)
	}
	return nil
}

// Session is owned by the Aggregator that created it. Mutation happens
// only through the Aggregator; readers use the snapshot accessors.
type Session struct {
	id  string
	ref pose.ReferencePose

	mu           sync.RWMutex
	state        State
	startTime    time.Time
	endTime      time.Time
	observations []pose.ScoredObservation
}

// Restore rebuilds an ended session from persisted data.
func Restore(id string, ref pose.ReferencePose, start, end time.Time, obs []pose.ScoredObservation) *Session {
	cp := make([]pose.ScoredObservation, len(obs))
	for i, o := range obs {
		cp[i] = o.Clone()
	}
	return &Session{
		id:           id,
		ref:          ref,
		state:        Ended,
		startTime:    start,
		endTime:      end,
		observations: cp,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Reference returns the pose this session is scored against.
func (s *Session) Reference() pose.ReferencePose { return s.ref }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsActive reports whether observations are still being recorded.
func (s *Session) IsActive() bool {
	return s.State() == Active
}

// StartTime returns when the session began.
func (s *Session) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// EndTime returns when the session ended, or the zero time.
func (s *Session) EndTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endTime
}

// Len returns the number of recorded observations.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations)
}

// Observations returns a snapshot of the recorded observations in
// recording order. The caller owns the returned slice and its elements.
func (s *Session) Observations() []pose.ScoredObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pose.ScoredObservation, len(s.observations))
	for i, o := range s.observations {
		out[i] = o.Clone()
	}
	return out
}

// Last returns the most recent observation.
func (s *Session) Last() (pose.ScoredObservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.observations) == 0 {
		return pose.ScoredObservation{}, false
	}
	return s.observations[len(s.observations)-1].Clone(), true
}
