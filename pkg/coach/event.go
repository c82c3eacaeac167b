package coach

import (
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// EventKind identifies an engine event.
type EventKind int

const (
	EventStarted  EventKind = iota // session began
	EventScored                    // an observation was scored and recorded
	EventRejected                  // a reading was rejected
	EventEnded                     // session ended, by Stop or a fatal source error
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventScored:
		return "scored"
	case EventRejected:
		return "rejected"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Fields not relevant to Kind are zero.
type Event struct {
	Kind    EventKind
	Session *session.Session

	// EventScored
	Scored       pose.ScoredObservation
	Message      string
	PoseDetected bool

	// EventEnded
	Summary session.Summary

	// EventRejected, or the fatal cause on EventEnded
	Err error
}

// EncodeEvent converts an event to its wire message. It returns nil for
// kinds without one.
func EncodeEvent(ev Event) (*protocol.Message, error) {
	switch ev.Kind {
	case EventStarted:
		return protocol.NewSessionMessage(ev.Session)
	case EventScored:
		return protocol.NewScoredMessage(ev.Session.ID(), ev.Session.Reference().Name(),
			ev.Scored, ev.Message, ev.PoseDetected)
	case EventRejected:
		return protocol.NewErrorMessage("rejected", ev.Err.Error())
	case EventEnded:
		return protocol.NewSummaryMessage(ev.Summary)
	}
	return nil, nil
}
