package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

func TestEncodeEvent(t *testing.T) {
	ref := pose.NewReferencePose("tadasana", map[pose.JointID]float64{pose.RightArm: 180})
	agg := session.NewAggregator(session.WithLogger(log.Discard()))
	sess, err := agg.Begin(ref)
	require.NoError(t, err)

	tests := []struct {
		ev   Event
		want protocol.MessageType
	}{
		{Event{Kind: EventStarted, Session: sess}, protocol.TypeSession},
		{Event{Kind: EventScored, Session: sess, Message: "ok"}, protocol.TypeScored},
		{Event{Kind: EventRejected, Session: sess, Err: pose.ErrInvalidReading}, protocol.TypeError},
		{Event{Kind: EventEnded, Session: sess, Summary: session.Summarize(sess)}, protocol.TypeSummary},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Kind.String(), func(t *testing.T) {
			msg, err := EncodeEvent(tt.ev)
			require.NoError(t, err)
			require.NotNil(t, msg)
			assert.Equal(t, tt.want, msg.Type)
		})
	}
}

func TestEncodeEvent_UnknownKind(t *testing.T) {
	msg, err := EncodeEvent(Event{Kind: EventKind(99)})
	assert.NoError(t, err)
	assert.Nil(t, msg)
}
