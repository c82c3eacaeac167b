package protocol

import (
	"encoding/base64"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewScoredMessage creates a scored message. message is the coaching
// text for the observation's tier.
func NewScoredMessage(sessionID, poseName string, s pose.ScoredObservation, message string, detected bool) (*Message, error) {
	return NewMessage(TypeScored, ScoredData{
		SessionID:    sessionID,
		Pose:         poseName,
		Seq:          s.Observation.Seq(),
		Timestamp:    s.Observation.Timestamp().UnixMilli(),
		Accuracy:     s.OverallAccuracy,
		Display:      s.DisplayAccuracy(),
		Tier:         s.Tier,
		Message:      message,
		PoseDetected: detected,
		Joints:       s.JointScores,
		Angles:       s.Observation.Angles(),
	})
}

// NewSessionMessage creates a lifecycle message for s
func NewSessionMessage(s *session.Session) (*Message, error) {
	return NewMessage(TypeSession, SessionFromSession(s))
}

// SessionFromSession flattens a session's lifecycle state for the wire
func SessionFromSession(s *session.Session) SessionData {
	data := SessionData{
		SessionID: s.ID(),
		Pose:      s.Reference().Name(),
		State:     s.State().String(),
		StartedAt: s.StartTime().UnixMilli(),
	}
	if end := s.EndTime(); !end.IsZero() {
		data.EndedAt = end.UnixMilli()
	}
	return data
}

// NewSummaryMessage creates a summary message
func NewSummaryMessage(sum session.Summary) (*Message, error) {
	return NewMessage(TypeSummary, SummaryFromSession(sum))
}

// SummaryFromSession flattens a session summary for the wire
func SummaryFromSession(sum session.Summary) SummaryData {
	return SummaryData{
		SessionID:     sum.SessionID,
		Pose:          sum.Pose,
		State:         sum.State.String(),
		Count:         sum.Count,
		Best:          sum.Best,
		Average:       sum.Average,
		Worst:         sum.Worst,
		Improvement:   sum.Improvement,
		DurationMs:    sum.Duration.Milliseconds(),
		JointAccuracy: sum.JointAccuracy,
		TierCounts:    sum.TierCounts,
	}
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewLandmarksMessage creates a landmarks message
func NewLandmarksMessage(capturedAt int64, landmarks []pose.Landmark) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{
		CapturedAt: capturedAt,
		Landmarks:  landmarks,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts landmarks from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
