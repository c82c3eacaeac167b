// Package protocol defines the WebSocket and MQTT message envelopes shared
// by the dashboard, the terminal client and landmark suppliers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Engine → clients
	TypeScored  MessageType = "scored"  // One scored observation
	TypeSession MessageType = "session" // Session lifecycle change
	TypeSummary MessageType = "summary" // Session summary
	TypeFrame   MessageType = "frame"   // Camera preview frame
	TypeError   MessageType = "error"   // Engine error

	// Estimator → engine
	TypeLandmarks MessageType = "landmarks" // Pose landmarks for one frame

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Engine → Client Message Types
// =============================================================================

// ScoredData is one scored observation as shown on the practice screen.
type ScoredData struct {
	SessionID    string                   `json:"session_id"`
	Pose         string                   `json:"pose"`
	Seq          uint64                   `json:"seq"`
	Timestamp    int64                    `json:"timestamp"` // Unix milliseconds
	Accuracy     float64                  `json:"accuracy"`
	Display      int                      `json:"display"`
	Tier         pose.FeedbackTier        `json:"tier"`
	Message      string                   `json:"message"`
	PoseDetected bool                     `json:"pose_detected"`
	Joints       []pose.JointScore        `json:"joints"`
	Angles       map[pose.JointID]float64 `json:"angles"`
}

// SessionData announces a lifecycle transition.
type SessionData struct {
	SessionID string `json:"session_id"`
	Pose      string `json:"pose"`
	State     string `json:"state"`
	StartedAt int64  `json:"started_at"`
	EndedAt   int64  `json:"ended_at,omitempty"`
}

// SummaryData is a session summary flattened for the wire.
type SummaryData struct {
	SessionID     string                    `json:"session_id"`
	Pose          string                    `json:"pose"`
	State         string                    `json:"state"`
	Count         int                       `json:"count"`
	Best          float64                   `json:"best"`
	Average       float64                   `json:"average"`
	Worst         float64                   `json:"worst"`
	Improvement   float64                   `json:"improvement"`
	DurationMs    int64                     `json:"duration_ms"`
	JointAccuracy map[pose.JointID]float64  `json:"joint_accuracy"`
	TierCounts    map[pose.FeedbackTier]int `json:"tier_counts"`
}

// FrameData contains a camera preview frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ErrorData reports a failure to clients.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Estimator → Engine Message Types
// =============================================================================

// LandmarksData is one frame of pose landmarks from an external estimator.
type LandmarksData struct {
	CapturedAt int64           `json:"captured_at,omitempty"` // Unix milliseconds
	Landmarks  []pose.Landmark `json:"landmarks"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
