package protocol

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "frame message",
			msgType: TypeFrame,
			data:    FrameData{Width: 640, Height: 480, Format: "jpeg"},
		},
		{
			name:    "landmarks message",
			msgType: TypeLandmarks,
			data:    LandmarksData{Landmarks: []pose.Landmark{{X: 0.5, Y: 0.5, Visibility: 1}}},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeError,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestScoredMessageRoundTrip(t *testing.T) {
	ts := time.UnixMilli(1_760_000_000_000)
	scored := pose.ScoredObservation{
		Observation: pose.NewObservation(3, ts, map[pose.JointID]float64{pose.RightArm: 195}),
		JointScores: []pose.JointScore{
			{Joint: pose.RightArm, Observed: 195, Target: 201, Accuracy: 88},
		},
		OverallAccuracy: 88,
		Tier:            pose.Excellent,
	}

	msg, err := NewScoredMessage("s-1", "vrksasana", scored, "Excellent!", true)
	if err != nil {
		t.Fatalf("NewScoredMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeScored {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeScored)
	}

	var data ScoredData
	if err := parsed.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.Seq != 3 || data.Timestamp != ts.UnixMilli() {
		t.Errorf("header = seq %d ts %d", data.Seq, data.Timestamp)
	}
	if data.Tier != pose.Excellent || data.Display != 88 || !data.PoseDetected {
		t.Errorf("feedback = %+v", data)
	}
	if len(data.Joints) != 1 || data.Joints[0].Target != 201 {
		t.Errorf("Joints = %+v", data.Joints)
	}
	if data.Angles[pose.RightArm] != 195 {
		t.Errorf("Angles = %+v", data.Angles)
	}
}

func TestSummaryMessage(t *testing.T) {
	sum := session.Summary{
		SessionID:  "s-2",
		Pose:       "tadasana",
		State:      session.Ended,
		Count:      4,
		Average:    77.5,
		Duration:   4 * time.Second,
		TierCounts: map[pose.FeedbackTier]int{pose.Good: 4},
	}

	msg, err := NewSummaryMessage(sum)
	if err != nil {
		t.Fatalf("NewSummaryMessage() error = %v", err)
	}
	var data SummaryData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.State != "ended" {
		t.Errorf("State = %q, want ended", data.State)
	}
	if data.DurationMs != 4000 {
		t.Errorf("DurationMs = %d, want 4000", data.DurationMs)
	}
	if data.TierCounts[pose.Good] != 4 {
		t.Errorf("TierCounts = %+v", data.TierCounts)
	}
}

func TestFrameMessage(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10} // Fake JPEG header

	msg, err := NewFrameMessage(640, 480, jpegData, 1)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}

	var frameData FrameData
	if err := msg.ParseData(&frameData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if frameData.Format != "jpeg" || frameData.Width != 640 || frameData.FrameID != 1 {
		t.Errorf("frame = %+v", frameData)
	}

	decoded, err := base64.StdEncoding.DecodeString(frameData.Data)
	if err != nil {
		t.Fatalf("DecodeString() error = %v", err)
	}
	if len(decoded) != len(jpegData) {
		t.Errorf("Decoded length = %v, want %v", len(decoded), len(jpegData))
	}
}

func TestLandmarksMessage(t *testing.T) {
	lm := []pose.Landmark{{X: 0.1, Y: 0.2, Visibility: 0.9}, {X: 0.3, Y: 0.4, Visibility: 0.8}}
	msg, err := NewLandmarksMessage(42, lm)
	if err != nil {
		t.Fatalf("NewLandmarksMessage() error = %v", err)
	}

	data, err := msg.GetLandmarksData()
	if err != nil {
		t.Fatalf("GetLandmarksData() error = %v", err)
	}
	if data.CapturedAt != 42 || len(data.Landmarks) != 2 {
		t.Errorf("data = %+v", data)
	}
	if data.Landmarks[1].Y != 0.4 {
		t.Errorf("Landmarks[1].Y = %v", data.Landmarks[1].Y)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewMessage(TypePing, PingData{ID: "abc", Timestamp: 100})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	p, err := ping.GetPingData()
	if err != nil || p.ID != "abc" || p.Timestamp != 100 {
		t.Fatalf("GetPingData() = %+v, %v", p, err)
	}

	pong, err := NewPongMessage("abc", 100, 150)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	var data PongData
	if err := pong.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.LatencyMs != 50 {
		t.Errorf("LatencyMs = %d, want 50", data.LatencyMs)
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage() should fail on invalid JSON")
	}
}
