package pose

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestJointLabel(t *testing.T) {
	tests := []struct {
		joint JointID
		want  string
	}{
		{RightArm, "Right Arm"},
		{LeftLeg, "Left Leg"},
		{JointID("neck"), "Neck"},
	}
	for _, tt := range tests {
		if got := tt.joint.Label(); got != tt.want {
			t.Errorf("%s.Label() = %q, want %q", tt.joint, got, tt.want)
		}
	}
}

func TestSortJoints(t *testing.T) {
	joints := []JointID{"neck", LeftLeg, RightArm, "hip", LeftArm}
	SortJoints(joints)

	want := []JointID{RightArm, LeftArm, LeftLeg, "hip", "neck"}
	if diff := cmp.Diff(want, joints); diff != "" {
		t.Errorf("SortJoints mismatch (-want +got):\n%s", diff)
	}
}

func TestReferencePose_CopiesInput(t *testing.T) {
	targets := map[JointID]float64{RightArm: 201, LeftArm: 162}
	ref := NewReferencePose("tree", targets)

	targets[RightArm] = 0
	if v, _ := ref.Target(RightArm); v != 201 {
		t.Errorf("reference mutated through input map: %v", v)
	}

	out := ref.Targets()
	out[LeftArm] = 0
	if v, _ := ref.Target(LeftArm); v != 162 {
		t.Errorf("reference mutated through Targets(): %v", v)
	}

	if diff := cmp.Diff([]JointID{RightArm, LeftArm}, ref.Joints()); diff != "" {
		t.Errorf("Joints mismatch (-want +got):\n%s", diff)
	}
}

func TestReferencePose_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ref     ReferencePose
		wantErr bool
	}{
		{"empty", NewReferencePose("empty", nil), true},
		{"nan target", NewReferencePose("bad", map[JointID]float64{RightArm: math.NaN()}), true},
		{"inf target", NewReferencePose("bad", map[JointID]float64{RightArm: math.Inf(1)}), true},
		{"negative target", NewReferencePose("bad", map[JointID]float64{RightArm: -10}), true},
		{"target above full turn", NewReferencePose("bad", map[JointID]float64{RightArm: 900}), true},
		{"bounds inclusive", NewReferencePose("ok", map[JointID]float64{RightArm: 0, LeftArm: 360}), false},
		{"valid", NewReferencePose("ok", map[JointID]float64{RightArm: 180}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Validate() = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAngle(t *testing.T) {
	tests := []struct {
		deg     float64
		wantErr bool
	}{
		{0, false},
		{180, false},
		{360, false},
		{-0.1, true},
		{360.1, true},
		{math.NaN(), true},
		{math.Inf(-1), true},
	}
	for _, tt := range tests {
		err := ValidateAngle(tt.deg)
		if tt.wantErr != (err != nil) {
			t.Errorf("ValidateAngle(%v) = %v, wantErr %v", tt.deg, err, tt.wantErr)
		}
		if err != nil {
			if !errors.Is(err, ErrInvalidReading) || !errors.Is(err, ErrConfiguration) {
				t.Errorf("ValidateAngle(%v) error %v should wrap ErrInvalidReading and ErrConfiguration", tt.deg, err)
			}
		}
	}
}

func TestObservation_JSON(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	obs := NewObservation(7, ts, map[JointID]float64{RightArm: 195, LeftLeg: 185})

	data, err := json.Marshal(obs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Observation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Seq() != 7 || !back.Timestamp().Equal(ts) {
		t.Errorf("round trip lost header: seq=%d ts=%v", back.Seq(), back.Timestamp())
	}
	if diff := cmp.Diff(obs.Angles(), back.Angles()); diff != "" {
		t.Errorf("angles mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedbackTier_Text(t *testing.T) {
	for _, tier := range Tiers() {
		b, err := tier.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", tier, err)
		}
		var got FeedbackTier
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if got != tier {
			t.Errorf("tier round trip = %v, want %v", got, tier)
		}
	}

	if _, err := ParseTier("amazing"); err == nil {
		t.Error("ParseTier should reject unknown names")
	}
	if NeedsImprovement.Label() != "Needs Improvement" {
		t.Errorf("Label = %q", NeedsImprovement.Label())
	}
}

func TestScoredObservation_Helpers(t *testing.T) {
	s := ScoredObservation{
		JointScores: []JointScore{
			{Joint: RightArm, Observed: 195, Target: 201, Accuracy: 88},
		},
		OverallAccuracy: 92.5,
	}

	if got := s.DisplayAccuracy(); got != 93 {
		t.Errorf("DisplayAccuracy = %d, want 93", got)
	}
	js, ok := s.JointScore(RightArm)
	if !ok || js.Deviation() != 6 {
		t.Errorf("JointScore(RightArm) = %+v, %v", js, ok)
	}
	if _, ok := s.JointScore(LeftLeg); ok {
		t.Error("JointScore(LeftLeg) should be absent")
	}

	c := s.Clone()
	c.JointScores[0].Accuracy = 0
	if s.JointScores[0].Accuracy != 88 {
		t.Error("Clone shares JointScores with original")
	}
}
