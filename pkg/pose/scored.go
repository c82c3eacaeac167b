package pose

import (
	"fmt"
	"math"
)

// FeedbackTier is a discrete coaching category derived from overall accuracy.
type FeedbackTier int

// Tiers ordered by accuracy ascending.
const (
	NeedsImprovement FeedbackTier = iota
	Good
	Excellent
)

var tierNames = map[FeedbackTier]string{
	NeedsImprovement: "needs_improvement",
	Good:             "good",
	Excellent:        "excellent",
}

// Tiers returns all tiers in ascending order.
func Tiers() []FeedbackTier {
	return []FeedbackTier{NeedsImprovement, Good, Excellent}
}

func (t FeedbackTier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Label returns the display form, e.g. "Needs Improvement".
func (t FeedbackTier) Label() string {
	return JointID(t.String()).Label()
}

// ParseTier parses the String form of a tier.
func ParseTier(s string) (FeedbackTier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return NeedsImprovement, fmt.Errorf("pose: unknown feedback tier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t FeedbackTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FeedbackTier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// JointScore is the accuracy of one joint in one observation.
type JointScore struct {
	Joint    JointID `json:"joint"`
	Observed float64 `json:"observed"`
	Target   float64 `json:"target"`
	Accuracy float64 `json:"accuracy"` // [0, 100]
}

// Deviation is the absolute distance from target in degrees.
func (s JointScore) Deviation() float64 {
	return math.Abs(s.Observed - s.Target)
}

// ScoredObservation is an observation together with its joint scores,
// overall accuracy and feedback tier.
type ScoredObservation struct {
	Observation     Observation  `json:"observation"`
	JointScores     []JointScore `json:"joint_scores"`
	OverallAccuracy float64      `json:"overall_accuracy"`
	Tier            FeedbackTier `json:"tier"`
}

// DisplayAccuracy rounds the overall accuracy for display.
func (s ScoredObservation) DisplayAccuracy() int {
	return int(math.Round(s.OverallAccuracy))
}

// JointScore returns the score for a joint if it was scored.
func (s ScoredObservation) JointScore(id JointID) (JointScore, bool) {
	for _, js := range s.JointScores {
		if js.Joint == id {
			return js, true
		}
	}
	return JointScore{}, false
}

// Clone returns a copy that shares no slices with s.
func (s ScoredObservation) Clone() ScoredObservation {
	out := s
	out.JointScores = append([]JointScore(nil), s.JointScores...)
	return out
}
