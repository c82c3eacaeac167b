package pose

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Angle bounds accepted at the sampling boundary.
const (
	MinAngle = 0.0
	MaxAngle = 360.0
)

// ValidateAngle rejects non-finite and out-of-range degree values.
func ValidateAngle(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: angle %v is not finite", ErrInvalidReading, deg)
	}
	if deg < MinAngle || deg > MaxAngle {
		return fmt.Errorf("%w: angle %.2f outside [%.0f, %.0f]", ErrInvalidReading, deg, MinAngle, MaxAngle)
	}
	return nil
}

// Observation is one timestamped snapshot of joint angles. It is never
// mutated after construction.
type Observation struct {
	seq       uint64
	timestamp time.Time
	angles    map[JointID]float64
}

// NewObservation copies angles into a new observation.
func NewObservation(seq uint64, ts time.Time, angles map[JointID]float64) Observation {
	return Observation{
		seq:       seq,
		timestamp: ts,
		angles:    copyAngles(angles),
	}
}

// Seq is the per-session sequence number assigned by the sampler.
func (o Observation) Seq() uint64 { return o.seq }

// Timestamp returns when the reading was taken.
func (o Observation) Timestamp() time.Time { return o.timestamp }

// Len returns the number of joints observed.
func (o Observation) Len() int { return len(o.angles) }

// Angle returns the observed angle for a joint.
func (o Observation) Angle(id JointID) (float64, bool) {
	v, ok := o.angles[id]
	return v, ok
}

// Joints returns the observed joints in canonical order.
func (o Observation) Joints() []JointID {
	return sortedKeys(o.angles)
}

// Angles returns a copy of the angle map.
func (o Observation) Angles() map[JointID]float64 {
	return copyAngles(o.angles)
}

type observationJSON struct {
	Seq       uint64              `json:"seq"`
	Timestamp time.Time           `json:"timestamp"`
	Angles    map[JointID]float64 `json:"angles"`
}

// MarshalJSON encodes the observation as {seq, timestamp, angles}.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{Seq: o.seq, Timestamp: o.timestamp, Angles: o.angles})
}

// UnmarshalJSON decodes {seq, timestamp, angles}.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw observationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = NewObservation(raw.Seq, raw.Timestamp, raw.Angles)
	return nil
}
