package pose

import (
	"encoding/json"
	"fmt"
)

// ReferencePose is the set of target joint angles (degrees) defining a
// correctly performed exercise. It is immutable once constructed.
type ReferencePose struct {
	name    string
	joints  []JointID
	targets map[JointID]float64
}

// NewReferencePose copies targets into a new reference pose.
func NewReferencePose(name string, targets map[JointID]float64) ReferencePose {
	t := copyAngles(targets)
	return ReferencePose{
		name:    name,
		joints:  sortedKeys(t),
		targets: t,
	}
}

// Name returns the exercise name.
func (r ReferencePose) Name() string { return r.name }

// Len returns the number of joints with a target.
func (r ReferencePose) Len() int { return len(r.joints) }

// Target returns the target angle for a joint.
func (r ReferencePose) Target(id JointID) (float64, bool) {
	v, ok := r.targets[id]
	return v, ok
}

// Joints returns the joints in canonical order.
func (r ReferencePose) Joints() []JointID {
	return append([]JointID(nil), r.joints...)
}

// Targets returns a copy of the target map.
func (r ReferencePose) Targets() map[JointID]float64 {
	return copyAngles(r.targets)
}

// Validate reports a configuration error for an empty pose or a target
// outside [0, 360].
func (r ReferencePose) Validate() error {
	if len(r.joints) == 0 {
		return fmt.Errorf("%w: reference pose %q has no joints", ErrConfiguration, r.name)
	}
	for _, j := range r.joints {
		if err := ValidateAngle(r.targets[j]); err != nil {
			return fmt.Errorf("reference pose %q target for %s: %w", r.name, j, err)
		}
	}
	return nil
}

type referenceJSON struct {
	Name    string              `json:"name"`
	Targets map[JointID]float64 `json:"targets"`
}

// MarshalJSON encodes the pose as {name, targets}.
func (r ReferencePose) MarshalJSON() ([]byte, error) {
	return json.Marshal(referenceJSON{Name: r.name, Targets: r.targets})
}

// UnmarshalJSON decodes {name, targets}.
func (r *ReferencePose) UnmarshalJSON(data []byte) error {
	var raw referenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewReferencePose(raw.Name, raw.Targets)
	return nil
}
