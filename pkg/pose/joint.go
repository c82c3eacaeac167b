// Package pose defines the data model shared by the scoring pipeline:
// joints, reference poses, observations and their scored form.
package pose

import (
	"sort"
	"strings"
)

// JointID identifies a tracked body segment.
type JointID string

// Tracked joints.
const (
	RightArm JointID = "right_arm"
	LeftArm  JointID = "left_arm"
	RightLeg JointID = "right_leg"
	LeftLeg  JointID = "left_leg"
)

var canonicalOrder = map[JointID]int{
	RightArm: 0,
	LeftArm:  1,
	RightLeg: 2,
	LeftLeg:  3,
}

// DefaultJoints returns the canonical joint set in display order.
func DefaultJoints() []JointID {
	return []JointID{RightArm, LeftArm, RightLeg, LeftLeg}
}

// Label returns a human readable name, e.g. "Right Arm".
func (j JointID) Label() string {
	parts := strings.Split(string(j), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// SortJoints orders joints canonically; unknown joints follow alphabetically.
func SortJoints(joints []JointID) {
	sort.SliceStable(joints, func(a, b int) bool {
		ia, okA := canonicalOrder[joints[a]]
		ib, okB := canonicalOrder[joints[b]]
		switch {
		case okA && okB:
			return ia < ib
		case okA:
			return true
		case okB:
			return false
		default:
			return joints[a] < joints[b]
		}
	})
}

func sortedKeys(m map[JointID]float64) []JointID {
	keys := make([]JointID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortJoints(keys)
	return keys
}

func copyAngles(m map[JointID]float64) map[JointID]float64 {
	out := make(map[JointID]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
