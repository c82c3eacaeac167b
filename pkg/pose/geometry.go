package pose

import "math"

// Landmark is a normalized body keypoint emitted by a pose estimator.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// JointAngle returns the angle at vertex b measured counter-clockwise
// from b→a to b→c, in [0, 360).
func JointAngle(a, b, c Landmark) float64 {
	from := math.Atan2(a.Y-b.Y, a.X-b.X)
	to := math.Atan2(c.Y-b.Y, c.X-b.X)
	deg := math.Mod(Degrees(to-from), 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Skeleton maps each joint to the (a, vertex, c) landmark indices used to
// measure it.
type Skeleton map[JointID][3]int

// BlazePoseSkeleton uses the 33-point MediaPipe BlazePose numbering:
// arms are shoulder-elbow-wrist, legs are hip-knee-ankle.
func BlazePoseSkeleton() Skeleton {
	return Skeleton{
		RightArm: {12, 14, 16},
		LeftArm:  {11, 13, 15},
		RightLeg: {24, 26, 28},
		LeftLeg:  {23, 25, 27},
	}
}

// Angles measures every joint whose three landmarks exist and are at least
// minVisibility visible. Joints that cannot be measured are omitted.
func (s Skeleton) Angles(landmarks []Landmark, minVisibility float64) map[JointID]float64 {
	out := make(map[JointID]float64, len(s))
	for joint, idx := range s {
		var pts [3]Landmark
		ok := true
		for i, n := range idx {
			if n < 0 || n >= len(landmarks) || landmarks[n].Visibility < minVisibility {
				ok = false
				break
			}
			pts[i] = landmarks[n]
		}
		if ok {
			out[joint] = JointAngle(pts[0], pts[1], pts[2])
		}
	}
	return out
}

// BlazePoseLandmarks is the number of points in a BlazePose frame.
const BlazePoseLandmarks = 33

// Synthesize builds n landmarks that measure as angles under s. Each
// joint's vertex is laid out left to right along the frame with limbs of
// fixed length. Landmarks no joint uses are left invisible.
func (s Skeleton) Synthesize(angles map[JointID]float64, n int) []Landmark {
	const limb = 0.12

	out := make([]Landmark, n)
	joints := make([]JointID, 0, len(angles))
	for j := range angles {
		if _, ok := s[j]; ok {
			joints = append(joints, j)
		}
	}
	SortJoints(joints)

	for i, j := range joints {
		idx := s[j]
		if idx[0] >= n || idx[1] >= n || idx[2] >= n {
			continue
		}
		vx := float64(i+1) / float64(len(joints)+1)
		vy := 0.5
		from := Radians(-90)
		to := from + Radians(angles[j])

		out[idx[1]] = Landmark{X: vx, Y: vy, Visibility: 1}
		out[idx[0]] = Landmark{X: vx + limb*math.Cos(from), Y: vy + limb*math.Sin(from), Visibility: 1}
		out[idx[2]] = Landmark{X: vx + limb*math.Cos(to), Y: vy + limb*math.Sin(to), Visibility: 1}
	}
	return out
}
