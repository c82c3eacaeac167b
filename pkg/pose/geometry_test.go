package pose

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestJointAngle(t *testing.T) {
	origin := Landmark{}
	tests := []struct {
		name string
		a, c Landmark
		want float64
	}{
		{"straight", Landmark{X: -1}, Landmark{X: 1}, 180},
		{"quarter ccw", Landmark{X: 1}, Landmark{Y: 1}, 90},
		{"quarter cw", Landmark{Y: 1}, Landmark{X: 1}, 270},
		{"same direction", Landmark{X: 1}, Landmark{X: 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JointAngle(tt.a, origin, tt.c); !approx(got, tt.want) {
				t.Errorf("JointAngle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDegreesRadians(t *testing.T) {
	if !approx(Degrees(math.Pi), 180) {
		t.Errorf("Degrees(pi) = %v", Degrees(math.Pi))
	}
	if !approx(Radians(90), math.Pi/2) {
		t.Errorf("Radians(90) = %v", Radians(90))
	}
}

func TestSkeleton_Angles(t *testing.T) {
	lm := make([]Landmark, 33)
	for i := range lm {
		lm[i].Visibility = 1
	}
	// Right arm held straight along the x axis.
	lm[12] = Landmark{X: 0, Y: 0, Visibility: 1}
	lm[14] = Landmark{X: 1, Y: 0, Visibility: 1}
	lm[16] = Landmark{X: 2, Y: 0, Visibility: 1}
	// Left wrist occluded.
	lm[15].Visibility = 0.1

	angles := BlazePoseSkeleton().Angles(lm, 0.5)

	if got, ok := angles[RightArm]; !ok || !approx(got, 180) {
		t.Errorf("RightArm = %v, %v; want 180", got, ok)
	}
	if _, ok := angles[LeftArm]; ok {
		t.Error("LeftArm should be skipped when a landmark is not visible")
	}

	short := BlazePoseSkeleton().Angles(lm[:20], 0.5)
	if _, ok := short[RightLeg]; ok {
		t.Error("RightLeg should be skipped when landmarks are missing")
	}
}

func TestSkeleton_SynthesizeRoundTrip(t *testing.T) {
	want := map[JointID]float64{RightArm: 195, LeftArm: 158, RightLeg: 179, LeftLeg: 185}
	sk := BlazePoseSkeleton()

	landmarks := sk.Synthesize(want, BlazePoseLandmarks)
	if len(landmarks) != BlazePoseLandmarks {
		t.Fatalf("len = %d, want %d", len(landmarks), BlazePoseLandmarks)
	}

	got := sk.Angles(landmarks, 0.5)
	if len(got) != len(want) {
		t.Fatalf("measured %d joints, want %d", len(got), len(want))
	}
	for j, deg := range want {
		if math.Abs(got[j]-deg) > 1e-6 {
			t.Errorf("%s = %v, want %v", j, got[j], deg)
		}
	}
	if landmarks[0].Visibility != 0 {
		t.Errorf("unused landmark should be invisible")
	}
}

func TestSkeleton_SynthesizeSkipsUnknownJoints(t *testing.T) {
	landmarks := BlazePoseSkeleton().Synthesize(map[JointID]float64{"neck": 90}, BlazePoseLandmarks)
	for i, l := range landmarks {
		if l.Visibility != 0 {
			t.Fatalf("landmark %d visible for an unknown joint", i)
		}
	}
}
