package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// JointBreakdown compares the latest reading of a joint with its target.
type JointBreakdown struct {
	Joint    pose.JointID `json:"joint"`
	Label    string       `json:"label"`
	Target   float64      `json:"target"`
	Current  float64      `json:"current"`
	Off      float64      `json:"off"` // absolute degrees
	Accuracy float64      `json:"accuracy"`
}

// Breakdown reports every scored joint of the latest observation. It
// returns nil for a session with no observations.
func Breakdown(s *session.Session) []JointBreakdown {
	last, ok := s.Last()
	if !ok {
		return nil
	}
	out := make([]JointBreakdown, 0, len(last.JointScores))
	for _, js := range last.JointScores {
		out = append(out, JointBreakdown{
			Joint:    js.Joint,
			Label:    js.Joint.Label(),
			Target:   js.Target,
			Current:  js.Observed,
			Off:      js.Deviation(),
			Accuracy: js.Accuracy,
		})
	}
	return out
}

// Recommendation is one coaching note derived from a session.
type Recommendation struct {
	Joint  pose.JointID `json:"joint,omitempty"`
	Title  string       `json:"title"`
	Detail string       `json:"detail"`
}

// Recommendations splits a session into areas to improve and strengths.
type Recommendations struct {
	Improve   []Recommendation `json:"improve"`
	Strengths []Recommendation `json:"strengths"`
}

// Recommend derives coaching notes from per-joint averages. Joints whose
// mean accuracy is below the Good threshold need work; joints at or above
// Excellent are strengths.
func Recommend(s *session.Session, th scoring.Thresholds) Recommendations {
	var rec Recommendations

	obs := s.Observations()
	if len(obs) == 0 {
		return rec
	}

	type agg struct {
		acc, signed float64
		n           int
	}
	per := make(map[pose.JointID]*agg)
	for _, o := range obs {
		for _, js := range o.JointScores {
			a := per[js.Joint]
			if a == nil {
				a = &agg{}
				per[js.Joint] = a
			}
			a.acc += js.Accuracy
			a.signed += js.Observed - js.Target
			a.n++
		}
	}

	joints := make([]pose.JointID, 0, len(per))
	for j := range per {
		joints = append(joints, j)
	}
	pose.SortJoints(joints)

	for _, j := range joints {
		a := per[j]
		mean := a.acc / float64(a.n)
		bias := a.signed / float64(a.n)
		switch {
		case mean < th.Good:
			dir := "open"
			if bias > 0 {
				dir = "close"
			}
			rec.Improve = append(rec.Improve, Recommendation{
				Joint:  j,
				Title:  j.Label() + " Alignment",
				Detail: fmt.Sprintf("Try to %s your %s by about %.0f°", dir, strings.ToLower(j.Label()), math.Abs(bias)),
			})
		case mean >= th.Excellent:
			rec.Strengths = append(rec.Strengths, Recommendation{
				Joint:  j,
				Title:  j.Label() + " Position",
				Detail: "Excellent stability and positioning",
			})
		}
	}

	sum := session.Summarize(s)
	if sum.Count > 1 && sum.Improvement > 0 {
		rec.Strengths = append(rec.Strengths, Recommendation{
			Title:  "Overall Balance",
			Detail: fmt.Sprintf("Accuracy improved by %.0f points during the session", sum.Improvement),
		})
	}
	if len(rec.Improve) == 0 && sum.Average < th.Excellent {
		rec.Improve = append(rec.Improve, Recommendation{
			Title:  "Core Engagement",
			Detail: "Strengthen your core for better stability in standing poses",
		})
	}
	return rec
}
