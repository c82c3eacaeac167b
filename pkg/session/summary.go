package session

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Summary holds aggregate statistics for a session.
type Summary struct {
	SessionID string `json:"session_id"`
	Pose      string `json:"pose"`
	State     State  `json:"state"`
	Count     int    `json:"count"`

	Best    float64 `json:"best"`
	Average float64 `json:"average"`
	Worst   float64 `json:"worst"`

	// Improvement is the last overall accuracy minus the first.
	Improvement float64 `json:"improvement"`

	JointAccuracy  map[pose.JointID]float64  `json:"joint_accuracy"`
	JointDeviation map[pose.JointID]float64  `json:"joint_deviation"`
	TierCounts     map[pose.FeedbackTier]int `json:"tier_counts"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitzero"`
	Duration  time.Duration `json:"duration"`
}

// Summarize computes statistics over a snapshot of s. An empty session
// yields zero statistics.
//
// Duration is EndTime - StartTime once the session has ended. While the
// session is active it runs to the last observation timestamp.
func Summarize(s *Session) Summary {
	s.mu.RLock()
	state := s.state
	start, end := s.startTime, s.endTime
	obs := s.observations[:len(s.observations):len(s.observations)]
	s.mu.RUnlock()

	sum := Summary{
		SessionID:      s.id,
		Pose:           s.ref.Name(),
		State:          state,
		Count:          len(obs),
		JointAccuracy:  make(map[pose.JointID]float64),
		JointDeviation: make(map[pose.JointID]float64),
		TierCounts:     make(map[pose.FeedbackTier]int),
		StartTime:      start,
		EndTime:        end,
	}

	switch {
	case state == Ended:
		sum.Duration = end.Sub(start)
	case len(obs) > 0:
		sum.Duration = obs[len(obs)-1].Observation.Timestamp().Sub(start)
	}
	if sum.Duration < 0 {
		sum.Duration = 0
	}

	if len(obs) == 0 {
		return sum
	}

	overall := make([]float64, len(obs))
	perJointAcc := make(map[pose.JointID][]float64)
	perJointDev := make(map[pose.JointID][]float64)
	for i, o := range obs {
		overall[i] = o.OverallAccuracy
		sum.TierCounts[o.Tier]++
		for _, js := range o.JointScores {
			perJointAcc[js.Joint] = append(perJointAcc[js.Joint], js.Accuracy)
			perJointDev[js.Joint] = append(perJointDev[js.Joint], js.Deviation())
		}
	}

	sum.Best = floats.Max(overall)
	sum.Worst = floats.Min(overall)
	sum.Average = stat.Mean(overall, nil)
	sum.Improvement = overall[len(overall)-1] - overall[0]

	for j, xs := range perJointAcc {
		sum.JointAccuracy[j] = stat.Mean(xs, nil)
	}
	for j, xs := range perJointDev {
		sum.JointDeviation[j] = stat.Mean(xs, nil)
	}
	return sum
}
