package scoring

import (
	"math"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Scorer compares observations against a reference pose.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	penalty    float64
	classifier *Classifier
}

// NewScorer creates a scorer from cfg.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{
		penalty:    cfg.PenaltyPerDegree,
		classifier: NewClassifier(cfg),
	}
}

// Classifier returns the classifier used for tiers.
func (s *Scorer) Classifier() *Classifier {
	return s.classifier
}

// JointAccuracy scores a single joint in [0, 100].
func (s *Scorer) JointAccuracy(observed, target float64) float64 {
	return clamp(100-s.penalty*math.Abs(observed-target), 0, 100)
}

// Score produces per-joint and overall accuracy for obs against ref.
// Joints are visited in the reference order; joints missing from either
// side are not scored. Overall is 0 when nothing was scored.
func (s *Scorer) Score(obs pose.Observation, ref pose.ReferencePose) pose.ScoredObservation {
	joints := ref.Joints()
	scores := make([]pose.JointScore, 0, len(joints))

	var sum float64
	for _, j := range joints {
		observed, ok := obs.Angle(j)
		if !ok {
			continue
		}
		target, _ := ref.Target(j)
		acc := s.JointAccuracy(observed, target)
		scores = append(scores, pose.JointScore{
			Joint:    j,
			Observed: observed,
			Target:   target,
			Accuracy: acc,
		})
		sum += acc
	}

	var overall float64
	if len(scores) > 0 {
		overall = sum / float64(len(scores))
	}

	return pose.ScoredObservation{
		Observation:     obs,
		JointScores:     scores,
		OverallAccuracy: overall,
		Tier:            s.classifier.Classify(overall),
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
