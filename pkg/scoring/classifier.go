package scoring

import "github.com/teslashibe/go-posecoach/pkg/pose"

// Classifier maps overall accuracy to a feedback tier and message.
type Classifier struct {
	thresholds Thresholds
	messages   map[pose.FeedbackTier]string
}

// NewClassifier builds a classifier from cfg. Missing messages fall back
// to the defaults.
func NewClassifier(cfg Config) *Classifier {
	msgs := DefaultMessages()
	for tier, m := range cfg.Messages {
		if m != "" {
			msgs[tier] = m
		}
	}
	return &Classifier{thresholds: cfg.Thresholds, messages: msgs}
}

// Classify returns the tier for acc. Lower bounds are inclusive.
func (c *Classifier) Classify(acc float64) pose.FeedbackTier {
	switch {
	case acc >= c.thresholds.Excellent:
		return pose.Excellent
	case acc >= c.thresholds.Good:
		return pose.Good
	default:
		return pose.NeedsImprovement
	}
}

// Message returns the coaching message for tier.
func (c *Classifier) Message(tier pose.FeedbackTier) string {
	return c.messages[tier]
}

// Thresholds returns the configured tier bounds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// PoseDetected reports whether the tier is good enough to count as
// holding the pose.
func PoseDetected(tier pose.FeedbackTier) bool {
	return tier >= pose.Good
}
