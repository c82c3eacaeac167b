// Package scoring turns observations into per-joint accuracy scores and
// classifies the overall accuracy into coaching feedback.
package scoring

import (
	"fmt"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Thresholds are the inclusive lower bounds of the upper two tiers.
type Thresholds struct {
	Good      float64 `mapstructure:"good" json:"good"`
	Excellent float64 `mapstructure:"excellent" json:"excellent"`
}

// Config holds the scoring constants.
type Config struct {
	// PenaltyPerDegree is the accuracy lost per degree of deviation.
	PenaltyPerDegree float64 `mapstructure:"penalty_per_degree" json:"penalty_per_degree"`

	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`

	// Messages maps each tier to its coaching message.
	Messages map[pose.FeedbackTier]string `mapstructure:"-" json:"messages"`
}

// Default messages per tier.
const (
	MessageExcellent        = "Excellent! Your pose is very accurate."
	MessageGood             = "Good form! Try to align your arms better."
	MessageNeedsImprovement = "Adjust your posture. Focus on balance."
)

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		PenaltyPerDegree: 2,
		Thresholds: Thresholds{
			Good:      70,
			Excellent: 85,
		},
		Messages: DefaultMessages(),
	}
}

// DefaultMessages returns a fresh copy of the default message table.
func DefaultMessages() map[pose.FeedbackTier]string {
	return map[pose.FeedbackTier]string{
		pose.Excellent:        MessageExcellent,
		pose.Good:             MessageGood,
		pose.NeedsImprovement: MessageNeedsImprovement,
	}
}

// Validate checks that the configuration can produce well-formed scores.
func (c Config) Validate() error {
	if c.PenaltyPerDegree <= 0 {
		return fmt.Errorf("%w: penalty_per_degree must be positive, got %v", pose.ErrConfiguration, c.PenaltyPerDegree)
	}
	if c.Thresholds.Good < 0 || c.Thresholds.Excellent > 100 {
		return fmt.Errorf("%w: thresholds must lie in [0, 100]", pose.ErrConfiguration)
	}
	if c.Thresholds.Good >= c.Thresholds.Excellent {
		return fmt.Errorf("%w: good threshold %.1f must be below excellent %.1f",
			pose.ErrConfiguration, c.Thresholds.Good, c.Thresholds.Excellent)
	}
	return nil
}
