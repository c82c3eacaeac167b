package coach

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/sampler"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
)

// Config holds engine settings.
type Config struct {
	Scoring  scoring.Config
	Interval time.Duration  // sampling period; 0 uses sampler.DefaultInterval
	Joints   []pose.JointID // joints every reading must carry
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Scoring:  scoring.DefaultConfig(),
		Interval: sampler.DefaultInterval,
		Joints:   pose.DefaultJoints(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: negative interval %v", pose.ErrConfiguration, c.Interval)
	}
	if len(c.Joints) == 0 {
		return fmt.Errorf("%w: no joints configured", pose.ErrConfiguration)
	}
	return nil
}
