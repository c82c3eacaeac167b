// Package camera provides runtime-configurable camera settings and a
// gocv capture that feeds the dashboard preview.
package camera

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a camera configuration is out of range.
var ErrInvalidConfig = errors.New("camera: invalid config")

// Config holds all camera configuration parameters.
// These can be modified via the Manager at runtime.
type Config struct {
	// Device is a capture index ("0") or a device path or stream URL.
	Device string `json:"device" mapstructure:"device"`

	Width     int `json:"width" mapstructure:"width"`         // Frame width in pixels
	Height    int `json:"height" mapstructure:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" mapstructure:"framerate"` // Target FPS
	Quality   int `json:"quality" mapstructure:"quality"`     // JPEG quality 1-100

	// Mirror flips frames horizontally so the preview reads like a mirror.
	Mirror bool `json:"mirror" mapstructure:"mirror"`
}

// Capture limits
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 60
)

// DefaultConfig returns a 640x480 preview at 15 FPS. Landmark estimators
// downscale anyway, so higher resolutions only cost bandwidth.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   80,
		Mirror:    true,
	}
}

// Validate checks if the config values are within valid ranges.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Device) == "" {
		problems = append(problems, "device must be set")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		problems = append(problems, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		problems = append(problems, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		problems = append(problems, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be between 1 and 100")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
