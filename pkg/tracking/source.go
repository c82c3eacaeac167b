// Package tracking provides the sources of joint angle readings: a
// synthetic generator for demo mode and a live source fed by an external
// landmark estimator.
package tracking

import (
	"context"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Reading maps each tracked joint to its angle in degrees.
type Reading map[pose.JointID]float64

// Source produces joint angle readings on demand.
type Source interface {
	// Open acquires external resources. On failure the source stays
	// closed and the error wraps ErrTrackingUnavailable.
	Open(ctx context.Context) error

	// Next returns the current reading. ErrNoReading is transient,
	// ErrSourceClosed is final.
	Next(ctx context.Context) (Reading, error)

	// Close releases resources. Safe to call more than once.
	Close() error
}

// Camera is a capture device scoped to a source's open lifetime.
type Camera interface {
	Acquire(ctx context.Context) error
	Release() error
}
