package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Handle identifies one sampling run.
type Handle struct {
	id       string
	ref      pose.ReferencePose
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the run identifier.
func (h *Handle) ID() string { return h.id }

// Reference returns the pose the run was started for.
func (h *Handle) Reference() pose.ReferencePose { return h.ref }

// Interval returns the fixed sampling period.
func (h *Handle) Interval() time.Duration { return h.interval }

// Done is closed when the sampling goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err reports why the run ended on its own, or nil if it was stopped.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}
