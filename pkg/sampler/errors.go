package sampler

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while another run is active.
	ErrAlreadyRunning = errors.New("sampler: already running")

	// ErrNotRunning is returned by Stop for a handle that is not the
	// current run.
	ErrNotRunning = errors.New("sampler: not running")
)
