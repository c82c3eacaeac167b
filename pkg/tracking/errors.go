package tracking

import "errors"

var (
	// ErrTrackingUnavailable is returned by Open when the underlying
	// resource (camera, broker, estimator) cannot be acquired.
	ErrTrackingUnavailable = errors.New("tracking: unavailable")

	// ErrNoReading means no fresh reading is available this tick.
	// Callers skip the tick and try again.
	ErrNoReading = errors.New("tracking: no reading")

	// ErrSourceClosed means the source will never produce another reading.
	ErrSourceClosed = errors.New("tracking: source closed")

	// ErrMalformedFrame is returned for landmark messages that cannot be
	// decoded.
	ErrMalformedFrame = errors.New("tracking: malformed landmark frame")
)
