package pose

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a reference pose or other engine
	// input is missing, empty or malformed.
	ErrConfiguration = errors.New("pose: configuration error")

	// ErrInvalidReading is returned when a tracked angle is non-finite or
	// outside [MinAngle, MaxAngle]. It is a configuration-class error.
	ErrInvalidReading = fmt.Errorf("%w: invalid joint reading", ErrConfiguration)

	// ErrUnknownExercise is returned when a library lookup fails.
	ErrUnknownExercise = errors.New("pose: unknown exercise")
)
