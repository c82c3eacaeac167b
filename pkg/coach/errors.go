package coach

import "errors"

// ErrNoSession is returned when an operation needs a session and the
// engine has never started one.
var ErrNoSession = errors.New("coach: no session")
