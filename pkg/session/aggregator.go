package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Aggregator creates sessions and is the only writer of their state.
// One aggregator belongs to one tracking context.
type Aggregator struct {
	clock  timeutil.Clock
	logger *slog.Logger

	mu     sync.Mutex
	active *Session
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used for start and end times.
func WithClock(c timeutil.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.L()
	}
	return a
}

// Begin starts a new Active session for ref.
func (a *Aggregator) Begin(ref pose.ReferencePose) (*Session, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil && a.active.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, a.active.id)
	}

	s := &Session{
		id:        uuid.New().String(),
		ref:       ref,
		state:     Active,
		startTime: a.clock.Now(),
	}
	a.active = s
	a.logger.Info("session started", "session", s.id, "pose", ref.Name())
	return s, nil
}

// Active returns the currently active session, if any.
func (a *Aggregator) Active() (*Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil || !a.active.IsActive() {
		return nil, false
	}
	return a.active, true
}

// Record appends a scored observation to an Active session. The stored
// copy shares nothing with the caller.
func (a *Aggregator) Record(s *Session, scored pose.ScoredObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return fmt.Errorf("%w: cannot record in %s session", ErrInvalidState, s.state)
	}
	s.observations = append(s.observations, scored.Clone())
	return nil
}

// End transitions an Active session to Ended.
func (a *Aggregator) End(s *Session) error {
	s.mu.Lock()
	if s.state != Active {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot end %s session", ErrInvalidState, state)
	}
	s.state = Ended
	s.endTime = a.clock.Now()
	count := len(s.observations)
	s.mu.Unlock()

	a.logger.Info("session ended", "session", s.id, "observations", count)
	return nil
}

// Summarize computes the session summary. It is recomputed on each call.
func (a *Aggregator) Summarize(s *Session) Summary {
	return Summarize(s)
}
