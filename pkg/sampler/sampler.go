// Package sampler polls a tracking source at a fixed interval and emits
// validated, timestamped observations to subscribers.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

// DefaultInterval is the sampling period used when Start gets 0.
const DefaultInterval = 1000 * time.Millisecond

// Sampler drives one tracking source. At most one run is active at a time.
type Sampler struct {
	source          tracking.Source
	joints          []pose.JointID
	clock           timeutil.Clock
	logger          *slog.Logger
	onError         func(error)
	defaultInterval time.Duration

	mu      sync.Mutex
	subs    []subscriber
	nextSub uint64
	running *Handle
}

type subscriber struct {
	id uint64
	fn func(pose.Observation)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithJoints sets the joints every reading must carry.
func WithJoints(joints ...pose.JointID) Option {
	return func(s *Sampler) {
		s.joints = append([]pose.JointID(nil), joints...)
		pose.SortJoints(s.joints)
	}
}

// WithClock sets the clock for ticks and timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(s *Sampler) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// WithErrorHandler receives rejected readings and unexpected source
// errors. It runs on the sampling goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Sampler) { s.onError = fn }
}

// WithDefaultInterval overrides DefaultInterval.
func WithDefaultInterval(d time.Duration) Option {
	return func(s *Sampler) { s.defaultInterval = d }
}

// New creates a sampler for source.
func New(source tracking.Source, opts ...Option) *Sampler {
	s := &Sampler{
		source:          source,
		joints:          pose.DefaultJoints(),
		clock:           timeutil.RealClock{},
		defaultInterval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.L()
	}
	return s
}

// Joints returns the configured joint set.
func (s *Sampler) Joints() []pose.JointID {
	return append([]pose.JointID(nil), s.joints...)
}

// Subscribe registers fn for every emitted observation. Subscribers run
// synchronously on the sampling goroutine in registration order and must
// not call Stop.
func (s *Sampler) Subscribe(fn func(pose.Observation)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Start begins sampling for ref every interval. An interval of 0 uses the
// default; the interval stays fixed for the life of the handle.
func (s *Sampler) Start(ref pose.ReferencePose, interval time.Duration) (*Handle, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: negative sampling interval %v", pose.ErrConfiguration, interval)
	}
	if interval == 0 {
		interval = s.defaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != nil {
		return nil, fmt.Errorf("%w: run %s", ErrAlreadyRunning, s.running.id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		id:       uuid.New().String(),
		ref:      ref,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.running = h

	ticker := s.clock.NewTicker(interval)
	go s.run(h, ticker)

	s.logger.Info("sampler started", "run", h.id, "pose", ref.Name(), "interval", interval)
	return h, nil
}

// Stop cancels the run and waits for the sampling goroutine to exit.
// No subscriber is invoked after Stop returns.
func (s *Sampler) Stop(h *Handle) error {
	s.mu.Lock()
	if h == nil || s.running != h {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = nil
	s.mu.Unlock()

	h.cancel()
	<-h.done

	s.logger.Info("sampler stopped", "run", h.id)
	return nil
}

// Running reports whether a run is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running != nil
}

func (s *Sampler) run(h *Handle, ticker timeutil.Ticker) {
	defer close(h.done)
	defer ticker.Stop()

	var (
		seq  uint64
		last time.Time
	)

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C():
			err := s.tick(h, &seq, &last)
			if err == nil {
				continue
			}
			h.setErr(err)
			s.mu.Lock()
			if s.running == h {
				s.running = nil
			}
			s.mu.Unlock()
			s.logger.Warn("sampler run ended", "run", h.id, "error", err)
			return
		}
	}
}

// tick processes one reading to completion. A non-nil return ends the run.
func (s *Sampler) tick(h *Handle, seq *uint64, last *time.Time) error {
	reading, err := s.source.Next(h.ctx)
	switch {
	case h.ctx.Err() != nil:
		return nil
	case errors.Is(err, tracking.ErrSourceClosed):
		return err
	case errors.Is(err, tracking.ErrNoReading):
		s.logger.Debug("no reading this tick", "run", h.id, "error", err)
		return nil
	case err != nil:
		s.report(fmt.Errorf("sampler: read source: %w", err))
		return nil
	}

	angles, err := s.validate(reading)
	if err != nil {
		s.report(err)
		return nil
	}

	ts := s.clock.Now()
	if !ts.After(*last) {
		ts = last.Add(time.Nanosecond)
	}
	*last = ts
	*seq++

	obs := pose.NewObservation(*seq, ts, angles)

	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(obs)
	}
	return nil
}

// validate keeps the configured joints and rejects the whole reading if
// any is missing or out of range.
func (s *Sampler) validate(r tracking.Reading) (map[pose.JointID]float64, error) {
	angles := make(map[pose.JointID]float64, len(s.joints))
	for _, j := range s.joints {
		v, ok := r[j]
		if !ok {
			return nil, fmt.Errorf("%w: missing joint %s", pose.ErrInvalidReading, j)
		}
		if err := pose.ValidateAngle(v); err != nil {
			return nil, fmt.Errorf("joint %s: %w", j, err)
		}
		angles[j] = v
	}
	return angles, nil
}

func (s *Sampler) report(err error) {
	s.logger.Debug("reading rejected", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}
