// Package coach wires a tracking source, sampler, scorer and session
// aggregator into one practice engine.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/report"
	"github.com/teslashibe/go-posecoach/pkg/sampler"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/session"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

// Sink persists ended sessions.
type Sink interface {
	Save(ctx context.Context, s *session.Session) error
}

// Engine runs one practice session at a time against a tracking source.
type Engine struct {
	cfg    Config
	source tracking.Source
	sink   Sink
	clock  timeutil.Clock
	logger *slog.Logger

	scorer  *scoring.Scorer
	sampler *sampler.Sampler
	agg     *session.Aggregator

	// mu serializes Start and Stop.
	mu sync.Mutex

	stateMu sync.RWMutex
	current *session.Session
	handle  *sampler.Handle
	unsub   func()

	subMu   sync.RWMutex
	subs    []eventSub
	nextSub uint64
}

type eventSub struct {
	id uint64
	fn func(Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithSink persists every ended session.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithClock sets the clock for sampling and session times.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine reading from source.
func New(source tracking.Source, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    DefaultConfig(),
		source: source,
		clock:  timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.L()
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	e.scorer = scoring.NewScorer(e.cfg.Scoring)
	e.agg = session.NewAggregator(
		session.WithClock(e.clock),
		session.WithLogger(e.logger),
	)
	e.sampler = sampler.New(source,
		sampler.WithJoints(e.cfg.Joints...),
		sampler.WithClock(e.clock),
		sampler.WithLogger(e.logger),
		sampler.WithErrorHandler(e.onRejected),
	)
	return e, nil
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Subscribe registers fn for engine events. Scored and rejected events
// are delivered on the sampling goroutine; fn must not call Start or Stop.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, eventSub{id: id, fn: fn})
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.subMu.RLock()
	subs := e.subs
	e.subMu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Start validates ref, opens the source and begins a new session.
// On any failure the engine stays idle.
func (e *Engine) Start(ctx context.Context, ref pose.ReferencePose) (*session.Session, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if !e.tracks(ref) {
		return nil, fmt.Errorf("%w: reference pose %q has no joint in %v", pose.ErrConfiguration, ref.Name(), e.cfg.Joints)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Running() {
		return nil, fmt.Errorf("%w: %s", session.ErrSessionActive, e.Current().ID())
	}

	if err := e.source.Open(ctx); err != nil {
		if !errors.Is(err, tracking.ErrTrackingUnavailable) {
			err = fmt.Errorf("%w: %v", tracking.ErrTrackingUnavailable, err)
		}
		e.logger.Warn("tracking unavailable", "pose", ref.Name(), "error", err)
		return nil, err
	}

	s, err := e.agg.Begin(ref)
	if err != nil {
		e.source.Close()
		return nil, err
	}

	unsub := e.sampler.Subscribe(func(obs pose.Observation) {
		e.onObservation(s, obs)
	})

	h, err := e.sampler.Start(ref, e.cfg.Interval)
	if err != nil {
		unsub()
		e.agg.End(s)
		e.source.Close()
		return nil, err
	}

	e.stateMu.Lock()
	e.current, e.handle, e.unsub = s, h, unsub
	e.stateMu.Unlock()

	go e.watch(h)

	e.emit(Event{Kind: EventStarted, Session: s})
	return s, nil
}

// tracks reports whether ref shares at least one joint with the sampled set.
func (e *Engine) tracks(ref pose.ReferencePose) bool {
	for _, j := range e.cfg.Joints {
		if _, ok := ref.Target(j); ok {
			return true
		}
	}
	return false
}

// Stop ends the active session and returns its summary.
func (e *Engine) Stop(ctx context.Context) (session.Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.Running() {
		return session.Summary{}, fmt.Errorf("%w: no active session", session.ErrInvalidState)
	}
	return e.finish(ctx, nil)
}

// watch ends the session when the sampler stops on its own.
func (e *Engine) watch(h *sampler.Handle) {
	<-h.Done()
	cause := h.Err()
	if cause == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stateMu.RLock()
	same := e.handle == h
	e.stateMu.RUnlock()
	if !same {
		return
	}

	e.logger.Warn("tracking source failed, ending session", "error", cause)
	if _, err := e.finish(context.Background(), cause); err != nil {
		e.logger.Error("finish session", "error", err)
	}
}

// finish tears down the active run. Callers hold e.mu.
func (e *Engine) finish(ctx context.Context, cause error) (session.Summary, error) {
	e.stateMu.Lock()
	s, h, unsub := e.current, e.handle, e.unsub
	e.handle, e.unsub = nil, nil
	e.stateMu.Unlock()

	if err := e.sampler.Stop(h); err != nil && !errors.Is(err, sampler.ErrNotRunning) {
		e.logger.Warn("stop sampler", "error", err)
	}
	// The loop may have died before Stop got the lock.
	if cause == nil {
		cause = h.Err()
	}
	unsub()

	var errs []error
	if err := e.agg.End(s); err != nil {
		errs = append(errs, err)
	}
	if err := e.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}

	sum := e.agg.Summarize(s)
	if e.sink != nil {
		if err := e.sink.Save(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("save session: %w", err))
		}
	}

	e.emit(Event{Kind: EventEnded, Session: s, Summary: sum, Err: cause})
	return sum, errors.Join(errs...)
}

func (e *Engine) onObservation(s *session.Session, obs pose.Observation) {
	scored := e.scorer.Score(obs, s.Reference())
	if err := e.agg.Record(s, scored); err != nil {
		e.logger.Debug("observation dropped", "session", s.ID(), "error", err)
		return
	}

	c := e.scorer.Classifier()
	e.emit(Event{
		Kind:         EventScored,
		Session:      s,
		Scored:       scored,
		Message:      c.Message(scored.Tier),
		PoseDetected: scoring.PoseDetected(scored.Tier),
	})
}

func (e *Engine) onRejected(err error) {
	e.emit(Event{Kind: EventRejected, Session: e.Current(), Err: err})
}

// Running reports whether a session is active.
func (e *Engine) Running() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.handle != nil
}

// Current returns the active or most recently ended session, or nil.
func (e *Engine) Current() *session.Session {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.current
}

// Summary summarizes the current session.
func (e *Engine) Summary() (session.Summary, error) {
	s := e.Current()
	if s == nil {
		return session.Summary{}, ErrNoSession
	}
	return session.Summarize(s), nil
}

// TimeSeries projects the current session.
func (e *Engine) TimeSeries() ([]report.SeriesPoint, error) {
	s := e.Current()
	if s == nil {
		return nil, ErrNoSession
	}
	return report.ToTimeSeries(s), nil
}
