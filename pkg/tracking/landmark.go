package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
)

// Frame is one set of landmarks from an external estimator.
type Frame struct {
	CapturedAt time.Time
	Landmarks  []pose.Landmark
}

// FrameFromMessage converts a landmarks payload. A zero capture time is
// left zero so Feed stamps it on arrival.
func FrameFromMessage(d *protocol.LandmarksData) Frame {
	f := Frame{Landmarks: d.Landmarks}
	if d.CapturedAt > 0 {
		f.CapturedAt = time.UnixMilli(d.CapturedAt)
	}
	return f
}

// LandmarkSource turns pushed landmark frames into joint readings.
type LandmarkSource struct {
	cfg      Config
	skeleton pose.Skeleton
	camera   Camera
	clock    timeutil.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	open     bool
	latest   Frame
	hasFrame bool
	frames   uint64
}

// LandmarkOption configures a LandmarkSource.
type LandmarkOption func(*LandmarkSource)

// WithConfig sets visibility and staleness limits.
func WithConfig(cfg Config) LandmarkOption {
	return func(s *LandmarkSource) { s.cfg = cfg }
}

// WithSkeleton overrides the landmark-to-joint mapping.
func WithSkeleton(sk pose.Skeleton) LandmarkOption {
	return func(s *LandmarkSource) { s.skeleton = sk }
}

// WithCamera attaches a camera acquired on Open and released on Close.
func WithCamera(c Camera) LandmarkOption {
	return func(s *LandmarkSource) { s.camera = c }
}

// WithClock sets the clock used for frame staleness.
func WithClock(c timeutil.Clock) LandmarkOption {
	return func(s *LandmarkSource) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) LandmarkOption {
	return func(s *LandmarkSource) { s.logger = l }
}

// NewLandmarkSource creates a live source.
func NewLandmarkSource(opts ...LandmarkOption) *LandmarkSource {
	s := &LandmarkSource{
		cfg:      DefaultConfig(),
		skeleton: pose.BlazePoseSkeleton(),
		clock:    timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.L()
	}
	return s
}

// Open acquires the camera, if any, and starts accepting frames.
func (s *LandmarkSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}
	if s.camera != nil {
		if err := s.camera.Acquire(ctx); err != nil {
			return fmt.Errorf("%w: camera: %v", ErrTrackingUnavailable, err)
		}
	}
	s.open = true
	s.hasFrame = false
	s.latest = Frame{}
	s.logger.Debug("landmark source opened", "camera", s.camera != nil)
	return nil
}

// Feed stores frame as the latest. Frames pushed while closed are
// rejected with ErrSourceClosed.
func (s *LandmarkSource) Feed(frame Frame) error {
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrSourceClosed
	}
	if s.hasFrame && frame.CapturedAt.Before(s.latest.CapturedAt) {
		return nil
	}
	s.latest = frame
	s.hasFrame = true
	s.frames++
	return nil
}

// FeedMessage decodes a protocol envelope and feeds it when it carries
// landmarks. Other message types are ignored.
func (s *LandmarkSource) FeedMessage(data []byte) error {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if msg.Type != protocol.TypeLandmarks {
		return nil
	}
	lm, err := msg.GetLandmarksData()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return s.Feed(FrameFromMessage(lm))
}

// Frames returns how many frames have been accepted.
func (s *LandmarkSource) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Next converts the latest frame into a reading.
func (s *LandmarkSource) Next(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	open, has, frame := s.open, s.hasFrame, s.latest
	s.mu.Unlock()

	if !open {
		return nil, ErrSourceClosed
	}
	if !has {
		return nil, ErrNoReading
	}
	if age := s.clock.Since(frame.CapturedAt); s.cfg.MaxAge > 0 && age > s.cfg.MaxAge {
		return nil, fmt.Errorf("%w: latest frame is %v old", ErrNoReading, age)
	}

	angles := s.skeleton.Angles(frame.Landmarks, s.cfg.MinVisibility)
	if len(angles) == 0 {
		return nil, fmt.Errorf("%w: no measurable joints", ErrNoReading)
	}
	return Reading(angles), nil
}

// Close stops accepting frames and releases the camera.
func (s *LandmarkSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	s.hasFrame = false
	if s.camera != nil {
		if err := s.camera.Release(); err != nil {
			return fmt.Errorf("release camera: %w", err)
		}
	}
	s.logger.Debug("landmark source closed", "frames", s.frames)
	return nil
}
