// Package web serves the posecoach dashboard API, charts and live feeds.
package web

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/pkg/camera"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/hub"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/report"
	"github.com/teslashibe/go-posecoach/pkg/session"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

// HistoryStore is the persisted session history read by the dashboard.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]report.HistoryEntry, error)
	Load(ctx context.Context, id string) (*session.Session, error)
}

// Server is the dashboard server
type Server struct {
	app     *fiber.App
	addr    string
	logger  *slog.Logger
	engine  *coach.Engine
	library *pose.Library

	history   HistoryStore
	landmarks *tracking.LandmarkSource
	camera    *camera.Manager
	staticDir string

	bucket   time.Duration
	mastered float64

	feedbackHub  *hub.Hub
	cameraHub    *hub.Hub
	landmarksHub *hub.Hub

	frameID atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Default ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithHistory enables the history, overview and stored-session endpoints.
func WithHistory(h HistoryStore) Option {
	return func(s *Server) { s.history = h }
}

// WithLandmarks enables /ws/landmarks, feeding frames into src.
func WithLandmarks(src *tracking.LandmarkSource) Option {
	return func(s *Server) { s.landmarks = src }
}

// WithCamera enables GET and PUT /api/camera backed by m.
func WithCamera(m *camera.Manager) Option {
	return func(s *Server) { s.camera = m }
}

// WithStatic serves dashboard assets from dir at "/".
func WithStatic(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithBucket sets the default time-series bucket for chart pages.
func WithBucket(d time.Duration) Option {
	return func(s *Server) { s.bucket = d }
}

// WithMasteredThreshold sets the average accuracy that counts a pose as
// mastered in the progress overview.
func WithMasteredThreshold(v float64) Option {
	return func(s *Server) { s.mastered = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a dashboard server for engine.
func NewServer(engine *coach.Engine, library *pose.Library, opts ...Option) *Server {
	s := &Server{
		addr:     ":8080",
		engine:   engine,
		library:  library,
		bucket:   5 * time.Second,
		mastered: 85,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.L()
	}
	if s.library == nil {
		s.library = pose.DefaultLibrary()
	}
	hubLog := hub.WithLogger(s.logger)
	s.feedbackHub = hub.New("feedback", hubLog)
	s.cameraHub = hub.New("camera", hubLog)
	s.landmarksHub = hub.New("landmarks", hubLog)

	app := fiber.New(fiber.Config{
		AppName:               "posecoach",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/poses", s.handlePoses)
	api.Get("/session", s.handleSession)
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Get("/session/summary", s.handleSummary)
	api.Get("/session/timeseries", s.handleTimeSeries)
	api.Get("/session/breakdown", s.handleBreakdown)
	api.Get("/history", s.handleHistory)
	api.Get("/overview", s.handleOverview)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)

	app.Get("/charts/session.png", s.handleSessionPNG)
	app.Get("/charts/session", s.handleSessionChart)
	app.Get("/charts/progress", s.handleProgressChart)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feedback", websocket.New(s.handleFeedbackWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	if s.landmarks != nil {
		app.Get("/ws/landmarks", websocket.New(s.handleLandmarksWS))
	}

	if s.staticDir != "" {
		app.Static("/", s.staticDir)
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs, forwards engine events to /ws/feedback and serves
// HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.feedbackHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.landmarksHub.Run(ctx)

	unsubscribe := s.engine.Subscribe(s.onEvent)
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("dashboard shutdown", "error", err)
		}
	}()

	s.logger.Info("dashboard listening", "addr", s.addr)
	if err := s.app.Listen(s.addr); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// SendCameraFrame sends a JPEG frame to /ws/camera clients as a frame
// envelope.
func (s *Server) SendCameraFrame(jpegData []byte, width, height int) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	msg, err := protocol.NewFrameMessage(width, height, jpegData, s.frameID.Add(1))
	if err != nil {
		s.logger.Warn("encode frame", "error", err)
		return
	}
	if err := s.cameraHub.BroadcastProtocol(msg); err != nil {
		s.logger.Warn("broadcast frame", "error", err)
	}
}

// onEvent mirrors engine events onto the feedback hub.
func (s *Server) onEvent(ev coach.Event) {
	msg, err := coach.EncodeEvent(ev)
	if err != nil {
		s.logger.Warn("encode event", "kind", ev.Kind, "error", err)
		return
	}
	if msg == nil {
		return
	}
	if err := s.feedbackHub.BroadcastProtocol(msg); err != nil {
		s.logger.Warn("broadcast event", "kind", ev.Kind, "error", err)
	}
}

// onLandmarks handles one inbound /ws/landmarks message.
func (s *Server) onLandmarks(_ *hub.Client, data []byte) {
	if err := s.landmarks.FeedMessage(data); err != nil && !errors.Is(err, tracking.ErrSourceClosed) {
		s.logger.Debug("landmark frame dropped", "error", err)
	}
}

// onFeedbackInput answers ping messages from /ws/feedback clients with a
// pong to that client only. Anything else is ignored.
func (s *Server) onFeedbackInput(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypePing {
		return
	}
	ping, err := msg.GetPingData()
	if err != nil {
		s.logger.Debug("bad ping", "error", err)
		return
	}
	pong, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return
	}
	if out, err := hub.FromProtocol(pong); err == nil {
		c.Send(out)
	}
}
