package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posecoach/pkg/camera"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/hub"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/report"
	"github.com/teslashibe/go-posecoach/pkg/session"
	"github.com/teslashibe/go-posecoach/pkg/store"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

const defaultHistoryLimit = 20

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, pose.ErrConfiguration), errors.Is(err, pose.ErrUnknownExercise),
		errors.Is(err, camera.ErrInvalidConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, tracking.ErrTrackingUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, coach.ErrNoSession), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handlePoses lists the exercise library
func (s *Server) handlePoses(c *fiber.Ctx) error {
	return c.JSON(s.library.All())
}

// handleSession returns the current session's lifecycle state
func (s *Server) handleSession(c *fiber.Ctx) error {
	sess := s.engine.Current()
	if sess == nil {
		return coach.ErrNoSession
	}
	return c.JSON(protocol.SessionFromSession(sess))
}

// StartRequest is the body of POST /api/session/start. Targets, when
// set, define a custom reference pose named Name instead of a library
// exercise.
type StartRequest struct {
	Pose    string                   `json:"pose"`
	Name    string                   `json:"name,omitempty"`
	Targets map[pose.JointID]float64 `json:"targets,omitempty"`
}

func (s *Server) reference(req StartRequest) (pose.ReferencePose, error) {
	if len(req.Targets) > 0 {
		name := req.Name
		if name == "" {
			name = "custom"
		}
		return pose.NewReferencePose(name, req.Targets), nil
	}
	key := req.Pose
	if key == "" {
		key = pose.DefaultLibraryKey
	}
	ex, err := s.library.Get(key)
	if err != nil {
		return pose.ReferencePose{}, err
	}
	return ex.Reference(), nil
}

// handleStart begins a practice session
func (s *Server) handleStart(c *fiber.Ctx) error {
	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fmt.Errorf("%w: %v", pose.ErrConfiguration, err)
		}
	}

	ref, err := s.reference(req)
	if err != nil {
		return err
	}

	sess, err := s.engine.Start(c.UserContext(), ref)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(protocol.SessionFromSession(sess))
}

// handleStop ends the active session and returns its summary
func (s *Server) handleStop(c *fiber.Ctx) error {
	sum, err := s.engine.Stop(c.UserContext())
	if err != nil && sum.SessionID == "" {
		return err
	}
	if err != nil {
		// The session ended but a collaborator failed, e.g. persistence.
		s.logger.Warn("session stop", "session", sum.SessionID, "error", err)
	}
	return c.JSON(protocol.SummaryFromSession(sum))
}

// sessionFor resolves ?id= against history, else the engine's current
// session.
func (s *Server) sessionFor(c *fiber.Ctx) (*session.Session, error) {
	if id := c.Query("id"); id != "" {
		if s.history == nil {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return s.history.Load(c.UserContext(), id)
	}
	sess := s.engine.Current()
	if sess == nil {
		return nil, coach.ErrNoSession
	}
	return sess, nil
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	sess, err := s.sessionFor(c)
	if err != nil {
		return err
	}
	return c.JSON(report.ToSummary(sess))
}

// parseBucket reads ?bucket= as a duration. Absent means def.
func parseBucket(c *fiber.Ctx, def time.Duration) (time.Duration, error) {
	raw := c.Query("bucket")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: bad bucket %q", pose.ErrConfiguration, raw)
	}
	return d, nil
}

func (s *Server) handleTimeSeries(c *fiber.Ctx) error {
	sess, err := s.sessionFor(c)
	if err != nil {
		return err
	}
	bucket, err := parseBucket(c, 0)
	if err != nil {
		return err
	}
	points := report.ToTimeSeries(sess)
	if bucket > 0 {
		points = report.Bucket(points, bucket)
	}
	return c.JSON(points)
}

// BreakdownResponse is the body of GET /api/session/breakdown.
type BreakdownResponse struct {
	Joints          []report.JointBreakdown `json:"joints"`
	Recommendations report.Recommendations  `json:"recommendations"`
}

func (s *Server) handleBreakdown(c *fiber.Ctx) error {
	sess, err := s.sessionFor(c)
	if err != nil {
		return err
	}
	th := s.engine.Scorer().Classifier().Thresholds()
	return c.JSON(BreakdownResponse{
		Joints:          report.Breakdown(sess),
		Recommendations: report.Recommend(sess, th),
	})
}

func (s *Server) entries(c *fiber.Ctx, limit int) ([]report.HistoryEntry, error) {
	if s.history == nil {
		return []report.HistoryEntry{}, nil
	}
	entries, err := s.history.History(c.UserContext(), limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []report.HistoryEntry{}
	}
	return entries, nil
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad limit %q", pose.ErrConfiguration, raw)
		}
		limit = n
	}
	entries, err := s.entries(c, limit)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (s *Server) handleOverview(c *fiber.Ctx) error {
	entries, err := s.entries(c, 0)
	if err != nil {
		return err
	}
	return c.JSON(report.Overview(entries, s.mastered))
}

func (s *Server) handleSessionChart(c *fiber.Ctx) error {
	sess, err := s.sessionFor(c)
	if err != nil {
		return err
	}
	bucket, err := parseBucket(c, s.bucket)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return report.RenderSessionPage(c, sess, bucket)
}

func (s *Server) handleSessionPNG(c *fiber.Ctx) error {
	sess, err := s.sessionFor(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return report.WritePNG(c, report.ToTimeSeries(sess), sess.Reference().Joints())
}

func (s *Server) handleProgressChart(c *fiber.Ctx) error {
	entries, err := s.entries(c, 0)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return report.RenderProgressPage(c, entries)
}

// handleFeedbackWS streams scored observations and lifecycle events
func (s *Server) handleFeedbackWS(c *websocket.Conn) {
	s.serveFeedback(c)
}

// serveFeedback registers conn on the feedback hub, greets it with the
// current session and answers its pings until it disconnects.
func (s *Server) serveFeedback(conn hub.Conn) {
	client := hub.NewClient(s.feedbackHub, conn, hub.WithInput(s.onFeedbackInput))
	if sess := s.engine.Current(); sess != nil {
		if msg, err := protocol.NewSessionMessage(sess); err == nil {
			if out, err := hub.FromProtocol(msg); err == nil {
				client.Send(out)
			}
		}
	}
	client.Run()
}

// handleCameraWS streams JPEG preview frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleLandmarksWS accepts landmark frames from an external estimator
func (s *Server) handleLandmarksWS(c *websocket.Conn) {
	hub.NewClient(s.landmarksHub, c, hub.WithInput(s.onLandmarks)).Run()
}

// CameraResponse is the body of GET and PUT /api/camera.
type CameraResponse struct {
	Config  camera.Config  `json:"config"`
	Presets []CameraPreset `json:"presets"`
}

// CameraPreset is one named configuration a client may select.
type CameraPreset struct {
	Name   string        `json:"name"`
	Config camera.Config `json:"config"`
}

func (s *Server) cameraResponse() CameraResponse {
	resp := CameraResponse{Config: s.camera.GetConfig()}
	for _, name := range camera.PresetNames() {
		if cfg := camera.GetPreset(name); cfg != nil {
			resp.Presets = append(resp.Presets, CameraPreset{Name: name, Config: *cfg})
		}
	}
	return resp
}

// handleGetCamera returns the camera configuration and presets
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera disabled")
	}
	return c.JSON(s.cameraResponse())
}

// handleUpdateCamera applies a partial update such as {"preset":"720p"}
// and reopens the device if a session holds it.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera disabled")
	}
	var params map[string]any
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return fmt.Errorf("%w: %v", camera.ErrInvalidConfig, err)
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return err
	}
	return c.JSON(s.cameraResponse())
}
