package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posecoach/internal/log"
)

// FrameFunc receives each encoded JPEG frame. The slice is owned by the
// callee.
type FrameFunc func(jpeg []byte, width, height int)

// Capture reads frames from a local camera with gocv, JPEG-encodes them and
// hands them to a FrameFunc. It implements tracking.Camera so a session
// holds the device only while it is active.
type Capture struct {
	manager *Manager
	onFrame FrameFunc
	logger  *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	cancel context.CancelFunc
	done   chan struct{}
	frames uint64
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithOnFrame sets the frame callback.
func WithOnFrame(fn FrameFunc) CaptureOption {
	return func(c *Capture) { c.onFrame = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CaptureOption {
	return func(c *Capture) { c.logger = l }
}

// NewCapture creates a capture driven by the manager's configuration.
func NewCapture(m *Manager, opts ...CaptureOption) *Capture {
	c := &Capture{manager: m}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.L()
	}
	c.logger = c.logger.With("component", "camera")
	return c
}

// deviceID converts a numeric device string to a capture index.
func deviceID(device string) any {
	if n, err := strconv.Atoi(device); err == nil {
		return n
	}
	return device
}

// Acquire opens the device and starts the frame loop. Acquiring an
// already acquired capture is a no-op.
func (c *Capture) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc != nil {
		return nil
	}

	cfg := c.manager.GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	vc, err := gocv.OpenVideoCapture(deviceID(cfg.Device))
	if err != nil {
		return fmt.Errorf("open device %s: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open device %s: %w", cfg.Device, errors.New("device not opened"))
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	loopCtx, cancel := context.WithCancel(context.Background())
	c.vc = vc
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(loopCtx, vc, c.done)

	c.logger.Info("camera acquired", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height, "fps", cfg.Framerate)
	return nil
}

// Release stops the frame loop and closes the device.
func (c *Capture) Release() error {
	c.mu.Lock()
	vc, cancel, done := c.vc, c.cancel, c.done
	c.vc, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()

	if vc == nil {
		return nil
	}
	cancel()
	<-done
	c.logger.Info("camera released")
	return vc.Close()
}

// Apply reopens an acquired device so cfg takes effect. It is meant for
// Manager.OnConfigChange; an idle capture picks cfg up on the next Acquire.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	acquired := c.vc != nil
	c.mu.Unlock()
	if !acquired {
		return nil
	}

	if err := c.Release(); err != nil {
		c.logger.Warn("close device before reconfigure", "error", err)
	}
	if err := c.Acquire(context.Background()); err != nil {
		return fmt.Errorf("reopen device %s: %w", cfg.Device, err)
	}
	return nil
}

// Frames returns how many frames have been delivered.
func (c *Capture) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Capture) loop(ctx context.Context, vc *gocv.VideoCapture, done chan struct{}) {
	defer close(done)

	img := gocv.NewMat()
	defer img.Close()

	interval := time.Second / time.Duration(max(c.manager.GetConfig().Framerate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if ok := vc.Read(&img); !ok || img.Empty() {
			c.logger.Debug("empty camera frame")
			continue
		}

		cfg := c.manager.GetConfig()
		if cfg.Mirror {
			gocv.Flip(img, &img, 1)
		}

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), cfg.Quality})
		if err != nil {
			c.logger.Warn("jpeg encode failed", "error", err)
			continue
		}
		jpeg := append([]byte(nil), buf.GetBytes()...)
		buf.Close()

		c.mu.Lock()
		c.frames++
		c.mu.Unlock()

		if c.onFrame != nil {
			c.onFrame(jpeg, img.Cols(), img.Rows())
		}
	}
}
