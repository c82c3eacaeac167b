package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
)

func TestSyntheticSource_Ranges(t *testing.T) {
	src := NewSyntheticSource(7, nil)
	ctx := context.Background()

	if _, err := src.Next(ctx); !errors.Is(err, ErrSourceClosed) {
		t.Fatalf("Next before Open = %v, want ErrSourceClosed", err)
	}
	if err := src.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	ranges := DefaultSyntheticRanges()
	for i := 0; i < 500; i++ {
		r, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if len(r) != 4 {
			t.Fatalf("reading has %d joints, want 4", len(r))
		}
		for j, v := range r {
			rg := ranges[j]
			if v < float64(rg.Min) || v >= float64(rg.Max) || v != float64(int(v)) {
				t.Fatalf("%s = %v outside [%d, %d)", j, v, rg.Min, rg.Max)
			}
		}
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := src.Next(ctx); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Next after Close = %v, want ErrSourceClosed", err)
	}
}

func TestSyntheticSource_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewSyntheticSource(42, nil)
	b := NewSyntheticSource(42, nil)
	a.Open(ctx)
	b.Open(ctx)

	for i := 0; i < 20; i++ {
		ra, _ := a.Next(ctx)
		rb, _ := b.Next(ctx)
		for j := range ra {
			if ra[j] != rb[j] {
				t.Fatalf("tick %d joint %s: %v != %v", i, j, ra[j], rb[j])
			}
		}
	}
}

type fakeCamera struct {
	acquireErr error
	acquired   int
	released   int
}

func (c *fakeCamera) Acquire(ctx context.Context) error {
	if c.acquireErr != nil {
		return c.acquireErr
	}
	c.acquired++
	return nil
}

func (c *fakeCamera) Release() error {
	c.released++
	return nil
}

func straightArmLandmarks() []pose.Landmark {
	lm := make([]pose.Landmark, 33)
	lm[12] = pose.Landmark{X: 0, Y: 0, Visibility: 1}
	lm[14] = pose.Landmark{X: 1, Y: 0, Visibility: 1}
	lm[16] = pose.Landmark{X: 2, Y: 0, Visibility: 1}
	return lm
}

func TestLandmarkSource_Lifecycle(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	cam := &fakeCamera{}
	src := NewLandmarkSource(
		WithCamera(cam),
		WithClock(clock),
		WithConfig(Config{MinVisibility: 0.5, MaxAge: time.Second}),
		WithLogger(log.Discard()),
	)
	ctx := context.Background()

	if err := src.Feed(Frame{Landmarks: straightArmLandmarks()}); !errors.Is(err, ErrSourceClosed) {
		t.Fatalf("Feed while closed = %v, want ErrSourceClosed", err)
	}

	if err := src.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if cam.acquired != 1 {
		t.Fatalf("camera acquired %d times, want 1", cam.acquired)
	}

	if _, err := src.Next(ctx); !errors.Is(err, ErrNoReading) {
		t.Fatalf("Next without frames = %v, want ErrNoReading", err)
	}

	if err := src.Feed(Frame{Landmarks: straightArmLandmarks()}); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	r, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(r) != 1 || r[pose.RightArm] != 180 {
		t.Errorf("reading = %v, want only right_arm=180", r)
	}

	clock.Advance(2 * time.Second)
	if _, err := src.Next(ctx); !errors.Is(err, ErrNoReading) {
		t.Errorf("stale frame = %v, want ErrNoReading", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	src.Close()
	if cam.released != 1 {
		t.Errorf("camera released %d times, want 1", cam.released)
	}
	if _, err := src.Next(ctx); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Next after Close = %v, want ErrSourceClosed", err)
	}
}

func TestLandmarkSource_CameraDenied(t *testing.T) {
	cam := &fakeCamera{acquireErr: errors.New("permission denied")}
	src := NewLandmarkSource(WithCamera(cam), WithLogger(log.Discard()))

	err := src.Open(context.Background())
	if !errors.Is(err, ErrTrackingUnavailable) {
		t.Fatalf("Open = %v, want ErrTrackingUnavailable", err)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("source should stay closed, Next = %v", err)
	}
}

func TestLandmarkSource_DropsOutOfOrderFrames(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	src := NewLandmarkSource(WithClock(clock), WithLogger(log.Discard()))
	src.Open(context.Background())

	src.Feed(Frame{CapturedAt: time.Unix(1000, 0), Landmarks: straightArmLandmarks()})
	src.Feed(Frame{CapturedAt: time.Unix(999, 0)})

	if got := src.Frames(); got != 1 {
		t.Errorf("Frames = %d, want 1", got)
	}
}

func TestDialLandmarks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ping, _ := protocol.NewMessage(protocol.TypePing, protocol.PingData{ID: "x"})
		b, _ := ping.Bytes()
		conn.WriteMessage(websocket.TextMessage, b)

		msg, _ := protocol.NewLandmarksMessage(0, straightArmLandmarks())
		b, _ = msg.Bytes()
		conn.WriteMessage(websocket.TextMessage, b)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src := NewLandmarkSource(WithLogger(log.Discard()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.Open(ctx)

	done := make(chan error, 1)
	go func() {
		done <- DialLandmarks(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), src)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.Frames() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no frame received from estimator")
		}
		time.Sleep(5 * time.Millisecond)
	}

	r, err := src.Next(ctx)
	if err != nil || r[pose.RightArm] != 180 {
		t.Errorf("Next = %v, %v", r, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("DialLandmarks returned %v after cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DialLandmarks did not return after cancel")
	}
}

func TestDialLandmarks_Unreachable(t *testing.T) {
	src := NewLandmarkSource(WithLogger(log.Discard()))
	err := DialLandmarks(context.Background(), "ws://127.0.0.1:1/landmarks", src)
	if !errors.Is(err, ErrTrackingUnavailable) {
		t.Errorf("DialLandmarks = %v, want ErrTrackingUnavailable", err)
	}
}
