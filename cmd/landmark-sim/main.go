// Command landmark-sim publishes synthetic BlazePose landmark frames over
// MQTT so posecoach can run in landmarks mode without a camera.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/internal/timeutil"
	"github.com/teslashibe/go-posecoach/pkg/mqttbridge"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

type options struct {
	mqtt     mqttbridge.Config
	interval time.Duration
	seed     uint64
	pose     string
	jitter   int
	count    int
	debug    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	o := options{mqtt: mqttbridge.DefaultConfig()}
	o.mqtt.ClientID = "landmark-sim"

	cmd := &cobra.Command{
		Use:          "landmark-sim",
		Short:        "Publish synthetic landmark frames to an MQTT broker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := "info"
			if o.debug {
				level = "debug"
			}
			log.Configure(log.Options{Level: level, Output: cmd.ErrOrStderr()})
			return run(cmd.Context(), o, timeutil.RealClock{})
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.mqtt.Broker, "broker", o.mqtt.Broker, "MQTT broker URL")
	f.StringVar(&o.mqtt.LandmarkTopic, "topic", o.mqtt.LandmarkTopic, "topic to publish frames on")
	f.DurationVar(&o.interval, "interval", 200*time.Millisecond, "time between frames")
	f.Uint64Var(&o.seed, "seed", 1, "random seed")
	f.StringVar(&o.pose, "pose", "", "jitter around this exercise's targets instead of the demo ranges")
	f.IntVar(&o.jitter, "jitter", 8, "degrees of jitter around pose targets")
	f.IntVar(&o.count, "count", 0, "stop after this many frames (0 runs until interrupted)")
	f.BoolVar(&o.debug, "debug", false, "enable debug logging")
	return cmd
}

// ranges returns the per-joint angle ranges to draw from.
func ranges(o options) (map[pose.JointID]tracking.Range, error) {
	if o.pose == "" {
		return tracking.DefaultSyntheticRanges(), nil
	}
	ex, err := pose.DefaultLibrary().Get(o.pose)
	if err != nil {
		return nil, err
	}
	out := make(map[pose.JointID]tracking.Range, len(ex.Targets))
	for j, target := range ex.Targets {
		t := int(math.Round(target))
		out[j] = tracking.Range{Min: max(t-o.jitter, 0), Max: min(t+o.jitter+1, 360)}
	}
	return out, nil
}

// frame draws one reading and encodes it as a landmarks message.
func frame(ctx context.Context, src tracking.Source, sk pose.Skeleton, now time.Time) ([]byte, tracking.Reading, error) {
	reading, err := src.Next(ctx)
	if err != nil {
		return nil, nil, err
	}
	landmarks := sk.Synthesize(reading, pose.BlazePoseLandmarks)
	msg, err := protocol.NewLandmarksMessage(now.UnixMilli(), landmarks)
	if err != nil {
		return nil, nil, err
	}
	data, err := msg.Bytes()
	return data, reading, err
}

func run(ctx context.Context, o options, clock timeutil.Clock) error {
	logger := log.L()

	rg, err := ranges(o)
	if err != nil {
		return err
	}
	src := tracking.NewSyntheticSource(o.seed, rg)
	if err := src.Open(ctx); err != nil {
		return err
	}
	defer src.Close()

	client, err := mqttbridge.Connect(o.mqtt)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	logger.Info("publishing landmarks", "broker", o.mqtt.Broker, "topic", o.mqtt.LandmarkTopic, "interval", o.interval)

	sk := pose.BlazePoseSkeleton()
	ticker := clock.NewTicker(o.interval)
	defer ticker.Stop()

	for sent := 0; o.count == 0 || sent < o.count; {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C():
			data, reading, err := frame(ctx, src, sk, now)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("build frame: %w", err)
			}
			token := client.Publish(o.mqtt.LandmarkTopic, 0, false, data)
			if token.WaitTimeout(o.mqtt.Timeout) && token.Error() != nil {
				logger.Warn("publish failed", "error", token.Error())
				continue
			}
			sent++
			logger.Debug("frame published", "n", sent, "angles", reading)
		}
	}
	return nil
}
