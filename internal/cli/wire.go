package cli

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-posecoach/internal/config"
	"github.com/teslashibe/go-posecoach/pkg/camera"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/mqttbridge"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/store"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

func (a *app) library() (*pose.Library, error) {
	if a.cfg.Tracking.Library == "" {
		return pose.DefaultLibrary(), nil
	}
	return pose.LoadLibrary(a.cfg.Tracking.Library)
}

func (a *app) classifier() (*scoring.Classifier, error) {
	ec, err := a.cfg.Engine()
	if err != nil {
		return nil, err
	}
	return scoring.NewClassifier(ec.Scoring), nil
}

func (a *app) openStore() (*store.Store, error) {
	cl, err := a.classifier()
	if err != nil {
		return nil, err
	}
	return store.Open(a.cfg.Store.Path,
		store.WithLogger(a.logger),
		store.WithClassifier(cl),
	)
}

// sources holds the tracking source and, in landmarks mode, the concrete
// landmark source external feeds push into. camera is set when a local
// capture device is enabled.
type sources struct {
	source    tracking.Source
	landmarks *tracking.LandmarkSource
	camera    *camera.Manager
}

// buildSource assembles the configured tracking source. onFrame receives
// camera JPEGs; serve points it at the dashboard.
func (a *app) buildSource(onFrame camera.FrameFunc) sources {
	if a.cfg.Tracking.Source == config.SourceSynthetic {
		return sources{source: tracking.NewSyntheticSource(a.cfg.Tracking.Seed, nil)}
	}

	opts := []tracking.LandmarkOption{
		tracking.WithConfig(a.cfg.Landmarks()),
		tracking.WithLogger(a.logger),
	}
	var manager *camera.Manager
	if a.cfg.Camera.Enabled {
		manager = camera.NewManager(a.cfg.Camera.Config)
		capture := camera.NewCapture(manager,
			camera.WithLogger(a.logger),
			camera.WithOnFrame(func(jpeg []byte, width, height int) {
				if onFrame != nil {
					onFrame(jpeg, width, height)
				}
			}),
		)
		manager.OnConfigChange = capture.Apply
		opts = append(opts, tracking.WithCamera(capture))
	}
	lm := tracking.NewLandmarkSource(opts...)
	return sources{source: lm, landmarks: lm, camera: manager}
}

func (a *app) newEngine(src tracking.Source, sink coach.Sink) (*coach.Engine, error) {
	ec, err := a.cfg.Engine()
	if err != nil {
		return nil, err
	}
	opts := []coach.Option{coach.WithConfig(ec), coach.WithLogger(a.logger)}
	if sink != nil {
		opts = append(opts, coach.WithSink(sink))
	}
	return coach.New(src, opts...)
}

// startFeeds connects the optional estimator websocket and MQTT bridge.
// The returned function tears down whatever was started.
func (a *app) startFeeds(ctx context.Context, engine *coach.Engine, src sources) (func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if src.landmarks != nil && a.cfg.Tracking.EstimatorURL != "" {
		dialCtx, cancel := context.WithCancel(ctx)
		cleanups = append(cleanups, cancel)
		go func() {
			if err := tracking.DialLandmarks(dialCtx, a.cfg.Tracking.EstimatorURL, src.landmarks); err != nil {
				a.logger.Error("landmark estimator disconnected", "url", a.cfg.Tracking.EstimatorURL, "error", err)
			}
		}()
	}

	if !a.cfg.MQTT.Enabled {
		return cleanup, nil
	}

	client, err := mqttbridge.Connect(a.cfg.MQTT.Config)
	if err != nil {
		cleanup()
		return nil, err
	}
	cleanups = append(cleanups, func() { client.Disconnect(250) })

	pub := mqttbridge.NewPublisher(client, a.cfg.MQTT.TopicPrefix,
		mqttbridge.WithLogger(a.logger), mqttbridge.WithTimeout(a.cfg.MQTT.Timeout))
	cleanups = append(cleanups, pub.Attach(engine))

	if src.landmarks != nil {
		unsubscribe, err := mqttbridge.FeedLandmarks(client, a.cfg.MQTT.LandmarkTopic, src.landmarks, a.logger)
		if err != nil {
			cleanup()
			return nil, err
		}
		cleanups = append(cleanups, func() {
			if err := unsubscribe(); err != nil {
				a.logger.Debug("mqtt unsubscribe", "error", err)
			}
		})
	}
	a.logger.Info("mqtt bridge connected", "broker", a.cfg.MQTT.Broker)
	return cleanup, nil
}

// exercise resolves the pose key, falling back to the default.
func exercise(lib *pose.Library, key string) (pose.Exercise, error) {
	if key == "" {
		key = pose.DefaultLibraryKey
	}
	ex, err := lib.Get(key)
	if err != nil {
		return pose.Exercise{}, fmt.Errorf("%w (try `posecoach poses`)", err)
	}
	return ex, nil
}
