package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posecoach.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())

	engine, err := Default().Engine()
	require.NoError(t, err)
	assert.Equal(t, pose.DefaultJoints(), engine.Joints)
	assert.Equal(t, scoring.DefaultConfig(), engine.Scoring)
	assert.Equal(t, time.Second, engine.Interval)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeFile(t, `
[sampler]
interval = "250ms"
joints = ["right_arm", "left_arm"]

[scoring]
penalty_per_degree = 1.5
good = 60.0

[scoring.messages]
excellent = "Perfect."

[tracking]
source = "landmarks"
max_age = "1s"

[camera]
enabled = true
device = "/dev/video2"
width = 1280
height = 720

[mqtt]
enabled = true
broker = "tcp://broker:1883"
timeout = "2s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.Interval)
	assert.Equal(t, []string{"right_arm", "left_arm"}, cfg.Sampler.Joints)
	assert.Equal(t, SourceLandmarks, cfg.Tracking.Source)
	assert.Equal(t, time.Second, cfg.Landmarks().MaxAge)
	assert.True(t, cfg.Camera.Enabled)
	assert.Equal(t, "/dev/video2", cfg.Camera.Device)
	assert.Equal(t, 1280, cfg.Camera.Width)
	assert.Equal(t, 80, cfg.Camera.Quality, "unset fields keep defaults")
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, 2*time.Second, cfg.MQTT.Timeout)

	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, []pose.JointID{pose.RightArm, pose.LeftArm}, engine.Joints)
	assert.Equal(t, 1.5, engine.Scoring.PenaltyPerDegree)
	assert.Equal(t, 60.0, engine.Scoring.Thresholds.Good)
	assert.Equal(t, 85.0, engine.Scoring.Thresholds.Excellent)
	assert.Equal(t, "Perfect.", engine.Scoring.Messages[pose.Excellent])
	assert.Equal(t, scoring.MessageGood, engine.Scoring.Messages[pose.Good])
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "[sampler]\ninterval = \"2s\"\n")
	t.Setenv("POSECOACH_SAMPLER_INTERVAL", "500ms")
	t.Setenv("POSECOACH_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("POSECOACH_TRACKING_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.Interval)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, uint64(42), cfg.Tracking.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"thresholds inverted", "[scoring]\ngood = 90.0\nexcellent = 80.0\n"},
		{"zero penalty", "[scoring]\npenalty_per_degree = 0.0\n"},
		{"negative interval", "[sampler]\ninterval = \"-1s\"\n"},
		{"unknown source", "[tracking]\nsource = \"kinect\"\n"},
		{"unknown tier message", "[scoring.messages]\nsuperb = \"wow\"\n"},
		{"bad log level", "[log]\nlevel = \"loud\"\n"},
		{"camera out of range", "[camera]\nenabled = true\nquality = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posecoach.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, WriteDefault(path), "must not overwrite")
}
