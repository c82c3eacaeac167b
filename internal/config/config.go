// Package config loads posecoach settings from TOML files and
// POSECOACH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teslashibe/go-posecoach/pkg/camera"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/mqttbridge"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/sampler"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

const (
	configName = "posecoach"
	configType = "toml"
	envPrefix  = "POSECOACH"
)

// Tracking source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceLandmarks = "landmarks"
)

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Sampler  SamplerConfig  `mapstructure:"sampler"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Camera   CameraConfig   `mapstructure:"camera"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SamplerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Joints   []string      `mapstructure:"joints"`
}

type ScoringConfig struct {
	PenaltyPerDegree float64 `mapstructure:"penalty_per_degree"`
	Good             float64 `mapstructure:"good"`
	Excellent        float64 `mapstructure:"excellent"`

	// Messages is keyed by tier name: needs_improvement, good, excellent.
	Messages map[string]string `mapstructure:"messages"`
}

type TrackingConfig struct {
	// Source is "synthetic" or "landmarks".
	Source string `mapstructure:"source"`
	Seed   uint64 `mapstructure:"seed"`

	MinVisibility float64       `mapstructure:"min_visibility"`
	MaxAge        time.Duration `mapstructure:"max_age"`

	// EstimatorURL, when set, is dialed for landmark frames.
	EstimatorURL string `mapstructure:"estimator_url"`

	// Library is an optional YAML file of extra exercises.
	Library string `mapstructure:"library"`
}

type CameraConfig struct {
	Enabled bool `mapstructure:"enabled"`

	camera.Config `mapstructure:",squash"`
}

type MQTTConfig struct {
	Enabled bool `mapstructure:"enabled"`

	mqttbridge.Config `mapstructure:",squash"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	Static            string        `mapstructure:"static"`
	Bucket            time.Duration `mapstructure:"bucket"`
	MasteredThreshold float64       `mapstructure:"mastered_threshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	sc := scoring.DefaultConfig()
	td := tracking.DefaultConfig()

	joints := make([]string, 0, 4)
	for _, j := range pose.DefaultJoints() {
		joints = append(joints, string(j))
	}
	messages := make(map[string]string, len(sc.Messages))
	for tier, msg := range sc.Messages {
		messages[tier.String()] = msg
	}

	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Sampler: SamplerConfig{
			Interval: sampler.DefaultInterval,
			Joints:   joints,
		},
		Scoring: ScoringConfig{
			PenaltyPerDegree: sc.PenaltyPerDegree,
			Good:             sc.Thresholds.Good,
			Excellent:        sc.Thresholds.Excellent,
			Messages:         messages,
		},
		Tracking: TrackingConfig{
			Source:        SourceSynthetic,
			Seed:          1,
			MinVisibility: td.MinVisibility,
			MaxAge:        td.MaxAge,
		},
		Camera: CameraConfig{Config: camera.DefaultConfig()},
		MQTT:   MQTTConfig{Config: mqttbridge.DefaultConfig()},
		Store:  StoreConfig{Path: "posecoach.db"},
		Server: ServerConfig{
			Addr:              ":8080",
			Bucket:            5 * time.Second,
			MasteredThreshold: 85,
		},
	}
}

// settings flattens c into viper keys. Durations are written as strings
// so generated files stay readable.
func settings(c Config) map[string]any {
	m := map[string]any{
		"log.level":  c.Log.Level,
		"log.format": c.Log.Format,

		"sampler.interval": c.Sampler.Interval.String(),
		"sampler.joints":   c.Sampler.Joints,

		"scoring.penalty_per_degree": c.Scoring.PenaltyPerDegree,
		"scoring.good":               c.Scoring.Good,
		"scoring.excellent":          c.Scoring.Excellent,

		"tracking.source":         c.Tracking.Source,
		"tracking.seed":           c.Tracking.Seed,
		"tracking.min_visibility": c.Tracking.MinVisibility,
		"tracking.max_age":        c.Tracking.MaxAge.String(),
		"tracking.estimator_url":  c.Tracking.EstimatorURL,
		"tracking.library":        c.Tracking.Library,

		"camera.enabled":   c.Camera.Enabled,
		"camera.device":    c.Camera.Device,
		"camera.width":     c.Camera.Width,
		"camera.height":    c.Camera.Height,
		"camera.framerate": c.Camera.Framerate,
		"camera.quality":   c.Camera.Quality,
		"camera.mirror":    c.Camera.Mirror,

		"mqtt.enabled":        c.MQTT.Enabled,
		"mqtt.broker":         c.MQTT.Broker,
		"mqtt.client_id":      c.MQTT.ClientID,
		"mqtt.topic_prefix":   c.MQTT.TopicPrefix,
		"mqtt.landmark_topic": c.MQTT.LandmarkTopic,
		"mqtt.timeout":        c.MQTT.Timeout.String(),

		"store.path": c.Store.Path,

		"server.addr":               c.Server.Addr,
		"server.static":             c.Server.Static,
		"server.bucket":             c.Server.Bucket.String(),
		"server.mastered_threshold": c.Server.MasteredThreshold,
	}
	for tier, msg := range c.Scoring.Messages {
		m["scoring.messages."+tier] = msg
	}
	return m
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range settings(Default()) {
		v.SetDefault(k, val)
	}
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path, or when path is empty from
// posecoach.toml in the working directory or ~/.config/posecoach. A
// missing default file is not an error. Environment variables such as
// POSECOACH_SAMPLER_INTERVAL override file values.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault writes the default configuration as TOML to path. It
// refuses to overwrite an existing file.
func WriteDefault(path string) error {
	v := viper.New()
	for k, val := range settings(Default()) {
		v.Set(k, val)
	}

	data, err := toml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Engine converts the sampler and scoring sections.
func (c Config) Engine() (coach.Config, error) {
	cfg := coach.DefaultConfig()
	cfg.Interval = c.Sampler.Interval

	cfg.Joints = make([]pose.JointID, 0, len(c.Sampler.Joints))
	for _, j := range c.Sampler.Joints {
		cfg.Joints = append(cfg.Joints, pose.JointID(strings.TrimSpace(j)))
	}

	cfg.Scoring.PenaltyPerDegree = c.Scoring.PenaltyPerDegree
	cfg.Scoring.Thresholds = scoring.Thresholds{Good: c.Scoring.Good, Excellent: c.Scoring.Excellent}
	for name, msg := range c.Scoring.Messages {
		tier, err := pose.ParseTier(name)
		if err != nil {
			return coach.Config{}, fmt.Errorf("%w: scoring.messages: %v", pose.ErrConfiguration, err)
		}
		cfg.Scoring.Messages[tier] = msg
	}
	return cfg, nil
}

// Landmarks converts the tracking section.
func (c Config) Landmarks() tracking.Config {
	return tracking.Config{
		MinVisibility: c.Tracking.MinVisibility,
		MaxAge:        c.Tracking.MaxAge,
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	engine, err := c.Engine()
	if err == nil {
		err = engine.Validate()
	}
	if err != nil {
		errs = append(errs, err)
	}

	switch c.Tracking.Source {
	case SourceSynthetic, SourceLandmarks:
	default:
		errs = append(errs, fmt.Errorf("tracking.source %q is not %s or %s", c.Tracking.Source, SourceSynthetic, SourceLandmarks))
	}
	if c.Tracking.MinVisibility < 0 || c.Tracking.MinVisibility > 1 {
		errs = append(errs, fmt.Errorf("tracking.min_visibility must be in [0, 1]"))
	}
	if c.Tracking.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("tracking.max_age must be positive"))
	}

	if c.Camera.Enabled {
		if err := c.Camera.Config.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, fmt.Errorf("mqtt.broker is required when mqtt is enabled"))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.Bucket < 0 {
		errs = append(errs, fmt.Errorf("server.bucket must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
