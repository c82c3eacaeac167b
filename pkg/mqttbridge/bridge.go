// Package mqttbridge publishes coaching events to an MQTT broker and feeds
// landmark frames received over MQTT into a tracking source.
package mqttbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

// ErrBroker is returned when the broker cannot be reached.
var ErrBroker = errors.New("mqttbridge: broker unavailable")

// Config holds broker and topic settings.
type Config struct {
	Broker        string        `mapstructure:"broker"`
	ClientID      string        `mapstructure:"client_id"`
	TopicPrefix   string        `mapstructure:"topic_prefix"`
	LandmarkTopic string        `mapstructure:"landmark_topic"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// DefaultConfig targets a local broker.
func DefaultConfig() Config {
	return Config{
		Broker:        "tcp://localhost:1883",
		ClientID:      "posecoach",
		TopicPrefix:   "posecoach",
		LandmarkTopic: "posecoach/landmarks",
		Timeout:       5 * time.Second,
	}
}

// Connect dials the broker. The client reconnects automatically after
// the first successful connection.
func Connect(cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("%w: connect to %s timed out", ErrBroker, cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroker, err)
	}
	return client, nil
}

// Topic suffixes under the configured prefix.
const (
	TopicSession = "session"
	TopicScored  = "scored"
	TopicSummary = "summary"
	TopicError   = "error"
)

// Publisher mirrors engine events onto MQTT topics. Scored observations
// and rejections go out at QoS 0; lifecycle and summary messages are
// retained at QoS 1 so late subscribers see the latest state.
type Publisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithTimeout bounds how long a publish is awaited before it is logged
// as timed out.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPublisher creates a publisher writing below prefix.
func NewPublisher(client mqtt.Client, prefix string, opts ...Option) *Publisher {
	p := &Publisher{client: client, prefix: prefix, timeout: DefaultConfig().Timeout}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.L()
	}
	return p
}

// Attach subscribes the publisher to engine events.
func (p *Publisher) Attach(e *coach.Engine) (unsubscribe func()) {
	return e.Subscribe(p.Handle)
}

// Topic returns the full topic for suffix.
func (p *Publisher) Topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}

// Handle publishes one event. It does not wait for delivery.
func (p *Publisher) Handle(ev coach.Event) {
	msg, err := coach.EncodeEvent(ev)
	if err != nil {
		p.logger.Warn("encode event", "kind", ev.Kind, "error", err)
		return
	}
	if msg == nil {
		return
	}
	payload, err := msg.Bytes()
	if err != nil {
		p.logger.Warn("encode event", "kind", ev.Kind, "error", err)
		return
	}

	var (
		suffix   string
		qos      byte
		retained bool
	)
	switch ev.Kind {
	case coach.EventStarted:
		suffix, qos, retained = TopicSession, 1, true
	case coach.EventScored:
		suffix = TopicScored
	case coach.EventRejected:
		suffix = TopicError
	case coach.EventEnded:
		suffix, qos, retained = TopicSummary, 1, true
	}

	topic := p.Topic(suffix)
	token := p.client.Publish(topic, qos, retained, payload)
	go func() {
		if !token.WaitTimeout(p.timeout) {
			p.logger.Warn("mqtt publish timed out", "topic", topic, "timeout", p.timeout)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
		}
	}()
}

// FeedLandmarks subscribes to topic and feeds each landmarks message into
// src. The returned function unsubscribes.
func FeedLandmarks(client mqtt.Client, topic string, src *tracking.LandmarkSource, logger *slog.Logger) (func() error, error) {
	if logger == nil {
		logger = log.L()
	}

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := src.FeedMessage(msg.Payload()); err != nil && !errors.Is(err, tracking.ErrSourceClosed) {
			logger.Debug("landmark message dropped", "topic", msg.Topic(), "error", err)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	logger.Info("subscribed to landmarks", "topic", topic)

	return func() error {
		t := client.Unsubscribe(topic)
		t.Wait()
		return t.Error()
	}, nil
}
