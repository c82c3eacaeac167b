package mqttbridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posecoach/internal/log"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/protocol"
	"github.com/teslashibe/go-posecoach/pkg/session"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// stalledToken never completes and reports each wait bound it was given.
type stalledToken struct {
	doneToken
	waited chan time.Duration
}

func (t stalledToken) Wait() bool { select {} }
func (t stalledToken) WaitTimeout(d time.Duration) bool {
	t.waited <- d
	return false
}
func (t stalledToken) Done() <-chan struct{} { return make(chan struct{}) }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes and subscriptions. Methods the bridge
// does not use panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	published []published
	handlers  map[string]mqtt.MessageHandler
	subErr    error
	pubToken  mqtt.Token
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	if c.pubToken != nil {
		return c.pubToken
	}
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr == nil {
		c.handlers[topic] = cb
	}
	return doneToken{err: c.subErr}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	return doneToken{}
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	if h != nil {
		h(c, fakeMessage{topic: topic, payload: payload})
	}
}

func (c *fakeClient) snapshot() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.published...)
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func testSession(t *testing.T) *session.Session {
	t.Helper()
	agg := session.NewAggregator(session.WithLogger(log.Discard()))
	s, err := agg.Begin(pose.NewReferencePose("tadasana", map[pose.JointID]float64{pose.RightArm: 180}))
	require.NoError(t, err)
	return s
}

func TestPublisher_Topics(t *testing.T) {
	client := newFakeClient()
	p := NewPublisher(client, "studio/mat1", WithLogger(log.Discard()))
	s := testSession(t)

	p.Handle(coach.Event{Kind: coach.EventStarted, Session: s})
	p.Handle(coach.Event{Kind: coach.EventScored, Session: s, Message: "Good form"})
	p.Handle(coach.Event{Kind: coach.EventRejected, Session: s, Err: pose.ErrInvalidReading})
	p.Handle(coach.Event{Kind: coach.EventEnded, Session: s, Summary: session.Summarize(s)})

	got := client.snapshot()
	require.Len(t, got, 4)

	want := []struct {
		topic    string
		qos      byte
		retained bool
		typ      protocol.MessageType
	}{
		{"studio/mat1/session", 1, true, protocol.TypeSession},
		{"studio/mat1/scored", 0, false, protocol.TypeScored},
		{"studio/mat1/error", 0, false, protocol.TypeError},
		{"studio/mat1/summary", 1, true, protocol.TypeSummary},
	}
	for i, w := range want {
		assert.Equal(t, w.topic, got[i].topic)
		assert.Equal(t, w.qos, got[i].qos)
		assert.Equal(t, w.retained, got[i].retained)
		msg, err := protocol.ParseMessage(got[i].payload)
		require.NoError(t, err)
		assert.Equal(t, w.typ, msg.Type)
	}
}

func TestPublisher_StalledPublishIsBounded(t *testing.T) {
	client := newFakeClient()
	waited := make(chan time.Duration, 1)
	client.pubToken = stalledToken{waited: waited}
	p := NewPublisher(client, "pc", WithLogger(log.Discard()), WithTimeout(50*time.Millisecond))

	p.Handle(coach.Event{Kind: coach.EventStarted, Session: testSession(t)})

	select {
	case d := <-waited:
		assert.Equal(t, 50*time.Millisecond, d)
	case <-time.After(time.Second):
		t.Fatal("publish was never awaited with a timeout")
	}
	assert.Len(t, client.snapshot(), 1)
}

func TestPublisher_DefaultTimeout(t *testing.T) {
	client := newFakeClient()
	waited := make(chan time.Duration, 1)
	client.pubToken = stalledToken{waited: waited}
	p := NewPublisher(client, "pc", WithLogger(log.Discard()), WithTimeout(0))

	p.Handle(coach.Event{Kind: coach.EventStarted, Session: testSession(t)})

	select {
	case d := <-waited:
		assert.Equal(t, DefaultConfig().Timeout, d)
	case <-time.After(time.Second):
		t.Fatal("publish was never awaited with a timeout")
	}
}

func TestPublisher_Topic(t *testing.T) {
	assert.Equal(t, "scored", NewPublisher(nil, "", WithLogger(log.Discard())).Topic(TopicScored))
	assert.Equal(t, "pc/scored", NewPublisher(nil, "pc", WithLogger(log.Discard())).Topic(TopicScored))
}

func TestFeedLandmarks(t *testing.T) {
	client := newFakeClient()
	src := tracking.NewLandmarkSource(tracking.WithLogger(log.Discard()))
	require.NoError(t, src.Open(context.Background()))
	defer src.Close()

	unsubscribe, err := FeedLandmarks(client, "posecoach/landmarks", src, log.Discard())
	require.NoError(t, err)

	msg, err := protocol.NewLandmarksMessage(time.Now().UnixMilli(), make([]pose.Landmark, 33))
	require.NoError(t, err)
	data, err := msg.Bytes()
	require.NoError(t, err)

	client.deliver("posecoach/landmarks", data)
	client.deliver("posecoach/landmarks", []byte("{broken"))
	assert.Equal(t, uint64(1), src.Frames())

	require.NoError(t, unsubscribe())
	client.deliver("posecoach/landmarks", data)
	assert.Equal(t, uint64(1), src.Frames())
}

func TestFeedLandmarks_SubscribeError(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("not authorized")
	src := tracking.NewLandmarkSource(tracking.WithLogger(log.Discard()))

	_, err := FeedLandmarks(client, "posecoach/landmarks", src, log.Discard())
	assert.ErrorIs(t, err, client.subErr)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.Equal(t, cfg.TopicPrefix+"/landmarks", cfg.LandmarkTopic)
}
