// Package hub provides a thread-safe websocket broadcast hub
// using the channel-based fan-out pattern.
package hub

import "github.com/teslashibe/go-posecoach/pkg/protocol"

// Message is one queued websocket text write.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// FromProtocol encodes a protocol envelope as a JSON message.
func FromProtocol(m *protocol.Message) (Message, error) {
	data, err := m.Bytes()
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
