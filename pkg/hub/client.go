package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize covers JPEG camera frames and landmark batches
	maxMessageSize = 512 * 1024

	sendBuffer = 256
)

// Conn is the subset of a websocket connection the hub needs. Both
// *websocket.Conn from gofiber and gorilla connections satisfy it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client represents a single websocket connection
type Client struct {
	hub     *Hub
	conn    Conn
	send    chan Message
	ready   chan struct{}
	onInput func(*Client, []byte)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithInput installs a handler for text or binary messages read from the
// client. Without one, inbound messages are discarded.
func WithInput(fn func(c *Client, data []byte)) ClientOption {
	return func(c *Client) { c.onInput = fn }
}

// NewClient creates a new client and registers it with the hub. Once it
// returns, Send and broadcasts reach the client.
func NewClient(hub *Hub, conn Conn, opts ...ClientOption) *Client {
	client := &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan Message, sendBuffer),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	select {
	case hub.register <- client:
		<-client.ready
	case <-hub.done:
		close(client.send)
	}
	return client
}

// Send queues msg for this client only. It reports false when the client
// has left the hub or its buffer is full.
func (c *Client) Send(msg Message) bool {
	return c.hub.send(c, msg)
}

// Run starts the client's read and write pumps and blocks until the
// connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump reads until the connection fails, forwarding data messages to
// the input handler.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if c.onInput != nil && (mt == websocket.TextMessage || mt == websocket.BinaryMessage) {
			c.onInput(c, data)
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
