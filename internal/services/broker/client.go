package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned for calls on a closed client.
var ErrClosed = errors.New("mhub client closed")

// frame is a single mhub protocol message. Only the fields used by the
// launcher are modelled.
type frame struct {
	Type     string      `json:"type"`
	Seq      int         `json:"seq,omitempty"`
	Username string      `json:"username,omitempty"`
	Password string      `json:"password,omitempty"`
	Node     string      `json:"node,omitempty"`
	Topic    string      `json:"topic,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// ResponseError is an error frame sent back by the broker.
type ResponseError struct {
	Seq     int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("mhub error (seq %d): %s", e.Seq, e.Message)
}

// Client is a minimal mhub websocket client. Requests are sent one at a
// time and each waits for the ack or error with its sequence number.
type Client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	seq    int
	closed bool
}

// Dial connects to the broker at url (ws://host:port).
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}

	return &Client{conn: conn}, nil
}

// Login authenticates the connection.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.request(ctx, frame{Type: "login", Username: username, Password: password})
}

// Publish sends data to topic on node.
func (c *Client) Publish(ctx context.Context, node, topic string, data interface{}) error {
	return c.request(ctx, frame{Type: "publish", Node: node, Topic: topic, Data: data})
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, req frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.seq++
	req.Seq = c.seq

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send %s: %w", req.Type, err)
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("await %s response: %w", req.Type, err)
		}

		var resp frame
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("decode %s response: %w", req.Type, err)
		}

		// Skip messages for other requests or subscriptions.
		if resp.Seq != req.Seq {
			continue
		}

		switch resp.Type {
		case "ack":
			return nil
		case "error":
			return &ResponseError{Seq: resp.Seq, Message: resp.Message}
		}
	}
}
