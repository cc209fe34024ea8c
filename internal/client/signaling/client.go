// Package signaling maintains the websocket connection to the room
// server and exposes a typed send/receive surface for the rest of the
// client.
package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/client/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var ErrClosed = errors.New("signaling: connection closed")

type Config struct {
	ServerUrl string
	UserId    string
	Username  string
}

type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	incoming chan protocol.Message
	outgoing chan protocol.Message

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the server's websocket endpoint, identifying as
// cfg.UserId/cfg.Username via query parameters.
func Dial(ctx context.Context, cfg *Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.ServerUrl)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/v1/ws"
	q := u.Query()
	q.Set("user-id", cfg.UserId)
	q.Set("username", cfg.Username)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	c := &Client{
		conn:     conn,
		logger:   logger,
		incoming: make(chan protocol.Message, 64),
		outgoing: make(chan protocol.Message, 64),
		done:     make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	return c, nil
}

// Incoming yields server messages in arrival order. The channel is
// closed when the connection is lost.
func (c *Client) Incoming() <-chan protocol.Message {
	return c.incoming
}

// Done is closed when the connection has shut down for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.conn.Close()
	})
	return err
}

// Send enqueues a message for delivery. It fails fast when the
// connection is already gone instead of blocking forever.
func (c *Client) Send(messageType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", messageType, err)
		}
		raw = b
	}
	select {
	case c.outgoing <- protocol.Message{Type: messageType, Payload: raw}:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Close()
		close(c.incoming)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Error("websocket read failed", "error", err)
			}
			return
		}
		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
