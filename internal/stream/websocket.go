package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket timing.
const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
)

// WSMessage is the JSON frame sent to WebSocket subscribers.
type WSMessage struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
}

// ErrNotUpgraded is returned by Run before a successful Upgrade.
var ErrNotUpgraded = errors.New("stream: websocket not upgraded")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin policy is handled by the CORS middleware.
		return true
	},
}

// WSClient streams events to one WebSocket connection.
type WSClient struct {
	*mailbox
	conn *websocket.Conn
}

// NewWSClient creates a client that queues events until Upgrade and Run.
// It performs no I/O.
func NewWSClient(buffer int) *WSClient {
	return &WSClient{mailbox: newMailbox(buffer)}
}

// Upgrade switches the request to the WebSocket protocol. On failure the
// upgrader has already written an HTTP error response and the client is
// closed.
func (c *WSClient) Upgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.Close()
		return err
	}
	c.conn = conn
	return nil
}

// Run pumps events to the peer until the client is closed, ctx is done,
// the peer disconnects, or a write fails. The connection is closed when
// Run returns. Upgrade must have succeeded.
func (c *WSClient) Run(ctx context.Context) error {
	if c.conn == nil {
		c.Close()
		return ErrNotUpgraded
	}
	defer func() {
		c.Close()
		c.conn.Close()
	}()

	go c.readPump()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			//nolint:errcheck // Best-effort close frame
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
			return nil
		case e := <-c.send:
			data, err := json.Marshal(WSMessage{
				Type:      "event",
				Event:     e.Name,
				Data:      e.Data,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				return err
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// readPump discards inbound frames and closes the client when the peer
// goes away. The stream is one-way.
func (c *WSClient) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(wsReadLimit)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
