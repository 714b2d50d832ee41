package ws

import (
	"time"

	"tasks_api/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one websocket subscriber. The feed is server-to-client only;
// anything the client sends is read and discarded.
type Client struct {
	Owner string
	Conn  *websocket.Conn
	Send  chan []byte

	hub *Hub
}

func NewClient(owner string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Owner: owner,
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		hub:   hub,
	}
}

// Run registers the client and blocks until the connection ends.
func (c *Client) Run() {
	if !c.hub.Register(c) {
		_ = c.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = c.Conn.Close()
		return
	}
	logger.Debug("ws: client connected", "owner", c.Owner)

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
		logger.Debug("ws: client disconnected", "owner", c.Owner)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: read error", "owner", c.Owner, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws: write error", "owner", c.Owner, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
