package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/agentstation/measurecast/pkg/constants"
)

// Connection timing. pingEvery must stay below pongTimeout.
const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = pongTimeout * 9 / 10

	// Browsers only send control frames; anything larger is a misbehaving peer.
	maxInbound = 512
)

// Client is one browser connection. The hub closes send to end the writer.
type Client struct {
	id     string
	remote string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
}

// NewClient wraps conn with a random id. conn may be nil in tests that
// never start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan Message, constants.ClientQueueSize),
	}
	if conn != nil {
		c.remote = conn.RemoteAddr().String()
	}
	return c
}

// ID returns the random identifier used in logs for this connection.
func (c *Client) ID() string { return c.id }

func (c *Client) extendRead() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
}

func (c *Client) extendWrite() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// When the peer goes away the client is unregistered.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	c.extendRead()
	c.conn.SetPongHandler(func(string) error {
		c.extendRead()
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
		}
		return
	}
}

// WritePump sends queued messages as JSON text frames and pings on a timer.
// A closed queue produces a going-away close frame.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-ping.C:
			c.extendWrite()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case msg, open := <-c.send:
			c.extendWrite()
			if !open {
				bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
				_ = c.conn.WriteMessage(websocket.CloseMessage, bye)
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket write failed")
				return
			}
		}
	}
}
