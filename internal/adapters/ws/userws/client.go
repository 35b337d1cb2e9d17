package userws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

type Client struct {
	ID        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal domain.Principal
	log       logger.Logger

	// initial channels are joined as part of registration.
	initial []string
}

func NewClient(hub *Hub, conn *websocket.Conn, log logger.Logger, principal domain.Principal) *Client {
	id := uuid.NewString()
	return &Client{
		ID:        id,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		principal: principal,
		log:       log.With("client_id", id, "user_id", principal.UserID),
		initial:   []string{domain.WsChannelCatalog, domain.UserChannel(principal.UserID)},
	}
}

// CanJoin reports whether the client may listen on channel. Everyone sees
// the catalog feed; a user channel is reserved to its owner and admins.
func (c *Client) CanJoin(channel string) bool {
	if channel == domain.WsChannelCatalog {
		return true
	}
	if channel == domain.UserChannel(c.principal.UserID) {
		return true
	}
	return c.principal.Role == domain.RoleAdmin
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws: client disconnected", "error", err)
			}
			return
		}

		var msg domain.WsClientMessage
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(message, &msg); err != nil {
			c.log.Warn("ws: invalid client message", "error", err)
			continue
		}

		switch msg.Type {
		case domain.WsSubscribe:
			if !c.CanJoin(msg.Channel) {
				c.log.Warn("ws: subscription rejected", "channel", msg.Channel)
				continue
			}
			c.hub.Subscribe(c, msg.Channel)

		case domain.WsUnsubscribe:
			c.hub.Unsubscribe(c, msg.Channel)

		default:
			c.log.Warn("ws: unknown message type", "type", msg.Type)
		}
	}
}

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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
