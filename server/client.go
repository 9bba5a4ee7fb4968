package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wander/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger

	username string
	playerID string
}

// readPump pumps commands from the socket into the hub. The first join_game
// message registers the client; everything before it is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warnw("read failed", "error", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	action, err := protocol.Action(data)
	if err != nil {
		c.log.Warnw("discarding malformed message", "error", err)
		return
	}
	switch action {
	case protocol.ActionJoinGame:
		var req protocol.JoinRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.log.Warnw("bad join request", "error", err)
			return
		}
		if c.playerID != "" {
			return // already joined
		}
		c.username = req.Username
		c.hub.register <- c

	case protocol.ActionMove:
		var cmd protocol.MoveCommand
		if err := json.Unmarshal(data, &cmd); err != nil || !cmd.Direction.Valid() {
			c.log.Warnw("bad move command", "error", err)
			return
		}
		c.hub.commands <- command{client: c, action: action, dir: cmd.Direction}

	case protocol.ActionStop:
		c.hub.commands <- command{client: c, action: action}

	default:
		c.log.Infow("ignoring unknown action", "action", action)
	}
}

// writePump pumps queued messages to the socket and keeps it alive with
// pings. Exits when the hub closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warnw("write failed", "error", err)
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

// sendJSON marshals msg and queues it, dropping on a full buffer so one
// slow client cannot stall the hub.
func (c *Client) sendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Errorw("marshal outbound", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warnw("send buffer full, dropping message", "playerId", c.playerID)
	}
}
