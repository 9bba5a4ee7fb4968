// Package server is a minimal local playground implementation of the wander
// wire protocol. It is not the authoritative game server — that lives
// elsewhere — but it speaks the same JSON envelopes, so the client can be
// developed and integration-tested against it on one machine.
package server

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wander/game"
	"wander/protocol"
)

const (
	// moveStep is how far one move command advances a player.
	moveStep = 16
	// tickInterval batches position broadcasts.
	tickInterval = 100 * time.Millisecond
)

type command struct {
	client *Client
	action string
	dir    protocol.Direction
}

// Hub owns all world state and processes every event on one goroutine, so
// player state needs no locking.
type Hub struct {
	clients map[*Client]bool
	players map[string]protocol.Player
	dirty   map[string]bool

	register   chan *Client
	unregister chan *Client
	commands   chan command

	avatar protocol.Avatar
	log    *zap.SugaredLogger
}

// NewHub creates a hub serving the built-in generated avatar.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		players:    make(map[string]protocol.Player),
		dirty:      make(map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command, 64),
		avatar:     builtinAvatar(),
		log:        log,
	}
}

// Run processes hub events until the process exits.
func (h *Hub) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	h.log.Infow("hub started")
	for {
		select {
		case c := <-h.register:
			h.handleJoin(c)
		case c := <-h.unregister:
			h.handleLeave(c)
		case cmd := <-h.commands:
			h.handleCommand(cmd)
		case <-ticker.C:
			h.broadcastMoves()
		}
	}
}

func (h *Hub) handleJoin(c *Client) {
	if c.username == "" {
		c.sendJSON(protocol.JoinAck{
			Action: protocol.ActionJoinGame,
			Error:  "username required",
		})
		connectionsRejected.Inc()
		return
	}

	id := "player_" + uuid.New().String()[:8]
	p := protocol.Player{
		ID:     id,
		X:      float64(rand.Intn(game.WorldWidth)),
		Y:      float64(rand.Intn(game.WorldHeight)),
		Facing: protocol.DirDown,
		Name:   c.username,
		Avatar: h.avatar.Name,
	}

	h.clients[c] = true
	h.players[id] = p
	c.playerID = id
	playersConnected.Inc()

	snapshot := make(map[string]protocol.Player, len(h.players))
	for pid, pl := range h.players {
		snapshot[pid] = pl
	}
	c.sendJSON(protocol.JoinAck{
		Action:   protocol.ActionJoinGame,
		Success:  true,
		PlayerID: id,
		Players:  snapshot,
		Avatars:  map[string]protocol.Avatar{h.avatar.Name: h.avatar},
	})

	h.broadcastExcept(c, protocol.PlayerJoined{
		Action: protocol.ActionPlayerJoined,
		Player: p,
		Avatar: h.avatar,
	})
	h.log.Infow("player joined", "playerId", id, "username", c.username)
}

func (h *Hub) handleLeave(c *Client) {
	delete(h.clients, c)
	close(c.send)
	if c.playerID == "" {
		return
	}
	delete(h.players, c.playerID)
	delete(h.dirty, c.playerID)
	playersConnected.Dec()

	h.broadcastExcept(nil, protocol.PlayerLeft{
		Action:   protocol.ActionPlayerLeft,
		PlayerID: c.playerID,
	})
	h.log.Infow("player left", "playerId", c.playerID)
}

func (h *Hub) handleCommand(cmd command) {
	p, ok := h.players[cmd.client.playerID]
	if !ok {
		return
	}
	switch cmd.action {
	case protocol.ActionMove:
		p.Facing = cmd.dir
		switch cmd.dir {
		case protocol.DirUp:
			p.Y -= moveStep
		case protocol.DirDown:
			p.Y += moveStep
		case protocol.DirLeft:
			p.X -= moveStep
		case protocol.DirRight:
			p.X += moveStep
		}
		p.X = clamp(p.X, 0, game.WorldWidth-1)
		p.Y = clamp(p.Y, 0, game.WorldHeight-1)
		p.Frame = (p.Frame + 1) % avatarFrameCount
	case protocol.ActionStop:
		p.Frame = 0
	default:
		return
	}
	h.players[p.ID] = p
	h.dirty[p.ID] = true
}

// broadcastMoves sends one players_moved batch covering everything that
// changed since the previous tick.
func (h *Hub) broadcastMoves() {
	if len(h.dirty) == 0 {
		return
	}
	batch := make(map[string]protocol.Player, len(h.dirty))
	for id := range h.dirty {
		if p, ok := h.players[id]; ok {
			batch[id] = p
		}
	}
	h.dirty = make(map[string]bool)
	h.broadcastExcept(nil, protocol.PlayersMoved{
		Action:  protocol.ActionPlayersMoved,
		Players: batch,
	})
	broadcastsSent.Inc()
}

// broadcastExcept queues msg to every connected client but skip.
func (h *Hub) broadcastExcept(skip *Client, msg any) {
	for c := range h.clients {
		if c == skip {
			continue
		}
		c.sendJSON(msg)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
