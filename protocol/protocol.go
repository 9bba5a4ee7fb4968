// Package protocol defines the JSON message envelopes exchanged with the
// game server. The shapes are dictated by the server; this package only
// mirrors them and validates the pieces the client relies on.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Direction is one of the four facing/movement tokens the server understands.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Valid reports whether d is one of the four known direction tokens.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Directions lists every valid direction, in a fixed order for iteration.
var Directions = []Direction{DirUp, DirDown, DirLeft, DirRight}

// Action discriminator values. Inbound and outbound join share a name; the
// presence of the success field tells them apart.
const (
	ActionJoinGame     = "join_game"
	ActionMove         = "move"
	ActionStop         = "stop"
	ActionPlayerJoined = "player_joined"
	ActionPlayersMoved = "players_moved"
	ActionPlayerLeft   = "player_left"
)

// Player is the complete authoritative snapshot of one player. Every update
// message carries full snapshots, never partial field merges.
type Player struct {
	ID     string    `json:"id"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Facing Direction `json:"facing"`
	Frame  int       `json:"animationFrame"`
	Name   string    `json:"username"`
	Avatar string    `json:"avatar"`
}

// Avatar maps each facing direction to an ordered list of encoded image
// payloads (base64 PNG, optionally carrying a data: URL prefix). Definitions
// are immutable per name for the lifetime of a session.
type Avatar struct {
	Name   string                 `json:"name"`
	Frames map[Direction][]string `json:"frames"`
}

// JoinRequest is the outbound handshake sent once the socket is up.
type JoinRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
}

// NewJoinRequest builds a join_game request for the given display name.
func NewJoinRequest(username string) JoinRequest {
	return JoinRequest{Action: ActionJoinGame, Username: username}
}

// MoveCommand asks the server to step the local player one unit.
type MoveCommand struct {
	Action    string    `json:"action"`
	Direction Direction `json:"direction"`
}

// NewMoveCommand builds a move command for the given direction.
func NewMoveCommand(dir Direction) MoveCommand {
	return MoveCommand{Action: ActionMove, Direction: dir}
}

// StopCommand halts the local player.
type StopCommand struct {
	Action string `json:"action"`
}

// NewStopCommand builds a stop command.
func NewStopCommand() StopCommand {
	return StopCommand{Action: ActionStop}
}

// JoinAck is the server's reply to a join request. On success it carries the
// full world snapshot used to seed client state.
type JoinAck struct {
	Action   string            `json:"action"`
	Success  bool              `json:"success"`
	PlayerID string            `json:"playerId"`
	Players  map[string]Player `json:"players"`
	Avatars  map[string]Avatar `json:"avatars"`
	Error    string            `json:"error"`
}

// PlayerJoined announces a newly connected player along with its avatar
// definition so the client can start decoding frames immediately.
type PlayerJoined struct {
	Action string `json:"action"`
	Player Player `json:"player"`
	Avatar Avatar `json:"avatar"`
}

// PlayersMoved carries a batch of updated snapshots keyed by player id.
type PlayersMoved struct {
	Action  string            `json:"action"`
	Players map[string]Player `json:"players"`
}

// PlayerLeft announces a departed player.
type PlayerLeft struct {
	Action   string `json:"action"`
	PlayerID string `json:"playerId"`
}

// Action peeks at the discriminator of a raw inbound message without
// committing to a full parse. Unknown actions are not an error here; the
// dispatcher logs and ignores them for forward compatibility.
func Action(data []byte) (string, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("parse envelope: %w", err)
	}
	if head.Action == "" {
		return "", fmt.Errorf("envelope missing action")
	}
	return head.Action, nil
}
