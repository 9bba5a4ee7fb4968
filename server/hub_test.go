package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wander/game"
	"wander/protocol"
)

func startPlayground(t *testing.T) string {
	t.Helper()
	log := zap.NewNop().Sugar()
	hub := NewHub(log)
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, log, w, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func join(t *testing.T, url, username string) (*websocket.Conn, protocol.JoinAck) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := conn.WriteJSON(protocol.NewJoinRequest(username)); err != nil {
		t.Fatalf("send join: %v", err)
	}
	var ack protocol.JoinAck
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, data, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read ack: %v", err)
	} else if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("parse ack: %v", err)
	}
	return conn, ack
}

// readUntil skips unrelated traffic until a message with the wanted action
// arrives.
func readUntil(t *testing.T, conn *websocket.Conn, action string) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", action, err)
		}
		if got, err := protocol.Action(data); err == nil && got == action {
			return data
		}
	}
}

func TestJoinAckCarriesSnapshot(t *testing.T) {
	url := startPlayground(t)
	_, ack := join(t, url, "alice")

	if !ack.Success || ack.PlayerID == "" {
		t.Fatalf("ack = %+v", ack)
	}
	self, ok := ack.Players[ack.PlayerID]
	if !ok || self.Name != "alice" {
		t.Fatalf("self snapshot missing: %+v", ack.Players)
	}
	if self.X < 0 || self.X >= game.WorldWidth || self.Y < 0 || self.Y >= game.WorldHeight {
		t.Fatalf("spawn outside world: %+v", self)
	}
	av, ok := ack.Avatars[self.Avatar]
	if !ok {
		t.Fatalf("avatar %q not in snapshot", self.Avatar)
	}
	for _, dir := range protocol.Directions {
		if len(av.Frames[dir]) != avatarFrameCount {
			t.Fatalf("avatar %s has %d frames for %s", av.Name, len(av.Frames[dir]), dir)
		}
	}
}

func TestJoinWithoutUsernameRejected(t *testing.T) {
	url := startPlayground(t)
	_, ack := join(t, url, "")
	if ack.Success || ack.Error == "" {
		t.Fatalf("expected rejection, got %+v", ack)
	}
}

func TestSecondJoinIsAnnounced(t *testing.T) {
	url := startPlayground(t)
	first, _ := join(t, url, "alice")
	_, bobAck := join(t, url, "bob")

	data := readUntil(t, first, protocol.ActionPlayerJoined)
	var msg protocol.PlayerJoined
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Player.ID != bobAck.PlayerID || msg.Player.Name != "bob" {
		t.Fatalf("announced %+v, want bob (%s)", msg.Player, bobAck.PlayerID)
	}
	if msg.Avatar.Name == "" {
		t.Fatal("player_joined missing avatar definition")
	}
}

func TestMoveIsBatchBroadcast(t *testing.T) {
	url := startPlayground(t)
	watcher, _ := join(t, url, "alice")
	mover, moverAck := join(t, url, "bob")
	readUntil(t, watcher, protocol.ActionPlayerJoined)

	start := moverAck.Players[moverAck.PlayerID]
	if err := mover.WriteJSON(protocol.NewMoveCommand(protocol.DirRight)); err != nil {
		t.Fatal(err)
	}

	data := readUntil(t, watcher, protocol.ActionPlayersMoved)
	var msg protocol.PlayersMoved
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	moved, ok := msg.Players[moverAck.PlayerID]
	if !ok {
		t.Fatalf("mover not in batch: %+v", msg.Players)
	}
	wantX := start.X + moveStep
	if wantX > game.WorldWidth-1 {
		wantX = game.WorldWidth - 1
	}
	if moved.X != wantX || moved.Facing != protocol.DirRight {
		t.Fatalf("moved = %+v, want x=%v facing=right", moved, wantX)
	}
	if moved.Frame == start.Frame {
		t.Fatal("animation frame did not advance")
	}
}

func TestLeaveIsAnnounced(t *testing.T) {
	url := startPlayground(t)
	watcher, _ := join(t, url, "alice")
	leaver, leaverAck := join(t, url, "bob")
	readUntil(t, watcher, protocol.ActionPlayerJoined)

	leaver.Close()

	data := readUntil(t, watcher, protocol.ActionPlayerLeft)
	var msg protocol.PlayerLeft
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.PlayerID != leaverAck.PlayerID {
		t.Fatalf("announced %q, want %q", msg.PlayerID, leaverAck.PlayerID)
	}
}
