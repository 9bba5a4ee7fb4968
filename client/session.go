package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wander/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
)

// Session owns the websocket connection and the message dispatch that keeps
// the registry and avatar cache mirroring server state. All inbound
// envelopes are handled in arrival order on a single read loop, so the
// render loop always observes the cumulative effect of every message
// handled before the frame began.
//
// A transport fault is terminal: the session flips to disconnected and
// never reconnects.
type Session struct {
	conn     *websocket.Conn
	registry *Registry
	avatars  *AvatarCache
	log      *zap.SugaredLogger

	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	mu           sync.RWMutex
	localID      string
	ready        bool
	disconnected bool
	lastError    string

	closeOnce sync.Once
}

// Dial connects to the server, starts the read and write pumps, and queues
// the join request carrying username. The session is not Ready until the
// server acknowledges the join.
func Dial(ctx context.Context, url, username string, registry *Registry, avatars *AvatarCache, log *zap.SugaredLogger) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	s := &Session{
		conn:     conn,
		registry: registry,
		avatars:  avatars,
		log:      log,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		// Outbound command budget. Four held directions repeating at 50ms
		// come to 80 messages a second; the limiter only bites if something
		// misbehaves.
		limiter: rate.NewLimiter(rate.Limit(120), 30),
	}
	go s.readLoop()
	go s.writePump()
	s.enqueue(protocol.NewJoinRequest(username), protocol.ActionJoinGame)
	log.Infow("connected", "server", url, "username", username)
	return s, nil
}

// readLoop pumps messages off the socket and dispatches them until the
// connection dies.
func (s *Session) readLoop() {
	defer close(s.done)
	defer s.markDisconnected("connection closed")

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Infow("server closed connection")
			} else {
				s.log.Errorw("read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.log.Warnw("ignoring non-text message", "type", msgType)
			continue
		}
		receivedBytesCounter.Add(float64(len(data)))
		s.dispatch(data)
	}
}

// dispatch routes one inbound envelope. A message that fails to parse is
// discarded; the session continues with the next one.
func (s *Session) dispatch(data []byte) {
	action, err := protocol.Action(data)
	if err != nil {
		discardedMessagesCounter.Inc()
		s.log.Warnw("discarding malformed message", "error", err)
		return
	}
	receivedMessagesCounter.WithLabelValues(action).Inc()

	switch action {
	case protocol.ActionJoinGame:
		var ack protocol.JoinAck
		if err := json.Unmarshal(data, &ack); err != nil {
			s.discard(action, err)
			return
		}
		s.handleJoinAck(ack)

	case protocol.ActionPlayerJoined:
		var msg protocol.PlayerJoined
		if err := json.Unmarshal(data, &msg); err != nil {
			s.discard(action, err)
			return
		}
		s.registry.Upsert(msg.Player)
		s.avatars.Register(msg.Avatar)
		s.avatars.DecodeAsync(msg.Avatar)

	case protocol.ActionPlayersMoved:
		var msg protocol.PlayersMoved
		if err := json.Unmarshal(data, &msg); err != nil {
			s.discard(action, err)
			return
		}
		s.registry.BulkUpsert(msg.Players)

	case protocol.ActionPlayerLeft:
		var msg protocol.PlayerLeft
		if err := json.Unmarshal(data, &msg); err != nil {
			s.discard(action, err)
			return
		}
		s.registry.Remove(msg.PlayerID)

	default:
		// Forward-compatible no-op.
		s.log.Infow("ignoring unknown action", "action", action)
	}
}

func (s *Session) discard(action string, err error) {
	discardedMessagesCounter.Inc()
	s.log.Warnw("discarding malformed payload", "action", action, "error", err)
}

// handleJoinAck seeds client state from the snapshot on success. A rejected
// join leaves the registry empty and the session permanently not ready.
func (s *Session) handleJoinAck(ack protocol.JoinAck) {
	if !ack.Success {
		s.mu.Lock()
		s.lastError = ack.Error
		s.mu.Unlock()
		s.log.Errorw("join rejected", "error", ack.Error)
		return
	}

	s.registry.BulkUpsert(ack.Players)
	for name, av := range ack.Avatars {
		if av.Name == "" {
			av.Name = name // the map key is authoritative
		}
		s.avatars.Register(av)
		s.avatars.DecodeAsync(av)
	}

	s.mu.Lock()
	s.localID = ack.PlayerID
	s.ready = true
	s.mu.Unlock()
	s.log.Infow("joined", "playerId", ack.PlayerID,
		"players", len(ack.Players), "avatars", len(ack.Avatars))
}

// writePump serializes all socket writes and keeps the connection alive
// with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			if err := s.limiter.Wait(context.Background()); err != nil {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Errorw("write failed", "error", err)
				s.markDisconnected("write failed")
				return
			}
			sentBytesCounter.Add(float64(len(data)))
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Errorw("ping failed", "error", err)
				s.markDisconnected("ping failed")
				return
			}
		}
	}
}

// enqueue marshals and queues one outbound envelope. A full buffer drops
// the message rather than stalling the caller; the repeat timer will send
// another shortly anyway.
func (s *Session) enqueue(v any, action string) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Errorw("marshal outbound", "action", action, "error", err)
		return
	}
	select {
	case s.send <- data:
		sentMessagesCounter.WithLabelValues(action).Inc()
	default:
		s.log.Warnw("send buffer full, dropping command", "action", action)
	}
}

// SendMove queues a move command. Part of the Sender interface used by the
// input translator.
func (s *Session) SendMove(dir protocol.Direction) {
	s.enqueue(protocol.NewMoveCommand(dir), protocol.ActionMove)
}

// SendStop queues a stop command.
func (s *Session) SendStop() {
	s.enqueue(protocol.NewStopCommand(), protocol.ActionStop)
}

func (s *Session) markDisconnected(reason string) {
	s.mu.Lock()
	if !s.disconnected {
		s.disconnected = true
		if s.lastError == "" {
			s.lastError = reason
		}
	}
	s.mu.Unlock()
}

// Ready reports whether the join handshake completed successfully.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// LocalID returns the local player's identifier once the session is ready.
func (s *Session) LocalID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localID
}

// Disconnected reports whether the transport has failed. Terminal.
func (s *Session) Disconnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disconnected
}

// Err returns the join rejection or disconnect reason, if any.
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Done is closed when the read loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the connection down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
	})
}
