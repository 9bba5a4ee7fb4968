package client

import (
	"sync"
	"time"

	"wander/protocol"
)

// moveRepeatInterval approximates continuous movement over a discrete
// command channel: a held key re-sends its move command this often.
const moveRepeatInterval = 50 * time.Millisecond

// Sender delivers outbound commands. *Session satisfies it; tests supply
// their own.
type Sender interface {
	SendMove(dir protocol.Direction)
	SendStop()
}

// InputTranslator turns directional key edges into the server's command
// stream: one move on press, repeats while held, exactly one stop on
// release. At most one repeat timer exists per direction, so key-repeat
// noise from the input source cannot double the stream. A release waits
// for the key's repeat timer to exit before emitting its stop, so the stop
// is always the last command of a press/release cycle.
//
// Releasing any held key stops all movement even when another direction is
// still held. The server's movement model expects this, so it stays.
type InputTranslator struct {
	mu       sync.Mutex
	sender   Sender
	interval time.Duration
	held     map[protocol.Direction]heldKey
}

// heldKey tracks one active repeat timer: stop tells the timer goroutine to
// exit, done is closed by the goroutine once it has.
type heldKey struct {
	stop chan struct{}
	done chan struct{}
}

// NewInputTranslator returns a translator emitting through sender.
func NewInputTranslator(sender Sender) *InputTranslator {
	return &InputTranslator{
		sender:   sender,
		interval: moveRepeatInterval,
		held:     make(map[protocol.Direction]heldKey),
	}
}

// KeyDown registers a press edge for dir. Presses for a direction that is
// already held (key-repeat) are ignored. Non-directional input never
// reaches the translator.
func (t *InputTranslator) KeyDown(dir protocol.Direction) {
	if !dir.Valid() {
		return
	}
	t.mu.Lock()
	if _, already := t.held[dir]; already {
		t.mu.Unlock()
		return
	}
	k := heldKey{stop: make(chan struct{}), done: make(chan struct{})}
	t.held[dir] = k
	t.mu.Unlock()

	t.sender.SendMove(dir)
	go t.repeat(dir, k)
}

// repeat re-sends the move command until the key's stop channel closes. A
// tick that was already pending when the channel closed may still send one
// more move; KeyUp waits on done, so that move is still ordered before the
// release's stop.
func (t *InputTranslator) repeat(dir protocol.Direction, k heldKey) {
	defer close(k.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			t.sender.SendMove(dir)
		}
	}
}

// KeyUp registers a release edge for dir: its repeat timer is cancelled,
// waited out, and then exactly one stop command goes out. Releasing a key
// that was never held is a no-op.
func (t *InputTranslator) KeyUp(dir protocol.Direction) {
	t.mu.Lock()
	k, ok := t.held[dir]
	if ok {
		close(k.stop)
		delete(t.held, dir)
	}
	t.mu.Unlock()
	if ok {
		<-k.done
		t.sender.SendStop()
	}
}

// Held reports whether dir currently has an active repeat timer.
func (t *InputTranslator) Held(dir protocol.Direction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[dir]
	return ok
}

// ReleaseAll releases every held key, used on shutdown and on disconnect.
func (t *InputTranslator) ReleaseAll() {
	t.mu.Lock()
	dirs := make([]protocol.Direction, 0, len(t.held))
	for dir := range t.held {
		dirs = append(dirs, dir)
	}
	t.mu.Unlock()
	for _, dir := range dirs {
		t.KeyUp(dir)
	}
}
