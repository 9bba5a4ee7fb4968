package client

import (
	"sync"
	"testing"
	"time"

	"wander/protocol"
)

type recordingSender struct {
	mu     sync.Mutex
	moves  []protocol.Direction
	stops  int
	events []string // "move"/"stop" in arrival order
}

func (s *recordingSender) SendMove(dir protocol.Direction) {
	s.mu.Lock()
	s.moves = append(s.moves, dir)
	s.events = append(s.events, "move")
	s.mu.Unlock()
}

func (s *recordingSender) SendStop() {
	s.mu.Lock()
	s.stops++
	s.events = append(s.events, "stop")
	s.mu.Unlock()
}

func (s *recordingSender) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.moves), s.stops
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return ""
	}
	return s.events[len(s.events)-1]
}

func newTestTranslator() (*InputTranslator, *recordingSender) {
	sender := &recordingSender{}
	tr := NewInputTranslator(sender)
	tr.interval = 5 * time.Millisecond
	return tr, sender
}

func TestKeyDownSendsImmediatelyThenRepeats(t *testing.T) {
	tr, sender := newTestTranslator()
	defer tr.ReleaseAll()

	tr.KeyDown(protocol.DirUp)
	moves, _ := sender.counts()
	if moves != 1 {
		t.Fatalf("expected one immediate move, got %d", moves)
	}
	time.Sleep(50 * time.Millisecond)
	moves, _ = sender.counts()
	if moves < 3 {
		t.Fatalf("expected repeats while held, got %d moves", moves)
	}
}

func TestRepeatedKeyDownStartsOneTimer(t *testing.T) {
	tr, sender := newTestTranslator()

	tr.KeyDown(protocol.DirRight)
	tr.KeyDown(protocol.DirRight) // key-repeat from the input source
	tr.KeyDown(protocol.DirRight)

	moves, _ := sender.counts()
	if moves != 1 {
		t.Fatalf("repeat edges re-sent the command: %d moves", moves)
	}

	tr.KeyUp(protocol.DirRight)
	_, stops := sender.counts()
	if stops != 1 {
		t.Fatalf("expected exactly one stop per release, got %d", stops)
	}

	// No stray timer: the move count settles once released.
	settled, _ := sender.counts()
	time.Sleep(30 * time.Millisecond)
	after, _ := sender.counts()
	if after != settled {
		t.Fatalf("moves kept flowing after release: %d -> %d", settled, after)
	}
}

func TestStopIsAlwaysLastCommand(t *testing.T) {
	tr, sender := newTestTranslator()
	tr.interval = time.Millisecond

	// Hammer press/release cycles fast enough that repeat ticks land right
	// around the release edge. The server keeps a player moving forever if
	// a move arrives after the stop, so the stop must end every cycle.
	for i := 0; i < 500; i++ {
		tr.KeyDown(protocol.DirUp)
		if i%25 == 0 {
			time.Sleep(2 * time.Millisecond) // let some ticks queue up
		}
		tr.KeyUp(protocol.DirUp)
		if last := sender.last(); last != "stop" {
			t.Fatalf("cycle %d: last command %q after release", i, last)
		}
	}

	// Nothing trails in after the final release either.
	time.Sleep(20 * time.Millisecond)
	if last := sender.last(); last != "stop" {
		t.Fatalf("command %q arrived after the final stop", last)
	}
}

func TestKeyUpWithoutKeyDown(t *testing.T) {
	tr, sender := newTestTranslator()
	tr.KeyUp(protocol.DirLeft)
	if _, stops := sender.counts(); stops != 0 {
		t.Fatalf("phantom stop emitted: %d", stops)
	}
}

func TestInvalidDirectionIgnored(t *testing.T) {
	tr, sender := newTestTranslator()
	tr.KeyDown(protocol.Direction("diagonal"))
	if moves, _ := sender.counts(); moves != 0 {
		t.Fatalf("invalid direction produced a move: %d", moves)
	}
	if tr.Held(protocol.Direction("diagonal")) {
		t.Fatal("invalid direction marked held")
	}
}

func TestReleaseOneOfTwoHeldKeys(t *testing.T) {
	tr, sender := newTestTranslator()
	defer tr.ReleaseAll()

	tr.KeyDown(protocol.DirUp)
	tr.KeyDown(protocol.DirLeft)
	tr.KeyUp(protocol.DirUp)

	// A release always emits its stop, even while another key stays held.
	if _, stops := sender.counts(); stops != 1 {
		t.Fatalf("expected one stop, got %d", stops)
	}
	if !tr.Held(protocol.DirLeft) || tr.Held(protocol.DirUp) {
		t.Fatal("held-key bookkeeping wrong after partial release")
	}
}

func TestReleaseAll(t *testing.T) {
	tr, sender := newTestTranslator()

	tr.KeyDown(protocol.DirUp)
	tr.KeyDown(protocol.DirDown)
	tr.ReleaseAll()

	if _, stops := sender.counts(); stops != 2 {
		t.Fatalf("expected a stop per held key, got %d", stops)
	}
	for _, dir := range protocol.Directions {
		if tr.Held(dir) {
			t.Fatalf("%s still held after ReleaseAll", dir)
		}
	}
}
