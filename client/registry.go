package client

import (
	"sync"

	"wander/protocol"
)

// Registry is the client-side mirror of authoritative player state. It is
// mutated only by the session's message dispatch and read-copied by the
// render loop, so a plain RWMutex is all the coordination needed.
type Registry struct {
	mu      sync.RWMutex
	players map[string]protocol.Player
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]protocol.Player)}
}

// Upsert inserts or fully overwrites the snapshot for its id. Updates carry
// complete state, so there is no partial-field merge.
func (r *Registry) Upsert(p protocol.Player) {
	r.mu.Lock()
	r.players[p.ID] = p
	r.mu.Unlock()
}

// BulkUpsert applies Upsert for every entry in a players_moved batch.
// Entries are independent, so application order does not matter.
func (r *Registry) BulkUpsert(batch map[string]protocol.Player) {
	r.mu.Lock()
	for id, p := range batch {
		if p.ID == "" {
			p.ID = id
		}
		r.players[p.ID] = p
	}
	r.mu.Unlock()
}

// Remove deletes the snapshot for id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.players, id)
	r.mu.Unlock()
}

// Get returns the snapshot for id, if present.
func (r *Registry) Get(id string) (protocol.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Players returns a copy of every snapshot for lock-free iteration in the
// render loop.
func (r *Registry) Players() []protocol.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// Len returns the number of known players.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
