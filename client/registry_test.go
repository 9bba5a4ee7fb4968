package client

import (
	"testing"

	"wander/protocol"
)

func snap(id string, x, y float64) protocol.Player {
	return protocol.Player{ID: id, X: x, Y: y, Facing: protocol.DirDown, Name: "n-" + id}
}

func TestUpsertOverwritesWholesale(t *testing.T) {
	r := NewRegistry()
	r.Upsert(protocol.Player{ID: "p1", X: 1, Y: 2, Facing: protocol.DirLeft, Frame: 2, Name: "alice"})
	r.Upsert(protocol.Player{ID: "p1", X: 9, Y: 9, Facing: protocol.DirUp})

	got, ok := r.Get("p1")
	if !ok {
		t.Fatal("p1 missing")
	}
	// The second snapshot replaces everything, including fields it left zero.
	if got.X != 9 || got.Facing != protocol.DirUp || got.Frame != 0 || got.Name != "" {
		t.Fatalf("got %+v", got)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Upsert(snap("p1", 1, 1))
	r.Remove("p1")
	r.Remove("p1") // second removal of an absent id is a no-op
	r.Remove("never-existed")
	if r.Len() != 0 {
		t.Fatalf("registry not empty: %d", r.Len())
	}
}

func TestBulkUpsertMatchesSingles(t *testing.T) {
	batch := map[string]protocol.Player{
		"p1": snap("p1", 10, 20),
		"p2": snap("p2", 30, 40),
		"p3": snap("p3", 50, 60),
	}

	bulk := NewRegistry()
	bulk.BulkUpsert(batch)

	// Distinct ids commute: any order of single upserts yields the same state.
	orders := [][]string{
		{"p1", "p2", "p3"},
		{"p3", "p1", "p2"},
		{"p2", "p3", "p1"},
	}
	for _, order := range orders {
		single := NewRegistry()
		for _, id := range order {
			single.Upsert(batch[id])
		}
		for id := range batch {
			want, _ := bulk.Get(id)
			got, ok := single.Get(id)
			if !ok || got != want {
				t.Fatalf("order %v: %s = %+v, want %+v", order, id, got, want)
			}
		}
	}
}

func TestBulkUpsertTouchesOnlyBatchEntries(t *testing.T) {
	r := NewRegistry()
	r.Upsert(snap("p1", 1, 1))
	r.Upsert(snap("p2", 2, 2))
	r.Upsert(snap("p3", 3, 3))

	r.BulkUpsert(map[string]protocol.Player{
		"p1": snap("p1", 100, 100),
		"p3": snap("p3", 300, 300),
	})

	p1, _ := r.Get("p1")
	p2, _ := r.Get("p2")
	p3, _ := r.Get("p3")
	if p1.X != 100 || p3.X != 300 {
		t.Fatalf("batch entries not updated: %+v %+v", p1, p3)
	}
	if p2.X != 2 {
		t.Fatalf("untouched player changed: %+v", p2)
	}
}

func TestBulkUpsertFillsIDFromKey(t *testing.T) {
	r := NewRegistry()
	r.BulkUpsert(map[string]protocol.Player{
		"p9": {X: 5, Y: 6},
	})
	got, ok := r.Get("p9")
	if !ok || got.ID != "p9" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}

func TestPlayersReturnsCopies(t *testing.T) {
	r := NewRegistry()
	r.Upsert(snap("p1", 1, 1))
	players := r.Players()
	if len(players) != 1 {
		t.Fatalf("players = %v", players)
	}
	players[0].X = 999
	got, _ := r.Get("p1")
	if got.X != 1 {
		t.Fatal("mutating the snapshot copy leaked into the registry")
	}
}
