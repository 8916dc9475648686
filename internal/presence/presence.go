// internal/presence/presence.go

// Package presence keeps a best-effort online/offline view per room. It is
// advisory only: game correctness never depends on who appears online, so
// every operation degrades to an empty result instead of failing.
package presence

import (
	"sort"
	"sync"
)

type roomPlayer struct {
	room   string
	player string
}

// Tracker maps transport connections to (room, player) and derives the set
// of online player ids per room. The two maps are kept mutually consistent
// under one mutex.
type Tracker struct {
	mu           sync.RWMutex
	byConnection map[string]roomPlayer
	onlineByRoom map[string]map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byConnection: make(map[string]roomPlayer),
		onlineByRoom: make(map[string]map[string]struct{}),
	}
}

// Identify binds a connection to a (room, player) pair, replacing any prior
// identity that connection held.
func (t *Tracker) Identify(connectionID, room, playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byConnection[connectionID]; ok {
		t.removeMembership(prev)
	}

	t.byConnection[connectionID] = roomPlayer{room: room, player: playerID}

	set, ok := t.onlineByRoom[room]
	if !ok {
		set = make(map[string]struct{})
		t.onlineByRoom[room] = set
	}
	set[playerID] = struct{}{}
}

// RemoveByConnection clears both sides of a connection's identity. Unknown
// connections are a no-op.
func (t *Tracker) RemoveByConnection(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.byConnection[connectionID]
	if !ok {
		return
	}
	delete(t.byConnection, connectionID)
	t.removeMembership(prev)
}

// removeMembership deletes the player from the room set and drops empty room
// entries to bound memory. Caller must hold t.mu.
func (t *Tracker) removeMembership(rp roomPlayer) {
	set, ok := t.onlineByRoom[rp.room]
	if !ok {
		return
	}
	delete(set, rp.player)
	if len(set) == 0 {
		delete(t.onlineByRoom, rp.room)
	}
}

// GetOnlinePlayerIds returns the sorted online player ids for a room, empty
// for unknown rooms.
func (t *Tracker) GetOnlinePlayerIds(room string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set, ok := t.onlineByRoom[room]
	if !ok {
		return []string{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoomForConnection reports which room a connection identified into, if any.
func (t *Tracker) RoomForConnection(connectionID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rp, ok := t.byConnection[connectionID]
	return rp.room, ok
}
