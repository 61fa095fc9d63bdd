package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// Rooms is the registry of live rooms. It exclusively owns the room map;
// all lookups and lifecycle changes go through it.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]*core.Room)}
}

// Create allocates a room under a fresh unguessable id. Never fails.
func (m *Rooms) Create() *core.Room {
	room := core.NewRoom(domain.NewRoomID())
	m.mu.Lock()
	m.rooms[room.ID()] = room
	m.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID())).Msg("room created")
	return room
}

// Get is a pure lookup.
func (m *Rooms) Get(id domain.RoomID) (*core.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// Delete removes the room. Idempotent.
func (m *Rooms) Delete(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return
	}
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
}

// Touch refreshes the room's activity timestamp; no-op when absent.
func (m *Rooms) Touch(id domain.RoomID) {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		room.Touch()
	}
}

// List returns all live rooms in no particular order.
func (m *Rooms) List() []*core.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	return out
}

// Len returns the number of live rooms.
func (m *Rooms) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
