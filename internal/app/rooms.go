package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

// ErrVoiceRoomOccupied rejects joining a voice room while the
// connection still occupies a different one. The voice lifecycle is
// expected to issue the leave first; this is the backstop invariant.
var ErrVoiceRoomOccupied = errors.New("connection already in another voice room")

// Rooms maintains the subscriber sets for all three room kinds.
// Purely in-memory: rooms exist while they have members and are
// dropped when empty. Nothing here survives a restart.
type Rooms struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomName]map[core.ConnID]core.Conn
	byConn  map[core.ConnID]map[domain.RoomName]struct{}
	voiceOf map[core.ConnID]domain.RoomName
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:   make(map[domain.RoomName]map[core.ConnID]core.Conn),
		byConn:  make(map[core.ConnID]map[domain.RoomName]struct{}),
		voiceOf: make(map[core.ConnID]domain.RoomName),
	}
}

func (r *Rooms) Join(room domain.RoomName, conn core.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.IsVoice() {
		if cur, ok := r.voiceOf[conn.ID()]; ok && cur != room {
			return ErrVoiceRoomOccupied
		}
		r.voiceOf[conn.ID()] = room
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[core.ConnID]core.Conn)
		r.rooms[room] = members
	}
	members[conn.ID()] = conn
	if _, ok := r.byConn[conn.ID()]; !ok {
		r.byConn[conn.ID()] = make(map[domain.RoomName]struct{})
	}
	r.byConn[conn.ID()][room] = struct{}{}
	log.Debug().Str("module", "app.rooms").Str("room", string(room)).Str("conn", string(conn.ID())).Msg("joined room")
	return nil
}

func (r *Rooms) Leave(room domain.RoomName, conn core.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, conn.ID())
}

func (r *Rooms) leaveLocked(room domain.RoomName, id core.ConnID) {
	if members, ok := r.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if set, ok := r.byConn[id]; ok {
		delete(set, room)
		if len(set) == 0 {
			delete(r.byConn, id)
		}
	}
	if r.voiceOf[id] == room {
		delete(r.voiceOf, id)
	}
}

// LeaveAll removes the connection from every room it is in and
// returns those rooms. Used on disconnect.
func (r *Rooms) LeaveAll(conn core.Conn) []domain.RoomName {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byConn[conn.ID()]
	if !ok {
		return nil
	}
	out := make([]domain.RoomName, 0, len(set))
	for room := range set {
		out = append(out, room)
	}
	for _, room := range out {
		r.leaveLocked(room, conn.ID())
	}
	return out
}

// Members returns a point-in-time snapshot of the room's subscribers.
func (r *Rooms) Members(room domain.RoomName) []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]core.Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// MembersExcept is Members minus one connection, typically the caller.
func (r *Rooms) MembersExcept(room domain.RoomName, except core.Conn) []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]core.Conn, 0, len(members))
	for id, c := range members {
		if except != nil && id == except.ID() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// VoiceRoomOf returns the single voice room the connection occupies.
func (r *Rooms) VoiceRoomOf(conn core.Conn) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.voiceOf[conn.ID()]
	return room, ok
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"memberCount"`
}

// List is a diagnostics view of the live rooms.
func (r *Rooms) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for name, members := range r.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: len(members)})
	}
	return out
}
