package app

import (
	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

// Broadcaster is the single choke point for outbound realtime traffic.
// Delivery is fire-and-forget: a frame that cannot be enqueued on a
// subscriber's send buffer is dropped and logged, never queued for
// later redelivery.
type Broadcaster struct {
	Registry *Registry
	Rooms    *Rooms
}

// ToRoom delivers frame to every member of room except, optionally,
// the originating connection. Fan-out iterates a snapshot, so a
// racing join/leave may or may not see the frame but never breaks it.
func (b *Broadcaster) ToRoom(room domain.RoomName, frame core.Frame, except core.Conn) {
	for _, c := range b.Rooms.MembersExcept(room, except) {
		b.send(c, frame)
	}
}

// ToConn is a best-effort single delivery; a nil or since-closed
// connection is a no-op.
func (b *Broadcaster) ToConn(conn core.Conn, frame core.Frame) {
	if conn == nil {
		return
	}
	b.send(conn, frame)
}

// ToAll delivers frame to every registered connection. Used for
// process-wide presence broadcasts, which are deliberately not
// room-scoped.
func (b *Broadcaster) ToAll(frame core.Frame, except core.Conn) {
	for _, c := range b.Registry.Snapshot() {
		if except != nil && c.ID() == except.ID() {
			continue
		}
		b.send(c, frame)
	}
}

func (b *Broadcaster) send(c core.Conn, frame core.Frame) {
	if err := c.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.broadcast").Str("conn", string(c.ID())).Err(err).Msg("dropped frame")
	}
}
