package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
	"github.com/concord-chat/concord/internal/store"
)

// Voice drives the per-(identity, channel) session state machine and
// keeps the persisted session record consistent with live room
// membership. The at-most-one-open-row invariant lives here, not in
// the database; callers serialize join/leave per connection (the read
// pump already does).
type Voice struct {
	Store store.Store
	Rooms *Rooms
	Cast  *Broadcaster
}

// Join opens a session row, enters the voice room, announces the
// newcomer to the room and replies with the current occupant list so
// the joiner can start peer handshakes. Joining while occupying a
// different voice room issues the leave first.
func (v *Voice) Join(ctx context.Context, conn core.Conn, channelID string) error {
	room := domain.VoiceRoom(channelID)
	if cur, ok := v.Rooms.VoiceRoomOf(conn); ok {
		if cur == room {
			return nil
		}
		v.Leave(ctx, conn, cur.ChannelID())
	}

	uid := conn.Identity().ID
	if _, err := v.Store.OpenVoiceSession(ctx, uid, channelID); err != nil {
		log.Error().Str("module", "app.voice").Str("user", string(uid)).Str("channel", channelID).Err(err).Msg("open voice session failed")
		return fmt.Errorf("open voice session: %w", err)
	}
	if err := v.Rooms.Join(room, conn); err != nil {
		// Room state refused the join after the row was opened; close
		// it again so no orphan row stays behind.
		if cerr := v.Store.CloseVoiceSession(ctx, uid, channelID, time.Now()); cerr != nil {
			log.Error().Str("module", "app.voice").Str("user", string(uid)).Err(cerr).Msg("rollback voice session failed")
		}
		return err
	}

	v.Cast.ToRoom(room, core.MustEvent("voice:user-joined", core.MemberOf(conn)), conn)

	others := lo.Map(v.Rooms.MembersExcept(room, conn), func(c core.Conn, _ int) core.MemberDTO {
		return core.MemberOf(c)
	})
	v.Cast.ToConn(conn, core.MustEvent("voice:users-list", others))

	log.Info().Str("module", "app.voice").Str("user", string(uid)).Str("channel", channelID).Msg("joined voice")
	return nil
}

// Leave closes the open session row, exits the room and tells the
// remaining occupants. A failed or missing row close is logged but
// never blocks the in-memory leave, so the connection cannot end up
// stranded in a room it believes it has left.
func (v *Voice) Leave(ctx context.Context, conn core.Conn, channelID string) {
	uid := conn.Identity().ID
	if err := v.Store.CloseVoiceSession(ctx, uid, channelID, time.Now()); err != nil {
		if errors.Is(err, store.ErrNoOpenSession) {
			log.Warn().Str("module", "app.voice").Str("user", string(uid)).Str("channel", channelID).Msg("leave without open session")
		} else {
			log.Error().Str("module", "app.voice").Str("user", string(uid)).Str("channel", channelID).Err(err).Msg("close voice session failed")
		}
	}

	room := domain.VoiceRoom(channelID)
	v.Rooms.Leave(room, conn)
	v.Cast.ToRoom(room, core.MustEvent("voice:user-left", core.MemberOf(conn)), nil)
	log.Info().Str("module", "app.voice").Str("user", string(uid)).Str("channel", channelID).Msg("left voice")
}

// LeaveCurrent closes whatever voice room the connection occupies, if
// any. Disconnect teardown path.
func (v *Voice) LeaveCurrent(ctx context.Context, conn core.Conn) {
	if room, ok := v.Rooms.VoiceRoomOf(conn); ok {
		v.Leave(ctx, conn, room.ChannelID())
	}
}
