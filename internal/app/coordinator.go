package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
	"github.com/concord-chat/concord/internal/store"
)

// ErrUnauthorizedChannel rejects a channel-room join for an identity
// outside the channel's server. No state is mutated.
var ErrUnauthorizedChannel = errors.New("no access to channel")

// Coordinator wires the realtime components and owns the connection
// lifecycle transitions the transport adapter triggers.
type Coordinator struct {
	Registry *Registry
	Rooms    *Rooms
	Presence *Presence
	Voice    *Voice
	Relay    *Relay
	Cast     *Broadcaster
	Store    store.Store
}

func NewCoordinator(st store.Store) *Coordinator {
	reg := NewRegistry()
	rooms := NewRooms()
	cast := &Broadcaster{Registry: reg, Rooms: rooms}
	return &Coordinator{
		Registry: reg,
		Rooms:    rooms,
		Presence: &Presence{Store: st, Cast: cast},
		Voice:    &Voice{Store: st, Rooms: rooms, Cast: cast},
		Relay:    &Relay{Registry: reg, Cast: cast},
		Cast:     cast,
		Store:    st,
	}
}

// OnConnect registers the connection and announces ONLINE. A second
// connection for the same identity supersedes the first: its rooms
// and voice session are torn down here, synchronously, before the new
// connection can act. Deferring that to the old read pump's teardown
// would let a rejoin on the new connection open a second voice row
// for the same (identity, channel) pair. The late teardown is left
// only the handle-guarded unregister, which no-ops.
func (c *Coordinator) OnConnect(ctx context.Context, conn core.Conn) {
	if prev, replaced := c.Registry.Register(conn); replaced {
		log.Info().Str("module", "app.coordinator").Str("user", string(conn.Identity().ID)).Msg("superseding previous connection")
		c.Voice.LeaveCurrent(ctx, prev)
		c.Rooms.LeaveAll(prev)
		prev.Close()
	}
	if err := c.Presence.OnConnect(ctx, conn); err != nil {
		log.Error().Str("module", "app.coordinator").Err(err).Msg("presence on connect")
	}
}

// OnDisconnect is the single teardown path and is idempotent: the
// voice leave only fires while a membership is active, LeaveAll on an
// unknown connection is empty, and the presence OFFLINE broadcast is
// keyed to actually removing the registry entry. A superseded
// connection therefore tears down its rooms without flipping the
// identity's presence, which now belongs to the newer connection.
func (c *Coordinator) OnDisconnect(ctx context.Context, conn core.Conn) {
	c.Voice.LeaveCurrent(ctx, conn)
	c.Rooms.LeaveAll(conn)
	if !c.Registry.Unregister(conn) {
		return
	}
	if err := c.Presence.OnDisconnect(ctx, conn.Identity()); err != nil {
		log.Error().Str("module", "app.coordinator").Err(err).Msg("presence on disconnect")
	}
}

// JoinServers pre-populates the connection's server rooms from the
// persisted memberships. Called once per connection, on request.
func (c *Coordinator) JoinServers(ctx context.Context, conn core.Conn) error {
	ids, err := c.Store.ServerIDsFor(ctx, conn.Identity().ID)
	if err != nil {
		return fmt.Errorf("load server memberships: %w", err)
	}
	for _, id := range ids {
		if err := c.Rooms.Join(domain.ServerRoom(id), conn); err != nil {
			return err
		}
	}
	return nil
}

// JoinChannel verifies the identity may see the channel before
// entering its room.
func (c *Coordinator) JoinChannel(ctx context.Context, conn core.Conn, channelID string) error {
	ok, err := c.Store.IsChannelMember(ctx, conn.Identity().ID, channelID)
	if err != nil {
		return fmt.Errorf("check channel membership: %w", err)
	}
	if !ok {
		return ErrUnauthorizedChannel
	}
	return c.Rooms.Join(domain.ChannelRoom(channelID), conn)
}

func (c *Coordinator) LeaveChannel(conn core.Conn, channelID string) {
	c.Rooms.Leave(domain.ChannelRoom(channelID), conn)
}

// messagePayload carries the stored message plus denormalized author
// display fields, matching what clients render.
type messagePayload struct {
	domain.Message
	domain.DisplayInfo
}

// SendMessage persists the message, then fans it out to the channel
// room, sender included. A failed insert emits nothing.
func (c *Coordinator) SendMessage(ctx context.Context, conn core.Conn, channelID, content string, attachments []string) error {
	uid := conn.Identity().ID
	msg, err := c.Store.InsertMessage(ctx, channelID, uid, content, attachments)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	info, err := c.Store.DisplayInfo(ctx, uid)
	if err != nil {
		return fmt.Errorf("load author info: %w", err)
	}
	frame, err := core.NewEvent("message:new", messagePayload{Message: msg, DisplayInfo: info})
	if err != nil {
		return err
	}
	c.Cast.ToRoom(domain.ChannelRoom(channelID), frame, nil)
	return nil
}

type dmPayload struct {
	domain.DirectMessage
	SenderUsername string `json:"senderUsername"`
}

// SendDirectMessage persists a 1:1 message, delivers it live when the
// receiver is connected and echoes a receipt to the sender.
func (c *Coordinator) SendDirectMessage(ctx context.Context, conn core.Conn, receiverID domain.UserID, content string) error {
	sender := conn.Identity()
	dm, err := c.Store.InsertDirectMessage(ctx, sender.ID, receiverID, content)
	if err != nil {
		return fmt.Errorf("insert direct message: %w", err)
	}
	if receiver, ok := c.Registry.Resolve(receiverID); ok {
		c.Cast.ToConn(receiver, core.MustEvent("dm:new", dmPayload{DirectMessage: dm, SenderUsername: sender.Username}))
	}
	c.Cast.ToConn(conn, core.MustEvent("dm:sent", dm))
	return nil
}
