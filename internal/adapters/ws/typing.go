package ws

import (
	"context"
	"encoding/json"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

type typingOut struct {
	ChannelID string        `json:"channelId"`
	UserID    domain.UserID `json:"userId"`
	Username  string        `json:"username,omitempty"`
}

// Typing indicators are pure fan-out: no persistence, sender excluded
// so it never sees its own echo.
func (ctl *Controller) handleTypingStart(_ context.Context, conn *Conn, data json.RawMessage) {
	ctl.relayTyping(conn, data, "typing:start", true)
}

func (ctl *Controller) handleTypingStop(_ context.Context, conn *Conn, data json.RawMessage) {
	ctl.relayTyping(conn, data, "typing:stop", false)
}

func (ctl *Controller) relayTyping(conn *Conn, data json.RawMessage, event string, withName bool) {
	var p channelPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	out := typingOut{ChannelID: p.ChannelID, UserID: conn.Identity().ID}
	if withName {
		out.Username = conn.Identity().Username
	}
	ctl.Coord.Cast.ToRoom(domain.ChannelRoom(p.ChannelID), core.MustEvent(event, out), conn)
}
