package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/app"
)

type channelPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
}

func (ctl *Controller) handleChannelJoin(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p channelPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	if err := ctl.Coord.JoinChannel(ctx, conn, p.ChannelID); err != nil {
		if errors.Is(err, app.ErrUnauthorizedChannel) {
			ctl.sendError(conn, "channel_access_denied")
			return
		}
		log.Error().Str("module", "ws").Str("channel", p.ChannelID).Err(err).Msg("channel join failed")
		return
	}
	log.Info().Str("module", "ws").Str("user", conn.Identity().Username).Str("channel", p.ChannelID).Msg("joined channel")
}

func (ctl *Controller) handleChannelLeave(_ context.Context, conn *Conn, data json.RawMessage) {
	var p channelPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	ctl.Coord.LeaveChannel(conn, p.ChannelID)
}

// bind decodes and validates an inbound payload; on failure it emits
// a bad_payload error event and reports false.
func (ctl *Controller) bind(conn *Conn, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("bad payload")
		ctl.sendError(conn, "bad_payload")
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("invalid payload")
		ctl.sendError(conn, "bad_payload")
		return false
	}
	return true
}
