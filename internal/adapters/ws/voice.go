package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleVoiceJoin(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p channelPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	if err := ctl.Coord.Voice.Join(ctx, conn, p.ChannelID); err != nil {
		// Voice join failures are silent toward the client; it will
		// observe the missing users-list reply and give up.
		log.Error().Str("module", "ws").Str("channel", p.ChannelID).Err(err).Msg("voice join failed")
	}
}

func (ctl *Controller) handleVoiceLeave(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p channelPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	ctl.Coord.Voice.Leave(ctx, conn, p.ChannelID)
}
