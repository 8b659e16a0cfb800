package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

type sendMessagePayload struct {
	ChannelID   string   `json:"channelId" validate:"required"`
	Content     string   `json:"content" validate:"required,max=4000"`
	Attachments []string `json:"attachments" validate:"max=10"`
}

func (ctl *Controller) handleMessageSend(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p sendMessagePayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	if err := ctl.Coord.SendMessage(ctx, conn, p.ChannelID, p.Content, p.Attachments); err != nil {
		log.Error().Str("module", "ws").Str("channel", p.ChannelID).Err(err).Msg("send message failed")
		ctl.sendError(conn, "message_send_failed")
	}
}
