package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/domain"
)

type dmSendPayload struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,max=4000"`
}

func (ctl *Controller) handleDMSend(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p dmSendPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	if err := ctl.Coord.SendDirectMessage(ctx, conn, domain.UserID(p.ReceiverID), p.Content); err != nil {
		log.Error().Str("module", "ws").Str("receiver", p.ReceiverID).Err(err).Msg("dm send failed")
	}
}
