package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/domain"
)

type statusUpdatePayload struct {
	Status string `json:"status" validate:"required"`
}

func (ctl *Controller) handleStatusUpdate(ctx context.Context, conn *Conn, data json.RawMessage) {
	var p statusUpdatePayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	status, err := domain.ParseStatus(p.Status)
	if err != nil {
		ctl.sendError(conn, "invalid_status")
		return
	}
	// Explicit status changes echo back to the sender too.
	if err := ctl.Coord.Presence.SetStatus(ctx, conn.Identity(), status, nil); err != nil {
		if !errors.Is(err, domain.ErrInvalidStatus) {
			log.Error().Str("module", "ws").Err(err).Msg("status update failed")
		}
	}
}
