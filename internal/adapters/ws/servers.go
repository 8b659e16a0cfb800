package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleJoinServers(ctx context.Context, conn *Conn, _ json.RawMessage) {
	if err := ctl.Coord.JoinServers(ctx, conn); err != nil {
		log.Error().Str("module", "ws").Str("user", string(conn.Identity().ID)).Err(err).Msg("join servers failed")
	}
}
