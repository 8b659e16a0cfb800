package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
	"github.com/concord-chat/concord/internal/store"
)

// Presence owns the online/idle/dnd/offline status per identity.
// Every change is persisted first, then broadcast process-wide; a
// failed persist aborts the broadcast.
type Presence struct {
	Store store.Store
	Cast  *Broadcaster
}

type statusPayload struct {
	UserID domain.UserID         `json:"userId"`
	Status domain.PresenceStatus `json:"status"`
}

// SetStatus validates, persists and broadcasts a presence change.
// except is skipped during fan-out (the freshly connected socket does
// not need its own ONLINE echo); pass nil to include everyone.
func (p *Presence) SetStatus(ctx context.Context, identity domain.Identity, status domain.PresenceStatus, except core.Conn) error {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}
	if err := p.Store.SetPresence(ctx, identity.ID, status); err != nil {
		log.Error().Str("module", "app.presence").Str("user", string(identity.ID)).Err(err).Msg("persist presence failed")
		return fmt.Errorf("persist presence: %w", err)
	}
	p.Cast.ToAll(core.MustEvent("user:status", statusPayload{UserID: identity.ID, Status: status}), except)
	log.Info().Str("module", "app.presence").Str("user", string(identity.ID)).Str("status", string(status)).Msg("presence changed")
	return nil
}

// OnConnect marks the identity ONLINE. The new connection itself is
// excluded from the broadcast.
func (p *Presence) OnConnect(ctx context.Context, conn core.Conn) error {
	return p.SetStatus(ctx, conn.Identity(), domain.StatusOnline, conn)
}

// OnDisconnect marks the identity OFFLINE and stamps last-seen. A
// failed last-seen write is logged only; the OFFLINE broadcast matters
// more than the timestamp.
func (p *Presence) OnDisconnect(ctx context.Context, identity domain.Identity) error {
	if err := p.Store.SetLastSeen(ctx, identity.ID, time.Now()); err != nil {
		log.Error().Str("module", "app.presence").Str("user", string(identity.ID)).Err(err).Msg("persist last seen failed")
	}
	return p.SetStatus(ctx, identity, domain.StatusOffline, nil)
}
