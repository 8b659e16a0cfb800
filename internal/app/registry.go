package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

// Registry maps an authenticated identity to its single live
// connection. It is the source of truth for "is user X reachable now".
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]core.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]core.Conn)}
}

// Register stores conn as the live connection for its identity. A
// second connection for the same identity replaces the first; the
// previous handle is returned so the caller can decide to close it.
func (r *Registry) Register(conn core.Conn) (prev core.Conn, replaced bool) {
	uid := conn.Identity().ID
	r.mu.Lock()
	prev, replaced = r.conns[uid]
	r.conns[uid] = conn
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn.ID())).Bool("replaced", replaced).Msg("registered connection")
	return prev, replaced
}

// Resolve returns the live connection for uid. Absence is a normal
// result for offline users, never an error.
func (r *Registry) Resolve(uid domain.UserID) (core.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[uid]
	return c, ok
}

// Unregister removes the entry only if it still holds conn, so a late
// teardown from a superseded connection cannot clobber its successor.
// It reports whether the entry was removed.
func (r *Registry) Unregister(conn core.Conn) bool {
	uid := conn.Identity().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[uid]
	if !ok || cur.ID() != conn.ID() {
		return false
	}
	delete(r.conns, uid)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn.ID())).Msg("unregistered connection")
	return true
}

// Snapshot returns every live connection, safe to iterate while the
// registry keeps mutating.
func (r *Registry) Snapshot() []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
