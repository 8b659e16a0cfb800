package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concord-chat/concord/internal/domain"
)

func newTestPresence() (*Presence, *fakeStore, *Registry) {
	st := newFakeStore()
	reg := NewRegistry()
	rooms := NewRooms()
	cast := &Broadcaster{Registry: reg, Rooms: rooms}
	return &Presence{Store: st, Cast: cast}, st, reg
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	req := require.New(t)
	p, st, reg := newTestPresence()
	watcher := newFakeConn("w", "u2")
	reg.Register(watcher)

	err := p.SetStatus(context.Background(), domain.Identity{ID: "u1"}, "AWAY", nil)
	req.ErrorIs(err, domain.ErrInvalidStatus)
	req.Empty(st.presence, "no state change on invalid status")
	req.Zero(watcher.countEvent("user:status"), "no broadcast on invalid status")
}

func TestSetStatusPersistsThenBroadcasts(t *testing.T) {
	req := require.New(t)
	p, st, reg := newTestPresence()
	watcher := newFakeConn("w", "u2")
	reg.Register(watcher)

	req.NoError(p.SetStatus(context.Background(), domain.Identity{ID: "u1"}, domain.StatusDND, nil))
	req.Equal(domain.StatusDND, st.presence["u1"])
	req.Equal(1, watcher.countEvent("user:status"))
}

func TestSetStatusAbortsBroadcastOnPersistenceFailure(t *testing.T) {
	req := require.New(t)
	p, st, reg := newTestPresence()
	st.presenceErr = errors.New("db down")
	watcher := newFakeConn("w", "u2")
	reg.Register(watcher)

	err := p.SetStatus(context.Background(), domain.Identity{ID: "u1"}, domain.StatusIdle, nil)
	req.Error(err)
	req.Zero(watcher.countEvent("user:status"), "no broadcast when persistence failed")
}

func TestOnDisconnectStampsLastSeen(t *testing.T) {
	req := require.New(t)
	p, st, _ := newTestPresence()

	req.NoError(p.OnDisconnect(context.Background(), domain.Identity{ID: "u1"}))
	req.Equal(domain.StatusOffline, st.presence["u1"])
	req.Contains(st.lastSeen, domain.UserID("u1"))
}
