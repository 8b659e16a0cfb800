package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

func newTestBroadcaster() (*Broadcaster, *Registry, *Rooms) {
	reg := NewRegistry()
	rooms := NewRooms()
	return &Broadcaster{Registry: reg, Rooms: rooms}, reg, rooms
}

func TestToRoomDeliversToEveryMemberExceptExcluded(t *testing.T) {
	req := require.New(t)
	cast, _, rooms := newTestBroadcaster()
	room := domain.ChannelRoom("42")

	c1 := newFakeConn("c1", "u1")
	c2 := newFakeConn("c2", "u2")
	c3 := newFakeConn("c3", "u3")
	outsider := newFakeConn("c4", "u4")

	req.NoError(rooms.Join(room, c1))
	req.NoError(rooms.Join(room, c2))
	req.NoError(rooms.Join(room, c3))
	req.NoError(rooms.Join(domain.ChannelRoom("43"), outsider))

	frame := core.MustEvent("typing:start", map[string]string{"channelId": "42"})
	cast.ToRoom(room, frame, c2)

	req.Equal(1, c1.countEvent("typing:start"), "member delivered exactly once")
	req.Equal(0, c2.countEvent("typing:start"), "excluded origin gets nothing")
	req.Equal(1, c3.countEvent("typing:start"))
	req.Equal(0, outsider.countEvent("typing:start"), "non-member gets nothing")
}

func TestToRoomSurvivesFailingSubscriber(t *testing.T) {
	req := require.New(t)
	cast, _, rooms := newTestBroadcaster()
	room := domain.ChannelRoom("42")

	slow := newFakeConn("c1", "u1")
	slow.fail = true
	ok := newFakeConn("c2", "u2")
	req.NoError(rooms.Join(room, slow))
	req.NoError(rooms.Join(room, ok))

	cast.ToRoom(room, core.MustEvent("message:new", nil), nil)
	req.Equal(1, ok.countEvent("message:new"), "a dropped subscriber must not affect the rest")
}

func TestToConnNilAndClosedAreNoOps(t *testing.T) {
	cast, _, _ := newTestBroadcaster()
	cast.ToConn(nil, core.MustEvent("x", nil))

	closed := newFakeConn("c1", "u1")
	closed.Close()
	cast.ToConn(closed, core.MustEvent("x", nil)) // must not panic
}

func TestToAllSpansRoomsAndHonorsExclude(t *testing.T) {
	req := require.New(t)
	cast, reg, _ := newTestBroadcaster()

	c1 := newFakeConn("c1", "u1")
	c2 := newFakeConn("c2", "u2")
	reg.Register(c1)
	reg.Register(c2)

	cast.ToAll(core.MustEvent("user:status", nil), c1)
	req.Equal(0, c1.countEvent("user:status"))
	req.Equal(1, c2.countEvent("user:status"))
}
