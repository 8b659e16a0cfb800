package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
	"github.com/concord-chat/concord/internal/store"
)

var errInjected = errors.New("injected failure")

// fakeConn records every frame delivered to it.
type fakeConn struct {
	id    core.ConnID
	ident domain.Identity

	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func newFakeConn(id string, user string) *fakeConn {
	return &fakeConn{
		id:    core.ConnID(id),
		ident: domain.Identity{ID: domain.UserID(user), Username: "user-" + user},
	}
}

func (c *fakeConn) ID() core.ConnID           { return c.id }
func (c *fakeConn) Identity() domain.Identity { return c.ident }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return fmt.Errorf("send failed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// events decodes everything the connection received, in order.
func (c *fakeConn) events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Event, 0, len(c.frames))
	for _, f := range c.frames {
		var ev core.Event
		if err := json.Unmarshal(f, &ev); err != nil {
			panic(err)
		}
		out = append(out, ev)
	}
	return out
}

func (c *fakeConn) eventNames() []string {
	evs := c.events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Event
	}
	return out
}

func (c *fakeConn) countEvent(name string) int {
	n := 0
	for _, ev := range c.events() {
		if ev.Event == name {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory store.Store with error injection.
type fakeStore struct {
	mu sync.Mutex

	serverIDs      map[domain.UserID][]string
	channelServers map[string]string // channelID -> serverID
	presence       map[domain.UserID]domain.PresenceStatus
	lastSeen       map[domain.UserID]time.Time
	display        map[domain.UserID]domain.DisplayInfo
	openSessions   map[string]int // uid|channel -> open row count
	messages       []domain.Message
	dms            []domain.DirectMessage

	presenceErr error
	insertErr   error
	openErr     error
	closeErr    error
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		serverIDs:      make(map[domain.UserID][]string),
		channelServers: make(map[string]string),
		presence:       make(map[domain.UserID]domain.PresenceStatus),
		lastSeen:       make(map[domain.UserID]time.Time),
		display:        make(map[domain.UserID]domain.DisplayInfo),
		openSessions:   make(map[string]int),
	}
}

func voiceKey(uid domain.UserID, channelID string) string {
	return string(uid) + "|" + channelID
}

func (s *fakeStore) ServerIDsFor(_ context.Context, uid domain.UserID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverIDs[uid], nil
}

func (s *fakeStore) IsChannelMember(_ context.Context, uid domain.UserID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	serverID, ok := s.channelServers[channelID]
	if !ok {
		return false, nil
	}
	for _, id := range s.serverIDs[uid] {
		if id == serverID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) InsertMessage(_ context.Context, channelID string, uid domain.UserID, content string, attachments []string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return domain.Message{}, s.insertErr
	}
	msg := domain.Message{
		ID:          fmt.Sprintf("m%d", len(s.messages)+1),
		ChannelID:   channelID,
		UserID:      uid,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *fakeStore) DisplayInfo(_ context.Context, uid domain.UserID) (domain.DisplayInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok := s.display[uid]; ok {
		return info, nil
	}
	return domain.DisplayInfo{Username: "user-" + string(uid)}, nil
}

func (s *fakeStore) SetPresence(_ context.Context, uid domain.UserID, status domain.PresenceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presenceErr != nil {
		return s.presenceErr
	}
	s.presence[uid] = status
	return nil
}

func (s *fakeStore) SetLastSeen(_ context.Context, uid domain.UserID, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[uid] = t
	return nil
}

func (s *fakeStore) OpenVoiceSession(_ context.Context, uid domain.UserID, channelID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return "", s.openErr
	}
	s.openSessions[voiceKey(uid, channelID)]++
	return fmt.Sprintf("vs-%s", voiceKey(uid, channelID)), nil
}

func (s *fakeStore) CloseVoiceSession(_ context.Context, uid domain.UserID, channelID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeErr != nil {
		return s.closeErr
	}
	key := voiceKey(uid, channelID)
	if s.openSessions[key] == 0 {
		return store.ErrNoOpenSession
	}
	s.openSessions[key]--
	return nil
}

func (s *fakeStore) InsertDirectMessage(_ context.Context, senderID, receiverID domain.UserID, content string) (domain.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dm := domain.DirectMessage{
		ID:         fmt.Sprintf("d%d", len(s.dms)+1),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	s.dms = append(s.dms, dm)
	return dm, nil
}

func (s *fakeStore) openCount(uid domain.UserID, channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openSessions[voiceKey(uid, channelID)]
}
