package ws

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Conn is the websocket-backed core.Conn. Frames are enqueued on a
// bounded channel drained by the write pump; a full buffer fails the
// send instead of blocking the broadcaster.
type Conn struct {
	id       core.ConnID
	identity domain.Identity
	sock     *websocket.Conn
	send     chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(identity domain.Identity, sock *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:       core.ConnID(uuid.NewString()),
		identity: identity,
		sock:     sock,
		send:     make(chan core.Frame, buffer),
	}
}

func (c *Conn) ID() core.ConnID           { return c.id }
func (c *Conn) Identity() domain.Identity { return c.identity }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
	c.mu.Unlock()
}
