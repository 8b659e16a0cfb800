package core

import "github.com/concord-chat/concord/internal/domain"

// Frame is an encoded wire event ready to write to a transport.
type Frame []byte

// ConnID distinguishes transport sessions. Two connections for the
// same identity get distinct ids, which is what lets a late teardown
// from a superseded connection be told apart from the live one.
type ConnID string

// Conn is a live transport endpoint as the coordination layer sees it.
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: it enqueues or fails.
type Conn interface {
	ID() ConnID
	Identity() domain.Identity
	TrySend(Frame) error
	Close()
}

// MemberDTO is the read-only membership view sent to clients
// (voice:users-list, voice:user-joined).
type MemberDTO struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

func MemberOf(c Conn) MemberDTO {
	id := c.Identity()
	return MemberDTO{UserID: id.ID, Username: id.Username}
}
