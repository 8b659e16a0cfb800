// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

// Identity is the authenticated user reference bound to a connection
// at handshake time. It is immutable for the connection's lifetime;
// the authoritative record lives in the external store.
type Identity struct {
	ID       UserID `json:"userId"`
	Username string `json:"username"`
}

func NewIdentity(id UserID, username string) (Identity, error) {
	if len(username) == 0 {
		return Identity{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	return Identity{ID: id, Username: username}, nil
}
