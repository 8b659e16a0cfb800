// Package store is the persistence boundary of the coordination core.
// The core never sees SQL; it talks to this interface and treats every
// failure as a PersistenceFailure: logged, operation aborted, never
// retried here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/concord-chat/concord/internal/domain"
)

// ErrNoOpenSession is returned by CloseVoiceSession when no open row
// exists for the pair. Callers log it as a prior inconsistency and
// carry on with the in-memory leave.
var ErrNoOpenSession = errors.New("no open voice session")

type Store interface {
	// ServerIDsFor lists the servers an identity belongs to; used once
	// at connection establishment to pre-populate server rooms.
	ServerIDsFor(ctx context.Context, userID domain.UserID) ([]string, error)

	// IsChannelMember reports whether the identity belongs to the
	// server owning the channel.
	IsChannelMember(ctx context.Context, userID domain.UserID, channelID string) (bool, error)

	InsertMessage(ctx context.Context, channelID string, userID domain.UserID, content string, attachments []string) (domain.Message, error)
	DisplayInfo(ctx context.Context, userID domain.UserID) (domain.DisplayInfo, error)

	SetPresence(ctx context.Context, userID domain.UserID, status domain.PresenceStatus) error
	SetLastSeen(ctx context.Context, userID domain.UserID, t time.Time) error

	OpenVoiceSession(ctx context.Context, userID domain.UserID, channelID string) (string, error)
	CloseVoiceSession(ctx context.Context, userID domain.UserID, channelID string, t time.Time) error

	InsertDirectMessage(ctx context.Context, senderID, receiverID domain.UserID, content string) (domain.DirectMessage, error)
}
