package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concord-chat/concord/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestServerIDsFor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()

	req.NoError(db.AddServerMember(ctx, "s1", "u1"))
	req.NoError(db.AddServerMember(ctx, "s2", "u1"))
	req.NoError(db.AddServerMember(ctx, "s3", "u2"))

	ids, err := db.ServerIDsFor(ctx, "u1")
	req.NoError(err)
	req.ElementsMatch([]string{"s1", "s2"}, ids)

	ids, err = db.ServerIDsFor(ctx, "nobody")
	req.NoError(err)
	req.Empty(ids)
}

func TestIsChannelMember(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()

	req.NoError(db.AddServerMember(ctx, "s1", "u1"))
	req.NoError(db.AddChannel(ctx, "42", "s1", "general"))

	ok, err := db.IsChannelMember(ctx, "u1", "42")
	req.NoError(err)
	req.True(ok)

	ok, err = db.IsChannelMember(ctx, "u2", "42")
	req.NoError(err)
	req.False(ok)

	ok, err = db.IsChannelMember(ctx, "u1", "missing")
	req.NoError(err)
	req.False(ok)
}

func TestInsertMessageAndDisplayInfo(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()

	req.NoError(db.UpsertUser(ctx, "u1", "ursula", "Ursula", "a.png"))

	msg, err := db.InsertMessage(ctx, "42", "u1", "hi", []string{"f.png"})
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal("hi", msg.Content)
	req.Equal([]string{"f.png"}, msg.Attachments)

	info, err := db.DisplayInfo(ctx, "u1")
	req.NoError(err)
	req.Equal(domain.DisplayInfo{Username: "ursula", DisplayName: "Ursula", Avatar: "a.png"}, info)

	_, err = db.DisplayInfo(ctx, "ghost")
	req.Error(err)
}

func TestPresenceAndLastSeen(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()

	req.NoError(db.UpsertUser(ctx, "u1", "ursula", "", ""))
	req.NoError(db.SetPresence(ctx, "u1", domain.StatusDND))
	req.NoError(db.SetLastSeen(ctx, "u1", time.Now()))

	// Updating an unknown user affects no rows but is not an error;
	// user records are owned by the CRUD service.
	req.NoError(db.SetPresence(ctx, "ghost", domain.StatusOnline))
}

func TestVoiceSessionLifecycle(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.OpenVoiceSession(ctx, "u1", "7")
	req.NoError(err)
	req.NotEmpty(id)

	n, err := db.OpenVoiceSessionCount(ctx, "u1", "7")
	req.NoError(err)
	req.Equal(1, n)

	req.NoError(db.CloseVoiceSession(ctx, "u1", "7", time.Now()))
	n, err = db.OpenVoiceSessionCount(ctx, "u1", "7")
	req.NoError(err)
	req.Zero(n)

	// Closing again reports the inconsistency.
	err = db.CloseVoiceSession(ctx, "u1", "7", time.Now())
	req.ErrorIs(err, ErrNoOpenSession)

	// Close only touches the addressed pair.
	_, err = db.OpenVoiceSession(ctx, "u1", "7")
	req.NoError(err)
	_, err = db.OpenVoiceSession(ctx, "u1", "8")
	req.NoError(err)
	req.NoError(db.CloseVoiceSession(ctx, "u1", "7", time.Now()))
	n, err = db.OpenVoiceSessionCount(ctx, "u1", "8")
	req.NoError(err)
	req.Equal(1, n)
}

func TestInsertDirectMessage(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	dm, err := db.InsertDirectMessage(context.Background(), "u1", "u2", "psst")
	req.NoError(err)
	req.NotEmpty(dm.ID)
	req.Equal(domain.UserID("u1"), dm.SenderID)
	req.Equal(domain.UserID("u2"), dm.ReceiverID)
}
