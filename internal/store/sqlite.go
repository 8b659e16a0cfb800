package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/concord-chat/concord/internal/domain"
)

// DB is the SQLite-backed Store. The CRUD side of the system owns most
// of these tables; this process only touches the columns the realtime
// core needs.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps writers from starving the read-mostly realtime path.
	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	display_name TEXT DEFAULT '',
	avatar       TEXT DEFAULT '',
	status       TEXT DEFAULT 'OFFLINE',
	last_seen_at DATETIME
);
CREATE TABLE IF NOT EXISTS server_members (
	server_id TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	PRIMARY KEY (server_id, user_id)
);
CREATE TABLE IF NOT EXISTS channels (
	id        TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	name      TEXT DEFAULT ''
);
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	channel_id  TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	content     TEXT NOT NULL,
	attachments TEXT DEFAULT '[]',
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS direct_messages (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS voice_sessions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	channel_id  TEXT NOT NULL,
	joined_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	left_at     DATETIME,
	is_muted    INTEGER DEFAULT 0,
	is_deafened INTEGER DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_voice_open ON voice_sessions (user_id, channel_id) WHERE left_at IS NULL;
`

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) ServerIDsFor(ctx context.Context, userID domain.UserID) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT server_id FROM server_members WHERE user_id = ?`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("query server members: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (d *DB) IsChannelMember(ctx context.Context, userID domain.UserID, channelID string) (bool, error) {
	var ok bool
	err := d.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM channels c
			JOIN server_members m ON m.server_id = c.server_id
			WHERE c.id = ? AND m.user_id = ?
		)`, channelID, string(userID)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query channel membership: %w", err)
	}
	return ok, nil
}

func (d *DB) InsertMessage(ctx context.Context, channelID string, userID domain.UserID, content string, attachments []string) (domain.Message, error) {
	if attachments == nil {
		attachments = []string{}
	}
	att, _ := json.Marshal(attachments)
	msg := domain.Message{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		UserID:      userID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, user_id, content, attachments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChannelID, string(msg.UserID), msg.Content, string(att), msg.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (d *DB) DisplayInfo(ctx context.Context, userID domain.UserID) (domain.DisplayInfo, error) {
	var info domain.DisplayInfo
	err := d.db.QueryRowContext(ctx,
		`SELECT username, display_name, avatar FROM users WHERE id = ?`,
		string(userID)).Scan(&info.Username, &info.DisplayName, &info.Avatar)
	if err != nil {
		return domain.DisplayInfo{}, fmt.Errorf("query display info: %w", err)
	}
	return info, nil
}

func (d *DB) SetPresence(ctx context.Context, userID domain.UserID, status domain.PresenceStatus) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE users SET status = ? WHERE id = ?`, string(status), string(userID))
	if err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

func (d *DB) SetLastSeen(ctx context.Context, userID domain.UserID, t time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE users SET last_seen_at = ? WHERE id = ?`, t.UTC(), string(userID))
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}

func (d *DB) OpenVoiceSession(ctx context.Context, userID domain.UserID, channelID string) (string, error) {
	id := uuid.NewString()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO voice_sessions (id, user_id, channel_id, joined_at)
		VALUES (?, ?, ?, ?)`,
		id, string(userID), channelID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("open voice session: %w", err)
	}
	return id, nil
}

func (d *DB) CloseVoiceSession(ctx context.Context, userID domain.UserID, channelID string, t time.Time) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE voice_sessions SET left_at = ?
		WHERE user_id = ? AND channel_id = ? AND left_at IS NULL`,
		t.UTC(), string(userID), channelID)
	if err != nil {
		return fmt.Errorf("close voice session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoOpenSession
	}
	return nil
}

func (d *DB) InsertDirectMessage(ctx context.Context, senderID, receiverID domain.UserID, content string) (domain.DirectMessage, error) {
	dm := domain.DirectMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO direct_messages (id, sender_id, receiver_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		dm.ID, string(dm.SenderID), string(dm.ReceiverID), dm.Content, dm.CreatedAt)
	if err != nil {
		return domain.DirectMessage{}, fmt.Errorf("insert direct message: %w", err)
	}
	return dm, nil
}

// UpsertUser seeds or refreshes a user row. The CRUD service owns user
// records in production; this exists for bootstrap and tests.
func (d *DB) UpsertUser(ctx context.Context, userID domain.UserID, username, displayName, avatar string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, avatar)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username     = excluded.username,
			display_name = excluded.display_name,
			avatar       = excluded.avatar`,
		string(userID), username, displayName, avatar)
	return err
}

// AddServerMember seeds a server membership row.
func (d *DB) AddServerMember(ctx context.Context, serverID string, userID domain.UserID) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO server_members (server_id, user_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`,
		serverID, string(userID))
	return err
}

// AddChannel seeds a channel row.
func (d *DB) AddChannel(ctx context.Context, channelID, serverID, name string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO channels (id, server_id, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET server_id = excluded.server_id, name = excluded.name`,
		channelID, serverID, name)
	return err
}

// OpenVoiceSessionCount reports how many open rows exist for the pair.
// Diagnostics hook for the at-most-one-open invariant.
func (d *DB) OpenVoiceSessionCount(ctx context.Context, userID domain.UserID, channelID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM voice_sessions
		WHERE user_id = ? AND channel_id = ? AND left_at IS NULL`,
		string(userID), channelID).Scan(&n)
	return n, err
}
