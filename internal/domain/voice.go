package domain

import "time"

// VoiceSession is one identity's occupancy interval in one voice
// channel. At most one open session (LeftAt == nil) may exist per
// (user, channel) pair; the lifecycle component enforces this, not
// the database.
type VoiceSession struct {
	ID         string     `json:"id"`
	UserID     UserID     `json:"userId"`
	ChannelID  string     `json:"channelId"`
	JoinedAt   time.Time  `json:"joinedAt"`
	LeftAt     *time.Time `json:"leftAt,omitempty"`
	IsMuted    bool       `json:"isMuted"`
	IsDeafened bool       `json:"isDeafened"`
}
