package domain

import "time"

// Message is a persisted channel message. Author display fields are
// denormalized into the broadcast payload so clients render without a
// second lookup.
type Message struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channelId"`
	UserID      UserID    `json:"userId"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DisplayInfo is the author-facing slice of a user record.
type DisplayInfo struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// DirectMessage is a persisted 1:1 message, delivered live only when
// the receiver is connected.
type DirectMessage struct {
	ID         string    `json:"id"`
	SenderID   UserID    `json:"senderId"`
	ReceiverID UserID    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
