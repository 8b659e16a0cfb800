package domain

import "strings"

type RoomName string

const (
	serverPrefix  = "server:"
	channelPrefix = "channel:"
	voicePrefix   = "voice:"
)

// ServerRoom scopes fan-out to every connected member of a server.
func ServerRoom(serverID string) RoomName { return RoomName(serverPrefix + serverID) }

// ChannelRoom scopes fan-out to connections viewing a text channel.
func ChannelRoom(channelID string) RoomName { return RoomName(channelPrefix + channelID) }

// VoiceRoom scopes fan-out to connections occupying a voice channel.
// A connection belongs to at most one voice room at a time.
func VoiceRoom(channelID string) RoomName { return RoomName(voicePrefix + channelID) }

func (n RoomName) IsVoice() bool { return strings.HasPrefix(string(n), voicePrefix) }

// ChannelID returns the id part of a channel or voice room name.
func (n RoomName) ChannelID() string {
	s := string(n)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}
