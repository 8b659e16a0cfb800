package domain

import "errors"

var ErrInvalidStatus = errors.New("invalid presence status")

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "ONLINE"
	StatusIdle    PresenceStatus = "IDLE"
	StatusDND     PresenceStatus = "DND"
	StatusOffline PresenceStatus = "OFFLINE"
)

// ParseStatus rejects anything outside the four known values.
func ParseStatus(s string) (PresenceStatus, error) {
	switch PresenceStatus(s) {
	case StatusOnline, StatusIdle, StatusDND, StatusOffline:
		return PresenceStatus(s), nil
	}
	return "", ErrInvalidStatus
}
