package core

import "encoding/json"

// Event is one wire frame: {"event": <name>, "data": <payload>}.
// Both directions use the same envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals the payload once so fan-out to N subscribers does
// not re-encode N times.
func NewEvent(name string, data any) (Frame, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Event{Event: name, Data: raw})
}

// MustEvent is for payloads built from plain structs that cannot fail
// to marshal; it panics otherwise, which would be a programming error.
func MustEvent(name string, data any) Frame {
	f, err := NewEvent(name, data)
	if err != nil {
		panic(err)
	}
	return f
}
