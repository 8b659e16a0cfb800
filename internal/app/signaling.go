package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/core"
	"github.com/concord-chat/concord/internal/domain"
)

// SignalKind is one leg of the call-setup handshake.
type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "ice-candidate"
)

// Envelope is one signaling hop. Never persisted; it exists only for
// the duration of the relay call.
type Envelope struct {
	From    domain.Identity
	To      domain.UserID
	Kind    SignalKind
	Payload json.RawMessage
}

// Relay is a stateless pass-through for call-setup messages addressed
// by identity. If the target is not connected the envelope is silently
// dropped; the caller is expected to time out the attempt itself.
type Relay struct {
	Registry *Registry
	Cast     *Broadcaster
}

// wire shape per kind: event name and the key the payload travels under.
var signalWire = map[SignalKind]struct{ event, field string }{
	SignalOffer:     {"webrtc:offer", "offer"},
	SignalAnswer:    {"webrtc:answer", "answer"},
	SignalCandidate: {"webrtc:ice-candidate", "candidate"},
}

func (r *Relay) Relay(env Envelope) {
	wire, ok := signalWire[env.Kind]
	if !ok {
		log.Warn().Str("module", "app.signaling").Str("kind", string(env.Kind)).Msg("unknown signal kind")
		return
	}
	target, ok := r.Registry.Resolve(env.To)
	if !ok {
		log.Debug().Str("module", "app.signaling").Str("to", string(env.To)).Str("kind", string(env.Kind)).Msg("target unreachable, dropping")
		return
	}
	frame, err := core.NewEvent(wire.event, map[string]any{
		"fromUserId": env.From.ID,
		wire.field:   env.Payload,
	})
	if err != nil {
		log.Error().Str("module", "app.signaling").Err(err).Msg("encode signal")
		return
	}
	r.Cast.ToConn(target, frame)
}
