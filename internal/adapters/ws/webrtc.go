package ws

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/concord-chat/concord/internal/app"
	"github.com/concord-chat/concord/internal/domain"
)

// Call setup is relayed verbatim between exactly two identities; the
// server validates shape, never SDP contents.

type offerPayload struct {
	TargetUserID string                    `json:"targetUserId" validate:"required"`
	Offer        webrtc.SessionDescription `json:"offer"`
}

type answerPayload struct {
	TargetUserID string                    `json:"targetUserId" validate:"required"`
	Answer       webrtc.SessionDescription `json:"answer"`
}

type candidatePayload struct {
	TargetUserID string                  `json:"targetUserId" validate:"required"`
	Candidate    webrtc.ICECandidateInit `json:"candidate"`
}

func (ctl *Controller) handleOffer(_ context.Context, conn *Conn, data json.RawMessage) {
	var p offerPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	ctl.relaySignal(conn, p.TargetUserID, app.SignalOffer, p.Offer)
}

func (ctl *Controller) handleAnswer(_ context.Context, conn *Conn, data json.RawMessage) {
	var p answerPayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	ctl.relaySignal(conn, p.TargetUserID, app.SignalAnswer, p.Answer)
}

func (ctl *Controller) handleCandidate(_ context.Context, conn *Conn, data json.RawMessage) {
	var p candidatePayload
	if !ctl.bind(conn, data, &p) {
		return
	}
	ctl.relaySignal(conn, p.TargetUserID, app.SignalCandidate, p.Candidate)
}

func (ctl *Controller) relaySignal(conn *Conn, target string, kind app.SignalKind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ctl.Coord.Relay.Relay(app.Envelope{
		From:    conn.Identity(),
		To:      domain.UserID(target),
		Kind:    kind,
		Payload: raw,
	})
}
