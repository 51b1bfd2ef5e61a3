package signal

import (
	"github.com/dkeye/Conference/internal/core"
)

// Offers, answers and candidates are relayed as opaque strings; the media
// plane lives in the clients.

func (ctl *SignalWSController) handleSDP(s *wsSession, env core.Envelope) {
	var p core.SDPPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	if env.Type == core.TypeOffer {
		ctl.reply(s, ctl.Orch.Offer(s.id, p))
		return
	}
	ctl.reply(s, ctl.Orch.Answer(s.id, p))
}

func (ctl *SignalWSController) handleCandidate(s *wsSession, env core.Envelope) {
	var p core.ICECandidatePayload
	if !ctl.bind(s, env, &p) {
		return
	}
	ctl.reply(s, ctl.Orch.ICECandidate(s.id, p))
}
