package signal

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(s *wsSession, env core.Envelope) {
	var p core.JoinPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(s.id)).Str("room", string(p.Room)).Msg("join")
	ctl.reply(s, ctl.Orch.JoinRoom(s.id, s.token, p))
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(s *wsSession) {
	log.Info().Str("module", "signal").Str("conn", string(s.id)).Msg("leave")
	ctl.Orch.LeaveRoom(s.id)
}

func (ctl *SignalWSController) handleSubtitle(s *wsSession, env core.Envelope) {
	var p core.SubtitlePayload
	if !ctl.bind(s, env, &p) {
		return
	}
	ctl.reply(s, ctl.Orch.Subtitle(s.id, p))
}
