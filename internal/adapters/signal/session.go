package signal

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleConnect(s *wsSession, env core.Envelope) {
	var p core.ConnectPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(s.id)).Str("session", string(p.SessionID)).Msg("connect")
	ctl.reply(s, ctl.Orch.Connect(s.ctx, s.id, s.token, p))
}

// handleDisconnect runs the full cleanup; the read loop ends afterwards.
func (ctl *SignalWSController) handleDisconnect(s *wsSession) {
	log.Info().Str("module", "signal").Str("conn", string(s.id)).Msg("disconnect requested")
	ctl.Orch.Disconnect(s.ctx, s.id)
}

func (ctl *SignalWSController) caller(s *wsSession) (domain.ParticipantID, bool) {
	pid, _, ok := ctl.Orch.Registry.Binding(s.id)
	if !ok {
		ctl.sendError(s, domain.NewError(domain.KindUnauthorizedAction, "connect first"))
	}
	return pid, ok
}

func (ctl *SignalWSController) handleReconfigure(s *wsSession, env core.Envelope) {
	var p core.ReconfigurePayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	_, err := ctl.Orch.UpdateConfig(s.ctx, p.SessionID, pid, p.Update)
	ctl.reply(s, err)
}

func (ctl *SignalWSController) handleMute(s *wsSession, env core.Envelope) {
	var p core.MutePayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	_, err := ctl.Orch.SetMuted(s.ctx, p.SessionID, pid, p.Muted)
	ctl.reply(s, err)
}

func (ctl *SignalWSController) handleLatencyReport(s *wsSession, env core.Envelope) {
	var p core.LatencyReportPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	sess, err := ctl.Orch.Conference.Session(p.SessionID)
	if err != nil {
		ctl.sendError(s, err)
		return
	}
	if !sess.HasParticipant(pid) {
		ctl.sendError(s, domain.NewError(domain.KindParticipantNotFound, "participant %s", pid))
		return
	}
	_, err = ctl.Orch.ReportLatency(s.ctx, p.SessionID, p.LatencyMs)
	ctl.reply(s, err)
}

func (ctl *SignalWSController) handleModeration(s *wsSession, env core.Envelope) {
	var p core.ModerationPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	var err error
	switch env.Type {
	case core.TypeApprove:
		_, err = ctl.Orch.Approve(s.ctx, p.SessionID, pid, p.ParticipantID)
	case core.TypeDeny:
		_, err = ctl.Orch.Deny(s.ctx, p.SessionID, pid, p.ParticipantID)
	case core.TypeBanParticipant:
		_, err = ctl.Orch.BanParticipant(s.ctx, p.SessionID, pid, p.ParticipantID)
	case core.TypeBanDevice:
		_, err = ctl.Orch.BanDevice(s.ctx, p.SessionID, pid, p.DeviceID)
	case core.TypeAuthorizeModerator:
		_, err = ctl.Orch.AuthorizeModerator(s.ctx, p.SessionID, pid, p.ParticipantID)
	}
	ctl.reply(s, err)
}
