package orch

import (
	"context"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) CreateSession(ctx context.Context, owner domain.ParticipantID, cfg domain.SessionConfig) (*domain.Session, error) {
	s, err := o.Conference.CreateSession(owner, cfg)
	if err != nil {
		return nil, err
	}
	o.publish(ctx, app.EventSessionCreated, s.ID, owner, s.Config)
	return s, nil
}

// EndSession closes the session and its signaling room. Participants get a
// final session_updated with nobody left in it.
func (o *Orchestrator) EndSession(ctx context.Context, id domain.SessionID, caller domain.ParticipantID) (*domain.Session, error) {
	s, err := o.Conference.EndSession(id, caller)
	if err != nil {
		return nil, err
	}
	pids := s.ParticipantIDs()
	final := s.Clone()
	final.Participants = nil
	final.WaitingRoom = nil
	o.notify(pids, "", core.TypeSessionUpdated, core.SessionUpdatedPayload{Session: o.info(final)})
	o.EvictRoom(domain.RoomID(id))
	o.publish(ctx, app.EventSessionEnded, id, caller, nil)
	return s, nil
}

// Connect binds the connection to a participant and runs admission.
// fallback is used when the payload names no participant.
func (o *Orchestrator) Connect(ctx context.Context, conn core.ConnID, fallback domain.ParticipantID, p core.ConnectPayload) error {
	pid := p.ParticipantID
	if pid == "" {
		pid = fallback
	}
	part := domain.Participant{ID: pid, DisplayName: p.DisplayName, Device: p.Device, Features: p.Features}
	if err := part.Validate(); err != nil {
		return err
	}
	_, _, wasBound := o.Registry.Binding(conn)
	if err := o.Registry.Bind(conn, pid, part.DisplayName); err != nil {
		return err
	}
	adm, err := o.Conference.Join(p.SessionID, part, domain.JoinRequest{Mode: p.Mode, Audio: p.Audio})
	if err != nil {
		if !wasBound {
			o.Registry.Release(conn)
		}
		return err
	}
	switch adm.Status {
	case domain.JoinWaiting:
		o.sendConn(conn, core.TypeWaiting, core.WaitingPayload{SessionID: adm.Session.ID, Participant: pid, Position: adm.Position})
		if !adm.Already {
			o.sessionUpdated(adm.Session)
			o.publish(ctx, app.EventParticipantWaiting, adm.Session.ID, pid, nil)
		}
	case domain.JoinAdmitted:
		o.admitted(ctx, adm)
	}
	return nil
}

// admitted greets the participant and announces it to the others.
func (o *Orchestrator) admitted(ctx context.Context, adm app.Admission) {
	pid := adm.Participant.ID
	o.sendParticipant(pid, core.TypeConnected, core.ConnectedPayload{
		Participant: pid,
		Session:     o.info(adm.Session),
		Muted:       adm.Participant.Muted,
		ICEServers:  o.ICEServers,
	})
	if adm.Already {
		return
	}
	o.notifySession(adm.Session, pid, core.TypeParticipantJoined, core.ParticipantJoinedPayload{SessionID: adm.Session.ID, Participant: adm.Participant})
	o.publish(ctx, app.EventParticipantJoined, adm.Session.ID, pid, adm.Participant.Device)
}

func (o *Orchestrator) Approve(ctx context.Context, id domain.SessionID, moderator, pid domain.ParticipantID) (*domain.Session, error) {
	adm, err := o.Conference.Approve(id, moderator, pid)
	if err != nil {
		if adm.Session != nil {
			o.sendParticipant(pid, core.TypeError, core.NewErrorPayload(err))
			o.sessionUpdated(adm.Session)
		}
		return adm.Session, err
	}
	o.admitted(ctx, adm)
	return adm.Session, nil
}

func (o *Orchestrator) Deny(ctx context.Context, id domain.SessionID, moderator, pid domain.ParticipantID) (*domain.Session, error) {
	s, err := o.Conference.Deny(id, moderator, pid)
	if err != nil {
		return nil, err
	}
	o.sendParticipant(pid, core.TypeError, core.ErrorPayload{Kind: domain.KindUnauthorizedAction, Message: "join request denied"})
	o.sessionUpdated(s)
	log.Info().Str("module", "orch").Str("session", string(id)).Str("participant", string(pid)).Msg("join denied")
	return s, nil
}

func (o *Orchestrator) BanParticipant(ctx context.Context, id domain.SessionID, moderator, pid domain.ParticipantID) (*domain.Session, error) {
	res, err := o.Conference.BanParticipant(id, moderator, pid)
	if err != nil {
		return nil, err
	}
	o.banned(ctx, res)
	o.publish(ctx, app.EventParticipantBanned, id, pid, map[string]string{"moderator": string(moderator)})
	return res.Session, nil
}

func (o *Orchestrator) BanDevice(ctx context.Context, id domain.SessionID, moderator domain.ParticipantID, device domain.DeviceID) (*domain.Session, error) {
	res, err := o.Conference.BanDevice(id, moderator, device)
	if err != nil {
		return nil, err
	}
	o.banned(ctx, res)
	o.publish(ctx, app.EventDeviceBanned, id, "", map[string]string{"moderator": string(moderator), "device_id": string(device)})
	return res.Session, nil
}

// banned tells the remaining participants and the removed ones alike, and
// takes the removed connections out of the session's signaling room.
func (o *Orchestrator) banned(ctx context.Context, res app.BanResult) {
	audience := append(res.Session.ParticipantIDs(), res.Removed...)
	for _, pid := range res.Removed {
		o.notify(audience, "", core.TypeParticipantLeft, core.ParticipantLeftPayload{SessionID: res.Session.ID, Participant: pid})
		o.publish(ctx, app.EventParticipantLeft, res.Session.ID, pid, nil)
	}
	for _, pid := range res.Removed {
		o.leaveSessionRoom(res.Session.ID, pid)
	}
}

// leaveSessionRoom drops pid's connection from the room named after the
// session, if it is there.
func (o *Orchestrator) leaveSessionRoom(id domain.SessionID, pid domain.ParticipantID) {
	m, ok := o.Registry.MemberOf(pid)
	if !ok {
		return
	}
	if room, ok := o.Registry.RoomOf(m.Conn()); ok && room == domain.RoomID(id) {
		o.Relay.Leave(m.Conn())
		log.Info().Str("module", "orch").Str("session", string(id)).Str("participant", string(pid)).Msg("removed from session room")
	}
}

func (o *Orchestrator) AuthorizeModerator(ctx context.Context, id domain.SessionID, caller, target domain.ParticipantID) (*domain.Session, error) {
	s, err := o.Conference.AuthorizeModerator(id, caller, target)
	if err != nil {
		return nil, err
	}
	o.sessionUpdated(s)
	o.publish(ctx, app.EventModeratorAdded, id, target, map[string]string{"by": string(caller)})
	return s, nil
}

func (o *Orchestrator) UpdateConfig(ctx context.Context, id domain.SessionID, caller domain.ParticipantID, p domain.ConfigPatch) (*domain.Session, error) {
	s, err := o.Conference.UpdateConfig(id, caller, p)
	if err != nil {
		return nil, err
	}
	o.sessionUpdated(s)
	o.publish(ctx, app.EventConfigUpdated, id, caller, p)
	return s, nil
}

func (o *Orchestrator) SetMuted(ctx context.Context, id domain.SessionID, pid domain.ParticipantID, muted bool) (*domain.Session, error) {
	s, err := o.Conference.SetMuted(id, pid, muted)
	if err != nil {
		return nil, err
	}
	o.sessionUpdated(s)
	return s, nil
}

// Chat delivers a text message to the whole session or, for a whisper, to
// sender and recipient.
func (o *Orchestrator) Chat(ctx context.Context, id domain.SessionID, sender domain.ParticipantID, content string, recipient *domain.ParticipantID) (domain.ChatMessage, error) {
	msg, to, err := o.Conference.Chat(id, sender, content, recipient)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	o.notify(to, "", core.TypeTextMessageReceived, core.TextMessageReceivedPayload{SessionID: id, Message: msg})
	o.publish(ctx, app.EventChatMessage, id, sender, msg)
	return msg, nil
}

func (o *Orchestrator) RequestUpgrade(ctx context.Context, req domain.UpgradeRequest) (app.UpgradeTarget, error) {
	target, err := o.Conference.RequestUpgrade(req)
	if err != nil {
		return app.UpgradeTarget{}, err
	}
	o.publish(ctx, app.EventDeviceUpgrade, target.Session, target.Participant, req)
	log.Info().Str("module", "orch").Str("device", string(req.Device)).Str("type", string(req.Type)).Msg("device upgrade requested")
	return target, nil
}

// CustomCommand echoes command and payload back; the payload is opaque.
func (o *Orchestrator) CustomCommand(conn core.ConnID, p core.CustomCommandPayload) {
	o.sendConn(conn, core.TypeCustomResponse, core.CustomResponsePayload(p))
}
