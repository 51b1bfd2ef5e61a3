package orch

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinRoom binds conn if needed and puts it into a signaling room. A room
// named after an existing session only takes that session's participants.
func (o *Orchestrator) JoinRoom(conn core.ConnID, fallback domain.ParticipantID, p core.JoinPayload) error {
	pid := p.Participant
	if pid == "" {
		if bound, _, ok := o.Registry.Binding(conn); ok {
			pid = bound
		} else {
			pid = fallback
		}
	}
	who := domain.Participant{ID: pid, DisplayName: p.DisplayName}
	if err := who.Validate(); err != nil {
		return err
	}
	if err := o.Registry.Bind(conn, pid, p.DisplayName); err != nil {
		return err
	}
	if s, err := o.Conference.Session(domain.SessionID(p.Room)); err == nil && !s.HasParticipant(pid) {
		return domain.NewError(domain.KindUnauthorizedAction, "%s is not admitted to session %s", pid, s.ID)
	}
	return o.Relay.Join(conn, p.Room)
}

// LeaveRoom drops conn's room membership; the connection stays open.
func (o *Orchestrator) LeaveRoom(conn core.ConnID) {
	if room, ok := o.Relay.Leave(conn); ok {
		log.Info().Str("module", "orch").Str("conn", string(conn)).Str("room", string(room)).Msg("left room")
	}
}

func (o *Orchestrator) Offer(conn core.ConnID, p core.SDPPayload) error {
	return o.Relay.Offer(conn, p)
}

func (o *Orchestrator) Answer(conn core.ConnID, p core.SDPPayload) error {
	return o.Relay.Answer(conn, p)
}

func (o *Orchestrator) ICECandidate(conn core.ConnID, p core.ICECandidatePayload) error {
	return o.Relay.ICECandidate(conn, p)
}

func (o *Orchestrator) Subtitle(conn core.ConnID, p core.SubtitlePayload) error {
	return o.Relay.Subtitle(conn, p)
}

// EvictRoom takes every member out of a room, which then disappears.
func (o *Orchestrator) EvictRoom(id domain.RoomID) {
	rs, ok := o.Rooms.Get(id)
	if !ok {
		return
	}
	for _, m := range rs.MembersSnapshot() {
		o.Relay.Leave(m.Conn)
	}
	log.Info().Str("module", "orch").Str("room", string(id)).Msg("room evicted")
}

func (o *Orchestrator) RoomList() []core.RoomInfo {
	return o.Rooms.List()
}
