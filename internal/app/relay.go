package app

import (
	"time"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay routes presence and WebRTC negotiation between live connections.
// It never inspects SDP or candidates and never queues for offline peers.
type Relay struct {
	Registry *Registry
	Rooms    *RoomManager
	Policy   Policy
}

func NewRelay(reg *Registry, rooms *RoomManager, policy Policy) *Relay {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Relay{Registry: reg, Rooms: rooms, Policy: policy}
}

func (r *Relay) sender(conn core.ConnID) (core.Member, error) {
	pid, name, ok := r.Registry.Binding(conn)
	if !ok {
		return nil, domain.NewError(domain.KindUnauthorizedAction, "connection has no participant")
	}
	sig, ok := r.Registry.Signal(conn)
	if !ok {
		return nil, domain.NewError(domain.KindNetworkError, "connection is closing")
	}
	return core.NewMember(conn, pid, name, sig), nil
}

// Join moves conn into room. The newcomer is announced to every current
// member and receives one join per member already present. Joining the
// current room again changes nothing.
func (r *Relay) Join(conn core.ConnID, room domain.RoomID) error {
	if room == "" {
		return domain.NewError(domain.KindInvalidConfiguration, "room required")
	}
	m, err := r.sender(conn)
	if err != nil {
		return err
	}
	if cur, ok := r.Registry.RoomOf(conn); ok {
		if cur == room {
			return nil
		}
		r.Leave(conn)
	}

	announce, err := core.Encode(core.TypeJoin, core.JoinPayload{Room: room, Participant: m.Participant(), DisplayName: m.DisplayName()})
	if err != nil {
		return domain.NewError(domain.KindInternalError, "encode join: %v", err)
	}
	var dropped []core.Member
	added := r.Rooms.Join(room, m, func(rs core.RoomService, existing []core.MemberDTO) {
		res := rs.Broadcast(conn, announce)
		dropped = append(dropped, res.Dropped...)
		for _, e := range existing {
			f, err := core.Encode(core.TypeJoin, core.JoinPayload{Room: room, Participant: e.Participant, DisplayName: e.DisplayName})
			if err != nil {
				continue
			}
			if err := m.Signal().TrySend(f); err != nil {
				dropped = append(dropped, m)
				break
			}
		}
	})
	if added {
		r.Registry.UpdateRoom(conn, room)
		log.Info().Str("module", "app.relay").Str("conn", string(conn)).Str("participant", string(m.Participant())).Str("room", string(room)).Msg("joined room")
	}
	r.applyPolicy(room, dropped)
	return nil
}

// Leave takes conn out of its room and tells the remaining members. It is
// safe to call any number of times.
func (r *Relay) Leave(conn core.ConnID) (domain.RoomID, bool) {
	room, ok := r.Registry.RoomOf(conn)
	if !ok {
		return "", false
	}
	r.leaveRoom(conn, room)
	r.Registry.RemoveRoom(conn)
	return room, true
}

// Drop takes a closing connection out of the room it was in.
func (r *Relay) Drop(snap ConnSnapshot) {
	if snap.Room != "" {
		r.leaveRoom(snap.Conn, snap.Room)
	}
}

func (r *Relay) leaveRoom(conn core.ConnID, room domain.RoomID) {
	var dropped []core.Member
	r.Rooms.Leave(room, conn, func(rs core.RoomService, left core.Member) {
		f, err := core.Encode(core.TypeLeave, core.LeavePayload{Room: room, Participant: left.Participant()})
		if err != nil {
			return
		}
		dropped = rs.Broadcast(conn, f).Dropped
		log.Info().Str("module", "app.relay").Str("conn", string(conn)).Str("participant", string(left.Participant())).Str("room", string(room)).Msg("left room")
	})
	r.applyPolicy(room, dropped)
}

// Offer, Answer and ICECandidate go to the receiver's connection only.
func (r *Relay) Offer(conn core.ConnID, p core.SDPPayload) error {
	return r.forward(conn, core.TypeOffer, p.Receiver, func(room domain.RoomID, sender domain.ParticipantID) any {
		p.Room, p.Sender = room, sender
		return p
	})
}

func (r *Relay) Answer(conn core.ConnID, p core.SDPPayload) error {
	return r.forward(conn, core.TypeAnswer, p.Receiver, func(room domain.RoomID, sender domain.ParticipantID) any {
		p.Room, p.Sender = room, sender
		return p
	})
}

func (r *Relay) ICECandidate(conn core.ConnID, p core.ICECandidatePayload) error {
	return r.forward(conn, core.TypeICECandidate, p.Receiver, func(room domain.RoomID, sender domain.ParticipantID) any {
		p.Room, p.Sender = room, sender
		return p
	})
}

// forward delivers a point-to-point message inside the sender's room. An
// offline receiver is not an error: the message is dropped and logged.
func (r *Relay) forward(conn core.ConnID, t core.MessageType, receiver domain.ParticipantID, stamp func(domain.RoomID, domain.ParticipantID) any) error {
	m, err := r.sender(conn)
	if err != nil {
		return err
	}
	room, ok := r.Registry.RoomOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", string(conn)).Str("type", string(t)).Msg("sender not in a room, dropped")
		return nil
	}
	rs, ok := r.Rooms.Get(room)
	if !ok {
		return nil
	}
	to, ok := rs.Lookup(receiver)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("room", string(room)).Str("receiver", string(receiver)).Str("type", string(t)).Msg("receiver offline, dropped")
		return nil
	}
	f, err := core.Encode(t, stamp(room, m.Participant()))
	if err != nil {
		return domain.NewError(domain.KindInternalError, "encode %s: %v", t, err)
	}
	if err := to.Signal().TrySend(f); err != nil {
		r.applyPolicy(room, []core.Member{to})
	}
	return nil
}

// Subtitle reaches every member of the sender's room except the sender.
func (r *Relay) Subtitle(conn core.ConnID, p core.SubtitlePayload) error {
	m, err := r.sender(conn)
	if err != nil {
		return err
	}
	room, ok := r.Registry.RoomOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", string(conn)).Msg("subtitle outside a room, dropped")
		return nil
	}
	p.Room, p.Sender = room, m.Participant()
	if p.Timestamp == 0 {
		p.Timestamp = time.Now().UnixMilli()
	}
	f, err := core.Encode(core.TypeSubtitle, p)
	if err != nil {
		return domain.NewError(domain.KindInternalError, "encode subtitle: %v", err)
	}
	r.BroadcastRoom(room, conn, f)
	return nil
}

func (r *Relay) BroadcastRoom(room domain.RoomID, from core.ConnID, f core.Frame) {
	rs, ok := r.Rooms.Get(room)
	if !ok {
		return
	}
	r.applyPolicy(room, rs.Broadcast(from, f).Dropped)
}

// SendTo delivers f to conn. A full queue goes through the policy.
func (r *Relay) SendTo(conn core.ConnID, f core.Frame) {
	sig, ok := r.Registry.Signal(conn)
	if !ok {
		return
	}
	if err := sig.TrySend(f); err != nil {
		pid, name, _ := r.Registry.Binding(conn)
		r.applyPolicy("", []core.Member{core.NewMember(conn, pid, name, sig)})
	}
}

// Notify delivers f to the live connections of pids, skipping except.
// Participants without a connection are skipped.
func (r *Relay) Notify(pids []domain.ParticipantID, except domain.ParticipantID, f core.Frame) int {
	sent := 0
	var dropped []core.Member
	for _, pid := range pids {
		if pid == except {
			continue
		}
		m, ok := r.Registry.MemberOf(pid)
		if !ok {
			continue
		}
		if err := m.Signal().TrySend(f); err != nil {
			dropped = append(dropped, m)
			continue
		}
		sent++
	}
	r.applyPolicy("", dropped)
	return sent
}

// Kick closes the member's transport; the adapter then runs the usual
// disconnect cleanup.
func (r *Relay) Kick(m core.Member) {
	log.Warn().Str("module", "app.relay").Str("conn", string(m.Conn())).Str("participant", string(m.Participant())).Msg("kicking member")
	m.Signal().Close()
}

func (r *Relay) applyPolicy(room domain.RoomID, dropped []core.Member) {
	for _, slow := range dropped {
		if _, live := r.Registry.Signal(slow.Conn()); !live {
			continue
		}
		switch r.Policy.OnBackPressure(room, slow) {
		case KickMember:
			r.Kick(slow)
		case MarkSlow, DropFrame, NoAction:
			log.Warn().Str("module", "app.relay").Str("conn", string(slow.Conn())).Str("room", string(room)).Msg("frame dropped")
		}
	}
}
