package core

import (
	"sync"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	id     domain.RoomID
	mu     sync.RWMutex
	byConn map[ConnID]Member
	byPID  map[domain.ParticipantID]ConnID
	// order keeps join order so snapshots are stable.
	order []ConnID
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{
		id:     id,
		byConn: make(map[ConnID]Member),
		byPID:  make(map[domain.ParticipantID]ConnID),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func (r *roomImpl) AddMember(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[m.Conn()]; ok {
		return false
	}
	r.byConn[m.Conn()] = m
	r.byPID[m.Participant()] = m.Conn()
	r.order = append(r.order, m.Conn())
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(m.Conn())).Str("participant", string(m.Participant())).Msg("member added")
	return true
}

func (r *roomImpl) RemoveMember(conn ConnID) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byConn[conn]
	if !ok {
		return nil, false
	}
	if r.byPID[m.Participant()] == conn {
		delete(r.byPID, m.Participant())
	}
	delete(r.byConn, conn)
	for i, c := range r.order {
		if c == conn {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(conn)).Msg("member removed")
	return m, true
}

func (r *roomImpl) Lookup(pid domain.ParticipantID) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byPID[pid]
	if !ok {
		return nil, false
	}
	return r.byConn[conn], true
}

// Broadcast is best effort: a failed send is reported in Dropped and never
// stops delivery to the remaining members.
func (r *roomImpl) Broadcast(from ConnID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, conn := range r.order {
		if conn == from {
			continue
		}
		m := r.byConn[conn]
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.order))
	for _, conn := range r.order {
		m := r.byConn[conn]
		out = append(out, MemberDTO{Conn: conn, Participant: m.Participant(), DisplayName: m.DisplayName()})
	}
	return out
}

