package app

import (
	"context"
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Signal      core.SignalConnection
	Participant domain.ParticipantID
	DisplayName string
	Room        domain.RoomID
	Cancel      context.CancelFunc
	closing     bool
}

// ConnSnapshot is a copy of a registry entry taken at teardown.
type ConnSnapshot struct {
	Conn        core.ConnID
	Signal      core.SignalConnection
	Participant domain.ParticipantID
	DisplayName string
	Room        domain.RoomID
}

// Registry tracks live connections and the participant each one speaks for.
// A participant is bound to at most one live connection.
type Registry struct {
	mu            sync.RWMutex
	conns         map[core.ConnID]*connEntry
	byParticipant map[domain.ParticipantID]core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:         make(map[core.ConnID]*connEntry),
		byParticipant: make(map[domain.ParticipantID]core.ConnID),
	}
}

func (r *Registry) Register(conn core.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = &connEntry{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("registered connection")
}

// Bind attaches pid to conn. Rebinding the same pair is a no-op; a
// connection can't switch identity and a participant can't be bound twice.
func (r *Registry) Bind(conn core.ConnID, pid domain.ParticipantID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok || e.closing {
		return domain.NewError(domain.KindNetworkError, "connection %s is closed", conn)
	}
	if e.Participant != "" && e.Participant != pid {
		return domain.NewError(domain.KindUnauthorizedAction, "connection already speaks for %s", e.Participant)
	}
	if other, ok := r.byParticipant[pid]; ok && other != conn {
		return domain.NewError(domain.KindUnauthorizedAction, "participant %s is connected elsewhere", pid)
	}
	e.Participant = pid
	if displayName != "" {
		e.DisplayName = displayName
	}
	r.byParticipant[pid] = conn
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("participant", string(pid)).Msg("bound participant")
	return nil
}

func (r *Registry) Binding(conn core.ConnID) (domain.ParticipantID, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[conn]
	if !ok || e.Participant == "" {
		return "", "", false
	}
	return e.Participant, e.DisplayName, true
}

// Signal returns the transport of a connection that still accepts frames.
func (r *Registry) Signal(conn core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[conn]
	if !ok || e.closing {
		return nil, false
	}
	return e.Signal, true
}

// MemberOf resolves the live connection bound to pid.
func (r *Registry) MemberOf(pid domain.ParticipantID) (core.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byParticipant[pid]
	if !ok {
		return nil, false
	}
	e := r.conns[conn]
	if e == nil || e.closing {
		return nil, false
	}
	return core.NewMember(conn, pid, e.DisplayName, e.Signal), true
}

func (r *Registry) RoomOf(conn core.ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[conn]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) UpdateRoom(conn core.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok {
		return false
	}
	e.Room = room
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(room)).Msg("updated room")
	return true
}

func (r *Registry) RemoveRoom(conn core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[conn]; ok {
		e.Room = ""
	}
}

// BeginClose stops routing to conn. Only the first caller gets ok; later
// calls see a connection already being torn down.
func (r *Registry) BeginClose(conn core.ConnID) (ConnSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok || e.closing {
		return ConnSnapshot{}, false
	}
	e.closing = true
	return ConnSnapshot{
		Conn:        conn,
		Signal:      e.Signal,
		Participant: e.Participant,
		DisplayName: e.DisplayName,
		Room:        e.Room,
	}, true
}

// Release drops conn's participant binding but keeps the connection, so it
// can bind to another participant.
func (r *Registry) Release(conn core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok || e.Participant == "" {
		return
	}
	if r.byParticipant[e.Participant] == conn {
		delete(r.byParticipant, e.Participant)
	}
	e.Participant = ""
	e.DisplayName = ""
}

// Unbind forgets conn and releases its participant.
func (r *Registry) Unbind(conn core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok {
		return
	}
	if e.Participant != "" && r.byParticipant[e.Participant] == conn {
		delete(r.byParticipant, e.Participant)
	}
	delete(r.conns, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("unbind connection")
}

func (r *Registry) Cancel(conn core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[conn]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("canceled connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
