package app

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

// errUnchanged aborts a mutation without reporting a failure to the caller.
var errUnchanged = errors.New("unchanged")

type sessionSlot struct {
	mu    sync.RWMutex
	s     *domain.Session
	ended bool
}

// SessionRegistry owns every active session. Each session is guarded by its
// own lock so a busy session never blocks unrelated ones.
type SessionRegistry struct {
	table *xsync.MapOf[domain.SessionID, *sessionSlot]
	now   func() time.Time
}

func NewSessionRegistry(clock func() time.Time) *SessionRegistry {
	if clock == nil {
		clock = time.Now
	}
	return &SessionRegistry{
		table: xsync.NewMapOf[domain.SessionID, *sessionSlot](),
		now:   clock,
	}
}

func (r *SessionRegistry) Now() time.Time { return r.now() }

func (r *SessionRegistry) Create(owner domain.ParticipantID, cfg domain.SessionConfig) (*domain.Session, error) {
	if owner == "" {
		return nil, domain.NewError(domain.KindInvalidConfiguration, "owner required")
	}
	if len(cfg.AllowedDevices) == 0 {
		return nil, domain.NewError(domain.KindInvalidConfiguration, "allowed device types can't be empty")
	}
	if cfg.MaxParticipants < 1 {
		return nil, domain.NewError(domain.KindInvalidConfiguration, "max participants must be positive")
	}
	id := domain.SessionID(uuid.NewString())
	s := domain.NewSession(id, owner, cfg, r.now())
	r.table.Store(id, &sessionSlot{s: s})
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Str("owner", string(owner)).Msg("session created")
	return s.Clone(), nil
}

// Get returns a snapshot; it is not kept in sync with later mutations.
func (r *SessionRegistry) Get(id domain.SessionID) (*domain.Session, error) {
	slot, ok := r.table.Load(id)
	if !ok {
		return nil, domain.NewError(domain.KindSessionNotFound, "session %s", id)
	}
	slot.mu.RLock()
	defer slot.mu.RUnlock()
	if slot.ended {
		return nil, domain.NewError(domain.KindSessionNotFound, "session %s", id)
	}
	return slot.s.Clone(), nil
}

// Mutate runs f on a working copy of the session under its lock. The copy
// replaces the stored session only when f returns nil, so a failed mutation
// leaves no trace. The committed snapshot is returned.
func (r *SessionRegistry) Mutate(id domain.SessionID, f func(*domain.Session) error) (*domain.Session, error) {
	slot, ok := r.table.Load(id)
	if !ok {
		return nil, domain.NewError(domain.KindSessionNotFound, "session %s", id)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.ended {
		return nil, domain.NewError(domain.KindSessionNotFound, "session %s", id)
	}
	work := slot.s.Clone()
	if err := f(work); err != nil {
		return nil, err
	}
	slot.s = work
	return work.Clone(), nil
}

// IDs snapshots the active session ids in a stable order.
func (r *SessionRegistry) IDs() []domain.SessionID {
	ids := make([]domain.SessionID, 0, r.table.Size())
	r.table.Range(func(id domain.SessionID, _ *sessionSlot) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

func (r *SessionRegistry) List() []*domain.Session {
	out := make([]*domain.Session, 0)
	for _, id := range r.IDs() {
		if s, err := r.Get(id); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// End removes the session and returns its final state. In-flight mutators
// that already hold the slot observe the ended flag and fail.
func (r *SessionRegistry) End(id domain.SessionID) (*domain.Session, error) {
	slot, ok := r.table.LoadAndDelete(id)
	if !ok {
		return nil, domain.NewError(domain.KindSessionNotFound, "session %s", id)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.ended = true
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Msg("session ended")
	return slot.s.Clone(), nil
}
