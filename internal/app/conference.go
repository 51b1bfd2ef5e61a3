package app

import (
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Conference is the session core: admission, moderation, quality and chat
// rules applied through the SessionRegistry. It never talks to transports.
type Conference struct {
	sessions *SessionRegistry
}

func NewConference(sessions *SessionRegistry) *Conference {
	return &Conference{sessions: sessions}
}

func (c *Conference) Sessions() *SessionRegistry { return c.sessions }

func (c *Conference) CreateSession(owner domain.ParticipantID, cfg domain.SessionConfig) (*domain.Session, error) {
	return c.sessions.Create(owner, cfg)
}

func (c *Conference) Session(id domain.SessionID) (*domain.Session, error) {
	return c.sessions.Get(id)
}

// EndSession requires the caller to be the owner or a moderator.
func (c *Conference) EndSession(id domain.SessionID, caller domain.ParticipantID) (*domain.Session, error) {
	s, err := c.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if !s.IsModerator(caller) {
		return nil, domain.NewError(domain.KindUnauthorizedAction, "%s may not end session %s", caller, id)
	}
	return c.sessions.End(id)
}

func (c *Conference) SetMuted(id domain.SessionID, pid domain.ParticipantID, muted bool) (*domain.Session, error) {
	now := c.sessions.Now()
	return c.sessions.Mutate(id, func(s *domain.Session) error {
		i := s.ParticipantIndex(pid)
		if i < 0 {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s", pid)
		}
		s.Participants[i].Muted = muted
		s.Participants[i].LastActive = now
		return nil
	})
}

// ReportLatency records a measurement and recomputes quality.
func (c *Conference) ReportLatency(id domain.SessionID, latencyMs uint32) (*domain.Session, error) {
	s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		s.Stats.LatencyMs = latencyMs
		ApplyQuality(s)
		return nil
	})
	if err == nil {
		log.Debug().Str("module", "app.quality").Str("session", string(id)).Uint32("latency_ms", latencyMs).Str("quality", string(s.Stats.Quality)).Msg("latency reported")
	}
	return s, err
}

// UpdateConfig applies a patch on behalf of a moderator.
func (c *Conference) UpdateConfig(id domain.SessionID, caller domain.ParticipantID, p domain.ConfigPatch) (*domain.Session, error) {
	return c.sessions.Mutate(id, func(s *domain.Session) error {
		if err := requireModerator(s, caller); err != nil {
			return err
		}
		return ApplyPatch(s, p)
	})
}

// RecordAudio accounts samples of 16-bit PCM sent by pid.
func (c *Conference) RecordAudio(id domain.SessionID, pid domain.ParticipantID, samples int) (*domain.Session, error) {
	now := c.sessions.Now()
	return c.sessions.Mutate(id, func(s *domain.Session) error {
		i := s.ParticipantIndex(pid)
		if i < 0 {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s", pid)
		}
		s.Participants[i].LastActive = now
		s.Stats.DataBytes += uint64(samples) * 2
		return nil
	})
}

// SessionsOf lists the sessions pid is admitted to.
func (c *Conference) SessionsOf(pid domain.ParticipantID) []*domain.Session {
	var out []*domain.Session
	for _, id := range c.sessions.IDs() {
		s, err := c.sessions.Get(id)
		if err != nil || !s.HasParticipant(pid) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Touch refreshes pid's last-active time in every session it is admitted to.
func (c *Conference) Touch(pid domain.ParticipantID) int {
	n := 0
	for _, id := range c.sessions.IDs() {
		now := c.sessions.Now()
		_, err := c.sessions.Mutate(id, func(s *domain.Session) error {
			i := s.ParticipantIndex(pid)
			if i < 0 {
				return errUnchanged
			}
			s.Participants[i].LastActive = now
			return nil
		})
		if err == nil {
			n++
		}
	}
	return n
}
