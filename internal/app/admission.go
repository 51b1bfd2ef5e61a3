package app

import (
	"errors"
	"time"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// Admission is the outcome of a join attempt that did not fail.
type Admission struct {
	Status      domain.JoinStatus
	Session     *domain.Session
	Participant domain.Participant
	// Position is the 1-based waiting room slot when Status is JoinWaiting.
	Position int
	// Already is set when the participant was admitted before this call.
	Already bool
}

// admit applies the direct join rules in order and appends p on success.
// A participant already admitted is left as it is.
func admit(s *domain.Session, p domain.Participant, now time.Time) error {
	if s.HasParticipant(p.ID) {
		return nil
	}
	if !s.Config.Allows(p.Device.Type) {
		return domain.NewError(domain.KindInvalidDeviceType, "device type %s not allowed", p.Device.Type)
	}
	if p.Device.ID != "" && s.BannedDevices.Has(p.Device.ID) {
		return domain.NewError(domain.KindUnauthorizedAction, "device %s is banned", p.Device.ID)
	}
	if s.BannedParticipants.Has(p.ID) {
		return domain.NewError(domain.KindUnauthorizedAction, "participant %s is banned", p.ID)
	}
	if len(s.Participants) >= s.Config.MaxParticipants {
		return domain.NewError(domain.KindSessionFull, "session %s is full", s.ID)
	}
	p.JoinedAt = now
	p.LastActive = now
	s.AddParticipant(p, now)
	ApplyQuality(s)
	return nil
}

// Join runs the admission machine for p.
func (c *Conference) Join(id domain.SessionID, p domain.Participant, req domain.JoinRequest) (Admission, error) {
	if err := p.Validate(); err != nil {
		return Admission{}, err
	}
	now := c.sessions.Now()
	var out Admission
	s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		if i := s.ParticipantIndex(p.ID); i >= 0 {
			out = Admission{Status: domain.JoinAdmitted, Participant: s.Participants[i], Already: true}
			return errUnchanged
		}
		switch req.Mode {
		case domain.JoinPendingApproval:
			if i := s.WaitingIndex(p.ID); i >= 0 {
				out = Admission{Status: domain.JoinWaiting, Participant: s.WaitingRoom[i], Position: i + 1, Already: true}
				return errUnchanged
			}
			p.Audio = s.Config.Audio
			s.WaitingRoom = append(s.WaitingRoom, p)
			out = Admission{Status: domain.JoinWaiting, Participant: p, Position: len(s.WaitingRoom)}
			return nil
		case domain.JoinCustomConfig:
			if req.Audio == nil {
				return domain.NewError(domain.KindInvalidConfiguration, "custom config join without audio config")
			}
			p.Audio = req.Audio.ClampTo(s.Config.Audio)
		case domain.JoinDirect, "":
			p.Audio = s.Config.Audio
		default:
			return domain.NewError(domain.KindInvalidConfiguration, "unknown join mode %q", req.Mode)
		}
		// a direct join supersedes a pending request; on failure the
		// rollback keeps the request waiting
		s.RemoveWaiting(p.ID)
		if err := admit(s, p, now); err != nil {
			return err
		}
		out = Admission{Status: domain.JoinAdmitted, Participant: s.Participants[len(s.Participants)-1]}
		return nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		out.Session, err = c.sessions.Get(id)
		return out, err
	case err != nil:
		log.Info().Str("module", "app.admission").Str("session", string(id)).Str("participant", string(p.ID)).Err(err).Msg("join refused")
		return Admission{}, err
	}
	out.Session = s
	log.Info().Str("module", "app.admission").Str("session", string(id)).Str("participant", string(p.ID)).Str("status", string(out.Status)).Msg("join")
	return out, nil
}

// Approve moves a waiting participant through the direct join rules. A
// participant that fails them is dropped from the waiting room and the
// rule's error is returned.
func (c *Conference) Approve(id domain.SessionID, moderator, pid domain.ParticipantID) (Admission, error) {
	now := c.sessions.Now()
	var (
		out      Admission
		rejected error
	)
	s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		if !s.IsModerator(moderator) {
			return domain.NewError(domain.KindUnauthorizedAction, "%s is not a moderator", moderator)
		}
		p, ok := s.RemoveWaiting(pid)
		if !ok {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s not waiting", pid)
		}
		if i := s.ParticipantIndex(pid); i >= 0 {
			out = Admission{Status: domain.JoinAdmitted, Participant: s.Participants[i], Already: true}
			return nil
		}
		if err := admit(s, p, now); err != nil {
			rejected = err
			return nil
		}
		out = Admission{Status: domain.JoinAdmitted, Participant: s.Participants[len(s.Participants)-1]}
		return nil
	})
	if err != nil {
		return Admission{}, err
	}
	if rejected != nil {
		log.Info().Str("module", "app.admission").Str("session", string(id)).Str("participant", string(pid)).Err(rejected).Msg("approval rejected")
		return Admission{Session: s}, rejected
	}
	out.Session = s
	log.Info().Str("module", "app.admission").Str("session", string(id)).Str("participant", string(pid)).Msg("approved")
	return out, nil
}

func (c *Conference) Deny(id domain.SessionID, moderator, pid domain.ParticipantID) (*domain.Session, error) {
	return c.sessions.Mutate(id, func(s *domain.Session) error {
		if !s.IsModerator(moderator) {
			return domain.NewError(domain.KindUnauthorizedAction, "%s is not a moderator", moderator)
		}
		if _, ok := s.RemoveWaiting(pid); !ok {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s not waiting", pid)
		}
		return nil
	})
}

// Leave removes pid from every session it is admitted to or waiting in and
// returns the sessions it left. It never fails and repeated calls are no-ops.
func (c *Conference) Leave(pid domain.ParticipantID) []*domain.Session {
	var left []*domain.Session
	for _, id := range c.sessions.IDs() {
		now := c.sessions.Now()
		s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
			_, admitted := s.RemoveParticipant(pid, now)
			_, waiting := s.RemoveWaiting(pid)
			if !admitted && !waiting {
				return errUnchanged
			}
			return nil
		})
		if err != nil {
			continue
		}
		left = append(left, s)
		log.Info().Str("module", "app.admission").Str("session", string(id)).Str("participant", string(pid)).Msg("left session")
	}
	return left
}
