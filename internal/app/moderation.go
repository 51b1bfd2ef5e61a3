package app

import (
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// BanResult lists who was removed from the session by a ban.
type BanResult struct {
	Session *domain.Session
	Removed []domain.ParticipantID
}

func requireModerator(s *domain.Session, moderator domain.ParticipantID) error {
	if !s.IsModerator(moderator) {
		return domain.NewError(domain.KindUnauthorizedAction, "%s is not a moderator", moderator)
	}
	return nil
}

// BanParticipant removes pid from the session and keeps it out for good.
func (c *Conference) BanParticipant(id domain.SessionID, moderator, pid domain.ParticipantID) (BanResult, error) {
	now := c.sessions.Now()
	var removed []domain.ParticipantID
	s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		if err := requireModerator(s, moderator); err != nil {
			return err
		}
		if pid == s.Owner {
			return domain.NewError(domain.KindModerationError, "the owner can't be banned")
		}
		_, admitted := s.RemoveParticipant(pid, now)
		_, waiting := s.RemoveWaiting(pid)
		if !admitted && !waiting {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s", pid)
		}
		s.BannedParticipants.Add(pid)
		s.Moderators.Remove(pid)
		removed = append(removed, pid)
		return nil
	})
	if err != nil {
		return BanResult{}, err
	}
	log.Info().Str("module", "app.moderation").Str("session", string(id)).Str("moderator", string(moderator)).Str("participant", string(pid)).Msg("participant banned")
	return BanResult{Session: s, Removed: removed}, nil
}

// BanDevice bans a device id and removes everyone currently using it,
// waiting room entries included.
func (c *Conference) BanDevice(id domain.SessionID, moderator domain.ParticipantID, device domain.DeviceID) (BanResult, error) {
	if device == "" {
		return BanResult{}, domain.NewError(domain.KindModerationError, "device id required")
	}
	now := c.sessions.Now()
	var removed []domain.ParticipantID
	s, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		if err := requireModerator(s, moderator); err != nil {
			return err
		}
		removed = removed[:0]
		for _, p := range append([]domain.Participant(nil), s.Participants...) {
			if p.Device.ID == device {
				s.RemoveParticipant(p.ID, now)
				removed = append(removed, p.ID)
			}
		}
		for _, p := range append([]domain.Participant(nil), s.WaitingRoom...) {
			if p.Device.ID == device {
				s.RemoveWaiting(p.ID)
				removed = append(removed, p.ID)
			}
		}
		s.BannedDevices.Add(device)
		return nil
	})
	if err != nil {
		return BanResult{}, err
	}
	log.Info().Str("module", "app.moderation").Str("session", string(id)).Str("moderator", string(moderator)).Str("device", string(device)).Int("removed", len(removed)).Msg("device banned")
	return BanResult{Session: s, Removed: removed}, nil
}

func (c *Conference) AuthorizeModerator(id domain.SessionID, caller, target domain.ParticipantID) (*domain.Session, error) {
	return c.sessions.Mutate(id, func(s *domain.Session) error {
		if err := requireModerator(s, caller); err != nil {
			return err
		}
		if target == "" {
			return domain.NewError(domain.KindModerationError, "moderator id required")
		}
		if s.BannedParticipants.Has(target) {
			return domain.NewError(domain.KindModerationError, "%s is banned", target)
		}
		s.Moderators.Add(target)
		return nil
	})
}
