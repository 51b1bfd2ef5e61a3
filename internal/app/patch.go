package app

import "github.com/dkeye/Conference/internal/domain"

// ApplyPatch copies the present fields of p into the session config and
// then recomputes quality. Validation runs before anything is written.
func ApplyPatch(s *domain.Session, p domain.ConfigPatch) error {
	if p.AllowedDevices != nil && len(*p.AllowedDevices) == 0 {
		return domain.NewError(domain.KindInvalidConfiguration, "allowed device types can't be empty")
	}
	if p.MaxParticipants != nil {
		switch n := *p.MaxParticipants; {
		case n < 1:
			return domain.NewError(domain.KindInvalidConfiguration, "max participants must be positive")
		case n < len(s.Participants):
			return domain.NewError(domain.KindInvalidConfiguration, "max participants %d below current count %d", n, len(s.Participants))
		}
	}

	c := &s.Config
	if p.MaxParticipants != nil {
		c.MaxParticipants = *p.MaxParticipants
	}
	if p.ModeratorRequired != nil {
		c.ModeratorRequired = *p.ModeratorRequired
	}
	if p.Audio != nil {
		c.Audio = *p.Audio
	}
	if p.Recording != nil {
		c.Recording = *p.Recording
	}
	if p.AllowedDevices != nil {
		c.AllowedDevices = append([]domain.DeviceType(nil), *p.AllowedDevices...)
	}
	if p.AdaptiveBitrate != nil {
		c.AdaptiveBitrate = *p.AdaptiveBitrate
	}
	if p.Transcription != nil {
		c.Transcription = *p.Transcription
	}
	ApplyQuality(s)
	return nil
}
