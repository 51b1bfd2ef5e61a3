package app

import (
	"strings"
	"unicode/utf8"

	"github.com/dkeye/Conference/internal/domain"
)

// Chat validates a message from sender and returns it together with the
// participants that should receive it. A whisper reaches sender and
// recipient only.
func (c *Conference) Chat(id domain.SessionID, sender domain.ParticipantID, content string, recipient *domain.ParticipantID) (domain.ChatMessage, []domain.ParticipantID, error) {
	now := c.sessions.Now()
	var to []domain.ParticipantID
	_, err := c.sessions.Mutate(id, func(s *domain.Session) error {
		i := s.ParticipantIndex(sender)
		if i < 0 {
			return domain.NewError(domain.KindParticipantNotFound, "participant %s", sender)
		}
		if !s.Participants[i].Features.Chat {
			return domain.NewError(domain.KindChatError, "chat is disabled for %s", sender)
		}
		if strings.TrimSpace(content) == "" {
			return domain.NewError(domain.KindChatError, "empty message")
		}
		if utf8.RuneCountInString(content) > domain.MaxChatMessageLength {
			return domain.NewError(domain.KindChatError, "message longer than %d characters", domain.MaxChatMessageLength)
		}
		if recipient != nil {
			if !s.HasParticipant(*recipient) {
				return domain.NewError(domain.KindParticipantNotFound, "recipient %s", *recipient)
			}
			to = []domain.ParticipantID{sender}
			if *recipient != sender {
				to = append(to, *recipient)
			}
		} else {
			to = s.ParticipantIDs()
		}
		s.Participants[i].LastActive = now
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}
	return domain.ChatMessage{Sender: sender, Content: content, Timestamp: now, Recipient: recipient}, to, nil
}
