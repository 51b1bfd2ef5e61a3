package domain

import "time"

// ChatMessage without a Recipient goes to the whole session; with one it is
// a whisper seen only by sender and recipient.
type ChatMessage struct {
	Sender    ParticipantID  `json:"sender"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Recipient *ParticipantID `json:"recipient,omitempty"`
}

func (m ChatMessage) IsWhisper() bool { return m.Recipient != nil }
