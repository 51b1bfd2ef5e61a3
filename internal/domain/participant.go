package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxParticipantIDLen  = 64
	MaxDisplayNameLen    = 64
	DefaultDisplayName   = "guest"
	MaxChatMessageLength = 4000
)

var (
	ErrParticipantIDEmpty   = NewError(KindInvalidConfiguration, "participant id empty")
	ErrParticipantIDTooLong = NewError(KindInvalidConfiguration, "participant id too long")
	ErrDisplayNameTooLong   = NewError(KindInvalidConfiguration, "display name too long")
)

type ParticipantID string

type Features struct {
	ScreenShare        bool `json:"screen_share"`
	Chat               bool `json:"chat"`
	HardwareEchoCancel bool `json:"hardware_echo_cancel"`
}

type Participant struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"display_name"`
	Device      DeviceInfo    `json:"device"`
	Muted       bool          `json:"muted"`
	JoinedAt    time.Time     `json:"joined_at"`
	LastActive  time.Time     `json:"last_active"`
	Features    Features      `json:"features"`
	// Audio holds the parameters accepted at admission.
	Audio AudioConfig `json:"audio"`
}

// Validate normalizes the display name and checks identifier bounds.
func (p *Participant) Validate() error {
	if p.ID == "" {
		return ErrParticipantIDEmpty
	}
	if len(p.ID) > MaxParticipantIDLen {
		return ErrParticipantIDTooLong
	}
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}
	if utf8.RuneCountInString(p.DisplayName) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	if p.Device.Type == "" {
		p.Device.Type = DeviceUnknown
	}
	return nil
}
