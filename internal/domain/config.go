package domain

import "slices"

type SessionConfig struct {
	MaxParticipants   int          `json:"max_participants"`
	ModeratorRequired bool         `json:"moderator_required"`
	Audio             AudioConfig  `json:"audio"`
	Recording         bool         `json:"recording"`
	AllowedDevices    []DeviceType `json:"allowed_devices"`
	AdaptiveBitrate   bool         `json:"adaptive_bitrate"`
	Transcription     bool         `json:"transcription"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxParticipants: 16,
		Audio: AudioConfig{
			SampleRate:     48000,
			Channels:       1,
			BitDepth:       16,
			Codec:          "opus",
			Bitrate:        128_000,
			JitterBufferMs: 60,
		},
		AllowedDevices: []DeviceType{
			DeviceMobile, DeviceServer, DeviceRaspberryPi, DeviceLinuxBox, DeviceUnknown,
		},
		AdaptiveBitrate: true,
	}
}

func (c SessionConfig) Allows(t DeviceType) bool {
	return slices.Contains(c.AllowedDevices, t)
}

func (c SessionConfig) Clone() SessionConfig {
	c.AllowedDevices = slices.Clone(c.AllowedDevices)
	return c
}

// ConfigPatch is a partial update; nil fields are left untouched.
type ConfigPatch struct {
	MaxParticipants   *int          `json:"max_participants,omitempty"`
	ModeratorRequired *bool         `json:"moderator_required,omitempty"`
	Audio             *AudioConfig  `json:"audio,omitempty"`
	Recording         *bool         `json:"recording,omitempty"`
	AllowedDevices    *[]DeviceType `json:"allowed_devices,omitempty"`
	AdaptiveBitrate   *bool         `json:"adaptive_bitrate,omitempty"`
	Transcription     *bool         `json:"transcription,omitempty"`
}

func (p ConfigPatch) Empty() bool {
	return p == ConfigPatch{}
}
