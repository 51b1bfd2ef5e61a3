package domain

const (
	MinSampleRate = 8000
	MaxSampleRate = 48000
)

type AudioConfig struct {
	SampleRate     uint32 `json:"sample_rate"`
	Channels       uint8  `json:"channels"`
	BitDepth       uint8  `json:"bit_depth"`
	Codec          string `json:"codec"`
	Bitrate        uint32 `json:"bitrate"`
	JitterBufferMs uint32 `json:"jitter_buffer_ms"`
}

// ClampTo replaces out-of-range sample rate and bit depth with the values
// from def. Other fields are taken as requested.
func (a AudioConfig) ClampTo(def AudioConfig) AudioConfig {
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		a.SampleRate = def.SampleRate
	}
	switch a.BitDepth {
	case 16, 24, 32:
	default:
		a.BitDepth = def.BitDepth
	}
	return a
}
