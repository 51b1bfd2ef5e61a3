package app

import "github.com/dkeye/Conference/internal/domain"

const HighTierBitrate = 256_000

type qualityRule struct {
	above          uint32
	tier           domain.QualityTier
	bitrate        uint32
	jitterBufferMs uint32
}

// Checked top to bottom; the first rule whose threshold the latency exceeds wins.
var qualityRules = []qualityRule{
	{above: 300, tier: domain.QualityLow, bitrate: 64_000, jitterBufferMs: 200},
	{above: 150, tier: domain.QualityMedium, bitrate: 128_000, jitterBufferMs: 100},
}

// ApplyQuality recomputes the quality tier from the last measured latency.
// Below every threshold nothing changes. Bitrate and jitter buffer follow
// the tier only when adaptive bitrate is on.
func ApplyQuality(s *domain.Session) {
	adaptive := s.Config.AdaptiveBitrate
	for _, rule := range qualityRules {
		if s.Stats.LatencyMs > rule.above {
			s.Stats.Quality = rule.tier
			if adaptive {
				s.Config.Audio.Bitrate = rule.bitrate
				s.Config.Audio.JitterBufferMs = rule.jitterBufferMs
			}
			break
		}
	}
	if s.Stats.Quality == domain.QualityHigh && adaptive {
		s.Config.Audio.Bitrate = HighTierBitrate
	}
}
