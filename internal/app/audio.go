package app

import (
	"context"

	"github.com/dkeye/Conference/internal/domain"
)

type AudioFrame struct {
	Session     domain.SessionID
	Participant domain.ParticipantID
	Samples     []int16
}

// ProcessedAudio is the engine's answer. LatencyMs is a network measurement
// when HasLatency is set and feeds the quality controller.
type ProcessedAudio struct {
	Samples    []int16
	LatencyMs  uint32
	HasLatency bool
}

// AudioEngine is the external processing stage (denoise, echo cancel, mix).
type AudioEngine interface {
	Process(ctx context.Context, f AudioFrame) (ProcessedAudio, error)
}

// PassthroughEngine returns samples untouched and measures nothing.
type PassthroughEngine struct{}

func (PassthroughEngine) Process(_ context.Context, f AudioFrame) (ProcessedAudio, error) {
	return ProcessedAudio{Samples: f.Samples}, nil
}
