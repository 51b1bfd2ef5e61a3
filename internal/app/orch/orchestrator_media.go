package orch

import (
	"context"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

// AudioData accounts a PCM buffer, runs it through the audio engine and
// forwards the result to the other participants. Muted senders are
// accounted but not forwarded.
func (o *Orchestrator) AudioData(ctx context.Context, id domain.SessionID, pid domain.ParticipantID, samples []int16) error {
	s, err := o.Conference.RecordAudio(id, pid, len(samples))
	if err != nil {
		return err
	}
	out, err := o.Audio.Process(ctx, app.AudioFrame{Session: id, Participant: pid, Samples: samples})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("session", string(id)).Msg("audio engine")
		return domain.NewError(domain.KindInternalError, "audio processing failed")
	}
	if i := s.ParticipantIndex(pid); i >= 0 && !s.Participants[i].Muted {
		o.notifySession(s, pid, core.TypeAudioReceived, core.AudioReceivedPayload{SessionID: id, Participant: pid, Data: out.Samples})
	}
	if out.HasLatency {
		if _, err := o.ReportLatency(ctx, id, out.LatencyMs); err != nil {
			return err
		}
	}
	return nil
}

// ReportLatency feeds the quality controller and tells participants the
// resulting tier.
func (o *Orchestrator) ReportLatency(ctx context.Context, id domain.SessionID, latencyMs uint32) (*domain.Session, error) {
	s, err := o.Conference.ReportLatency(id, latencyMs)
	if err != nil {
		return nil, err
	}
	q := core.QualityUpdatePayload{
		SessionID:      id,
		Quality:        s.Stats.Quality,
		LatencyMs:      s.Stats.LatencyMs,
		Bitrate:        s.Config.Audio.Bitrate,
		JitterBufferMs: s.Config.Audio.JitterBufferMs,
	}
	o.notifySession(s, "", core.TypeQualityUpdate, q)
	o.publish(ctx, app.EventQualityChanged, id, "", q)
	return s, nil
}
