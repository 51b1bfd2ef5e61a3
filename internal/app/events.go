package app

import (
	"context"
	"time"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSessionCreated     EventType = "session_created"
	EventSessionEnded       EventType = "session_ended"
	EventParticipantJoined  EventType = "participant_joined"
	EventParticipantWaiting EventType = "participant_waiting"
	EventParticipantLeft    EventType = "participant_left"
	EventParticipantBanned  EventType = "participant_banned"
	EventDeviceBanned       EventType = "device_banned"
	EventModeratorAdded     EventType = "moderator_added"
	EventConfigUpdated      EventType = "config_updated"
	EventQualityChanged     EventType = "quality_changed"
	EventChatMessage        EventType = "chat_message"
	EventDeviceUpgrade      EventType = "device_upgrade"
)

// Event is what the core reports to the outside world: recorders,
// transcription, the audio engine's control plane.
type Event struct {
	Type        EventType            `json:"type"`
	Session     domain.SessionID     `json:"session_id,omitempty"`
	Participant domain.ParticipantID `json:"participant_id,omitempty"`
	Data        any                  `json:"data,omitempty"`
	At          time.Time            `json:"at"`
}

// EventSink receives events. Publish must not block for long; a failure is
// logged by the caller and never undoes the state change.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }

// LogSink writes events to the debug log.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, ev Event) error {
	log.Debug().Str("module", "app.events").Str("type", string(ev.Type)).Str("session", string(ev.Session)).Str("participant", string(ev.Participant)).Msg("event")
	return nil
}
