package orch

import (
	"context"
	"time"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// publishTimeout bounds a single event publication.
const publishTimeout = 2 * time.Second

// Orchestrator ties the session core to the signaling relay: it turns
// state changes into frames for connected participants and events for
// the outside world.
type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *app.RoomManager
	Policy     app.Policy
	Relay      *app.Relay
	Conference *app.Conference
	Events     app.EventSink
	Audio      app.AudioEngine
	ICEServers []webrtc.ICEServer
}

func New(conf *app.Conference, relay *app.Relay, events app.EventSink, audio app.AudioEngine, ice []webrtc.ICEServer) *Orchestrator {
	if events == nil {
		events = app.NopSink{}
	}
	if audio == nil {
		audio = app.PassthroughEngine{}
	}
	return &Orchestrator{
		Registry:   relay.Registry,
		Rooms:      relay.Rooms,
		Policy:     relay.Policy,
		Relay:      relay,
		Conference: conf,
		Events:     events,
		Audio:      audio,
		ICEServers: ice,
	}
}

// Attach registers a fresh connection. cancel stops its pumps.
func (o *Orchestrator) Attach(conn core.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Register(conn, sig, cancel)
}

// Disconnect tears conn down: routing to it stops first, then it leaves its
// room and its sessions with notifications, then the participant binding is
// released. Only the first call does anything.
func (o *Orchestrator) Disconnect(ctx context.Context, conn core.ConnID) {
	snap, ok := o.Registry.BeginClose(conn)
	if !ok {
		return
	}
	snap.Signal.Close()
	o.Relay.Drop(snap)
	if snap.Participant != "" {
		o.leaveSessions(ctx, snap.Participant)
	}
	o.Registry.Cancel(conn)
	o.Registry.Unbind(conn)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("participant", string(snap.Participant)).Msg("connection cleaned up")
}

func (o *Orchestrator) leaveSessions(ctx context.Context, pid domain.ParticipantID) {
	for _, s := range o.Conference.Leave(pid) {
		o.notifySession(s, "", core.TypeParticipantLeft, core.ParticipantLeftPayload{SessionID: s.ID, Participant: pid})
		o.publish(ctx, app.EventParticipantLeft, s.ID, pid, nil)
	}
}

// sendConn encodes and queues one frame for conn.
func (o *Orchestrator) sendConn(conn core.ConnID, t core.MessageType, payload any) {
	f, err := core.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(t)).Msg("encode")
		return
	}
	o.Relay.SendTo(conn, f)
}

// sendParticipant queues one frame for pid's live connection, if any.
func (o *Orchestrator) sendParticipant(pid domain.ParticipantID, t core.MessageType, payload any) {
	f, err := core.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(t)).Msg("encode")
		return
	}
	o.Relay.Notify([]domain.ParticipantID{pid}, "", f)
}

// notifySession fans a frame out to the admitted participants of s.
func (o *Orchestrator) notifySession(s *domain.Session, except domain.ParticipantID, t core.MessageType, payload any) {
	o.notify(s.ParticipantIDs(), except, t, payload)
}

func (o *Orchestrator) notify(pids []domain.ParticipantID, except domain.ParticipantID, t core.MessageType, payload any) {
	f, err := core.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(t)).Msg("encode")
		return
	}
	sent := o.Relay.Notify(pids, except, f)
	log.Debug().Str("module", "orch").Str("type", string(t)).Int("sent_to", sent).Msg("notify")
}

func (o *Orchestrator) sessionUpdated(s *domain.Session) {
	o.notifySession(s, "", core.TypeSessionUpdated, core.SessionUpdatedPayload{Session: o.info(s)})
}

func (o *Orchestrator) info(s *domain.Session) core.SessionInfo {
	return core.NewSessionInfo(s, o.Conference.Sessions().Now())
}

func (o *Orchestrator) publish(ctx context.Context, t app.EventType, sid domain.SessionID, pid domain.ParticipantID, data any) {
	ev := app.Event{Type: t, Session: sid, Participant: pid, Data: data, At: time.Now().UTC()}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := o.Events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("event", string(t)).Msg("publish event")
	}
}

// SendError reports err to conn as an error envelope.
func (o *Orchestrator) SendError(conn core.ConnID, err error) {
	o.Relay.SendTo(conn, core.EncodeError(err))
}

// bound returns the participant conn speaks for.
func (o *Orchestrator) bound(conn core.ConnID) (domain.ParticipantID, error) {
	pid, _, ok := o.Registry.Binding(conn)
	if !ok {
		return "", domain.NewError(domain.KindUnauthorizedAction, "connect first")
	}
	return pid, nil
}

// Touch marks the participant behind conn as active.
func (o *Orchestrator) Touch(conn core.ConnID) {
	if pid, _, ok := o.Registry.Binding(conn); ok {
		o.Conference.Touch(pid)
	}
}
