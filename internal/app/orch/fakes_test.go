package orch

import (
	"context"
	"sync"
	"testing"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/require"
)

type recSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (s *recSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrConnClosed
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recSignal) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

func (s *recSignal) ofType(t *testing.T, mt core.MessageType) []core.Envelope {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Envelope
	for _, f := range s.frames {
		env, err := core.Decode(f)
		require.NoError(t, err)
		if env.Type == mt {
			out = append(out, env)
		}
	}
	return out
}

// last binds the payload of the single frame of type mt.
func last[T any](t *testing.T, s *recSignal, mt core.MessageType) T {
	t.Helper()
	envs := s.ofType(t, mt)
	require.NotEmpty(t, envs, "no %s frame", mt)
	var v T
	require.NoError(t, envs[len(envs)-1].Bind(&v))
	return v
}

type recSink struct {
	mu     sync.Mutex
	events []app.Event
}

func (s *recSink) Publish(_ context.Context, ev app.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recSink) types() []app.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]app.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	o     *Orchestrator
	sink  *recSink
	conns map[domain.ParticipantID]*recSignal
}

func newHarness(t *testing.T, audio app.AudioEngine) *harness {
	t.Helper()
	sink := &recSink{}
	conf := app.NewConference(app.NewSessionRegistry(nil))
	relay := app.NewRelay(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{})
	return &harness{
		o:     New(conf, relay, sink, audio, nil),
		sink:  sink,
		conns: map[domain.ParticipantID]*recSignal{},
	}
}

func connID(pid domain.ParticipantID) core.ConnID { return core.ConnID("conn-" + pid) }

func (h *harness) attach(pid domain.ParticipantID) *recSignal {
	sig := &recSignal{}
	h.o.Attach(connID(pid), sig, func() {})
	h.conns[pid] = sig
	return sig
}

func (h *harness) session(t *testing.T, cfg func(*domain.SessionConfig)) *domain.Session {
	t.Helper()
	c := domain.DefaultSessionConfig()
	if cfg != nil {
		cfg(&c)
	}
	s, err := h.o.CreateSession(context.Background(), "owner", c)
	require.NoError(t, err)
	return s
}

// connect attaches pid and joins it to the session.
func (h *harness) connect(t *testing.T, sid domain.SessionID, pid domain.ParticipantID, mode domain.JoinMode) *recSignal {
	t.Helper()
	sig := h.attach(pid)
	err := h.o.Connect(context.Background(), connID(pid), "", core.ConnectPayload{
		SessionID:     sid,
		ParticipantID: pid,
		DisplayName:   string(pid),
		Device:        domain.DeviceInfo{ID: domain.DeviceID("dev-" + pid), Type: domain.DeviceMobile},
		Features:      domain.Features{Chat: true},
		Mode:          mode,
	})
	require.NoError(t, err)
	return sig
}
