package app

import (
	"sync"
	"testing"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/require"
)

// recSignal records frames; it reports back-pressure once cap frames are queued.
type recSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	cap    int
	closed bool
}

func newRecSignal() *recSignal { return &recSignal{cap: 64} }

func (s *recSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrConnClosed
	}
	if len(s.frames) >= s.cap {
		return core.ErrBackpressure
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recSignal) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recSignal) Envelopes(t *testing.T) []core.Envelope {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Envelope, 0, len(s.frames))
	for _, f := range s.frames {
		env, err := core.Decode(f)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (s *recSignal) OfType(t *testing.T, mt core.MessageType) []core.Envelope {
	t.Helper()
	var out []core.Envelope
	for _, env := range s.Envelopes(t) {
		if env.Type == mt {
			out = append(out, env)
		}
	}
	return out
}

func (s *recSignal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

// connect registers and binds a connection for pid.
func connect(t *testing.T, reg *Registry, pid string) (core.ConnID, *recSignal) {
	t.Helper()
	conn := core.ConnID("conn-" + pid)
	sig := newRecSignal()
	reg.Register(conn, sig, func() {})
	require.NoError(t, reg.Bind(conn, domain.ParticipantID(pid), pid))
	return conn, sig
}

