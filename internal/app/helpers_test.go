package app

import (
	"testing"
	"time"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestConference(t *testing.T) (*Conference, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: testNow}
	return NewConference(NewSessionRegistry(clk.Now)), clk
}

func newTestSession(t *testing.T, c *Conference, mutate func(*domain.SessionConfig)) *domain.Session {
	t.Helper()
	cfg := domain.DefaultSessionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := c.CreateSession("owner", cfg)
	require.NoError(t, err)
	return s
}

func participant(id string, dt domain.DeviceType, dev string) domain.Participant {
	return domain.Participant{
		ID:          domain.ParticipantID(id),
		DisplayName: id,
		Device:      domain.DeviceInfo{ID: domain.DeviceID(dev), Type: dt},
		Features:    domain.Features{Chat: true},
	}
}

func direct() domain.JoinRequest { return domain.JoinRequest{Mode: domain.JoinDirect} }

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}
