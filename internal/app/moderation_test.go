package app

import (
	"testing"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanParticipant(t *testing.T) {
	c, _ := newTestConference(t)
	s := newTestSession(t, c, nil)
	_, err := c.Join(s.ID, participant("alice", domain.DeviceMobile, "d1"), direct())
	require.NoError(t, err)
	_, err = c.AuthorizeModerator(s.ID, "owner", "alice")
	require.NoError(t, err)

	_, err = c.BanParticipant(s.ID, "stranger", "alice")
	requireKind(t, err, domain.KindUnauthorizedAction)

	_, err = c.BanParticipant(s.ID, "alice", "owner")
	requireKind(t, err, domain.KindModerationError)

	res, err := c.BanParticipant(s.ID, "owner", "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{"alice"}, res.Removed)
	assert.Empty(t, res.Session.Participants)
	assert.True(t, res.Session.BannedParticipants.Has("alice"))
	assert.False(t, res.Session.IsModerator("alice"))

	_, err = c.BanParticipant(s.ID, "owner", "ghost")
	requireKind(t, err, domain.KindParticipantNotFound)
}

func TestBanDevice_RemovesEveryUser(t *testing.T) {
	c, _ := newTestConference(t)
	s := newTestSession(t, c, nil)
	_, err := c.Join(s.ID, participant("a", domain.DeviceServer, "shared"), direct())
	require.NoError(t, err)
	_, err = c.Join(s.ID, participant("b", domain.DeviceServer, "other"), direct())
	require.NoError(t, err)
	_, err = c.Join(s.ID, participant("w", domain.DeviceServer, "shared"), domain.JoinRequest{Mode: domain.JoinPendingApproval})
	require.NoError(t, err)

	res, err := c.BanDevice(s.ID, "owner", "shared")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ParticipantID{"a", "w"}, res.Removed)
	assert.Equal(t, []domain.ParticipantID{"b"}, res.Session.ParticipantIDs())
	assert.Empty(t, res.Session.WaitingRoom)
	assert.True(t, res.Session.BannedDevices.Has("shared"))

	_, err = c.BanDevice(s.ID, "owner", "")
	requireKind(t, err, domain.KindModerationError)
	_, err = c.BanDevice(s.ID, "b", "other")
	requireKind(t, err, domain.KindUnauthorizedAction)
}

func TestAuthorizeModerator(t *testing.T) {
	c, _ := newTestConference(t)
	s := newTestSession(t, c, nil)

	_, err := c.AuthorizeModerator(s.ID, "bob", "bob")
	requireKind(t, err, domain.KindUnauthorizedAction)

	got, err := c.AuthorizeModerator(s.ID, "owner", "bob")
	require.NoError(t, err)
	assert.True(t, got.IsModerator("bob"))

	// a delegated moderator may delegate further
	got, err = c.AuthorizeModerator(s.ID, "bob", "carol")
	require.NoError(t, err)
	assert.True(t, got.IsModerator("carol"))
}

func TestEndSession(t *testing.T) {
	c, _ := newTestConference(t)
	s := newTestSession(t, c, nil)

	_, err := c.EndSession(s.ID, "stranger")
	requireKind(t, err, domain.KindUnauthorizedAction)

	_, err = c.EndSession(s.ID, "owner")
	require.NoError(t, err)
	_, err = c.Session(s.ID)
	requireKind(t, err, domain.KindSessionNotFound)
}
