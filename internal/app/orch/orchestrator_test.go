package orch

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestConnect_AnnouncesNewcomer(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)

	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	connected := last[core.ConnectedPayload](t, alice, core.TypeConnected)
	assert.EqualValues(t, "alice", connected.Participant)
	assert.Equal(t, s.ID, connected.Session.ID)
	assert.Empty(t, alice.ofType(t, core.TypeParticipantJoined))

	bob := h.connect(t, s.ID, "bob", domain.JoinDirect)
	joined := last[core.ParticipantJoinedPayload](t, alice, core.TypeParticipantJoined)
	assert.EqualValues(t, "bob", joined.Participant.ID)
	assert.Len(t, bob.ofType(t, core.TypeConnected), 1)
	assert.Empty(t, bob.ofType(t, core.TypeParticipantJoined))

	assert.Equal(t, []app.EventType{app.EventSessionCreated, app.EventParticipantJoined, app.EventParticipantJoined}, h.sink.types())
}

func TestConnect_Failures(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, func(c *domain.SessionConfig) { c.AllowedDevices = []domain.DeviceType{domain.DeviceServer} })

	h.attach("alice")
	err := h.o.Connect(ctx, connID("alice"), "", core.ConnectPayload{SessionID: s.ID, ParticipantID: "alice", Device: domain.DeviceInfo{Type: domain.DeviceMobile}})
	assert.Equal(t, domain.KindInvalidDeviceType, domain.KindOf(err))

	got, err := h.o.Conference.Session(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Participants)

	err = h.o.Connect(ctx, connID("alice"), "", core.ConnectPayload{SessionID: "nope", ParticipantID: "alice", Device: domain.DeviceInfo{Type: domain.DeviceServer}})
	assert.Equal(t, domain.KindSessionNotFound, domain.KindOf(err))
}

func TestConnect_FallbackIdentity(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	sig := h.attach("token")

	require.NoError(t, h.o.Connect(ctx, connID("token"), "token-123", core.ConnectPayload{SessionID: s.ID}))
	connected := last[core.ConnectedPayload](t, sig, core.TypeConnected)
	assert.EqualValues(t, "token-123", connected.Participant)
}

func TestWaitingRoomFlow(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	owner := h.connect(t, s.ID, "owner", domain.JoinDirect)

	waiter := h.connect(t, s.ID, "waiter", domain.JoinPendingApproval)
	w := last[core.WaitingPayload](t, waiter, core.TypeWaiting)
	assert.Equal(t, 1, w.Position)
	upd := last[core.SessionUpdatedPayload](t, owner, core.TypeSessionUpdated)
	assert.Equal(t, []domain.ParticipantID{"waiter"}, upd.Session.WaitingRoom)

	_, err := h.o.Approve(ctx, s.ID, "waiter", "waiter")
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	got, err := h.o.Approve(ctx, s.ID, "owner", "waiter")
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{"owner", "waiter"}, got.ParticipantIDs())
	assert.Len(t, waiter.ofType(t, core.TypeConnected), 1)
	assert.Len(t, owner.ofType(t, core.TypeParticipantJoined), 1)
}

func TestApprove_FullSessionRejects(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, func(c *domain.SessionConfig) { c.MaxParticipants = 1 })
	h.connect(t, s.ID, "owner", domain.JoinDirect)
	waiter := h.connect(t, s.ID, "waiter", domain.JoinPendingApproval)

	got, err := h.o.Approve(ctx, s.ID, "owner", "waiter")
	assert.Equal(t, domain.KindSessionFull, domain.KindOf(err))
	require.NotNil(t, got)
	assert.Empty(t, got.WaitingRoom)
	e := last[core.ErrorPayload](t, waiter, core.TypeError)
	assert.Equal(t, domain.KindSessionFull, e.Kind)
}

func TestDeny(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	waiter := h.connect(t, s.ID, "waiter", domain.JoinPendingApproval)

	got, err := h.o.Deny(ctx, s.ID, "owner", "waiter")
	require.NoError(t, err)
	assert.Empty(t, got.WaitingRoom)
	e := last[core.ErrorPayload](t, waiter, core.TypeError)
	assert.Equal(t, domain.KindUnauthorizedAction, e.Kind)
}

func TestDisconnect_CleansUpOnce(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	h.connect(t, s.ID, "bob", domain.JoinDirect)
	require.NoError(t, h.o.JoinRoom(connID("alice"), "", core.JoinPayload{Room: domain.RoomID(s.ID)}))
	require.NoError(t, h.o.JoinRoom(connID("bob"), "", core.JoinPayload{Room: domain.RoomID(s.ID)}))
	alice.reset()

	h.o.Disconnect(ctx, connID("bob"))
	h.o.Disconnect(ctx, connID("bob"))

	assert.Len(t, alice.ofType(t, core.TypeParticipantLeft), 1)
	assert.Len(t, alice.ofType(t, core.TypeLeave), 1)
	assert.Equal(t, 1, h.o.Registry.Count())
	assert.True(t, h.conns["bob"].closed)

	got, err := h.o.Conference.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{"alice"}, got.ParticipantIDs())

	// bob may reconnect on a fresh connection
	h.connect(t, s.ID, "bob", domain.JoinDirect)
}

func TestJoinRoom_SessionRoomRequiresAdmission(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	h.attach("eve")

	err := h.o.JoinRoom(connID("eve"), "", core.JoinPayload{Room: domain.RoomID(s.ID), Participant: "eve"})
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	require.NoError(t, h.o.JoinRoom(connID("eve"), "", core.JoinPayload{Room: "lobby", Participant: "eve"}))
	assert.Equal(t, []core.RoomInfo{{ID: "lobby", MemberCount: 1}}, h.o.RoomList())

	h.o.LeaveRoom(connID("eve"))
	assert.Empty(t, h.o.RoomList())
}

func TestEndSession_NotifiesAndEvicts(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	require.NoError(t, h.o.JoinRoom(connID("alice"), "", core.JoinPayload{Room: domain.RoomID(s.ID)}))

	_, err := h.o.EndSession(ctx, s.ID, "alice")
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	_, err = h.o.EndSession(ctx, s.ID, "owner")
	require.NoError(t, err)
	upd := last[core.SessionUpdatedPayload](t, alice, core.TypeSessionUpdated)
	assert.Empty(t, upd.Session.Participants)
	assert.Empty(t, h.o.RoomList())
	assert.Contains(t, h.sink.types(), app.EventSessionEnded)
}

func TestBanParticipant_TellsEveryone(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	bob := h.connect(t, s.ID, "bob", domain.JoinDirect)

	_, err := h.o.BanParticipant(ctx, s.ID, "owner", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, "bob", last[core.ParticipantLeftPayload](t, alice, core.TypeParticipantLeft).Participant)
	assert.EqualValues(t, "bob", last[core.ParticipantLeftPayload](t, bob, core.TypeParticipantLeft).Participant)
}

func TestBanDevice(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	h.connect(t, s.ID, "bob", domain.JoinDirect)

	got, err := h.o.BanDevice(ctx, s.ID, "owner", "dev-bob")
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{"alice"}, got.ParticipantIDs())
	assert.Len(t, alice.ofType(t, core.TypeParticipantLeft), 1)
	assert.Contains(t, h.sink.types(), app.EventDeviceBanned)
}

func TestChat_WhisperReachesPairOnly(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	bob := h.connect(t, s.ID, "bob", domain.JoinDirect)
	carol := h.connect(t, s.ID, "carol", domain.JoinDirect)

	to := domain.ParticipantID("bob")
	_, err := h.o.Chat(ctx, s.ID, "alice", "psst", &to)
	require.NoError(t, err)
	assert.Len(t, alice.ofType(t, core.TypeTextMessageReceived), 1)
	assert.Equal(t, "psst", last[core.TextMessageReceivedPayload](t, bob, core.TypeTextMessageReceived).Message.Content)
	assert.Empty(t, carol.ofType(t, core.TypeTextMessageReceived))

	_, err = h.o.Chat(ctx, s.ID, "alice", "all", nil)
	require.NoError(t, err)
	assert.Len(t, carol.ofType(t, core.TypeTextMessageReceived), 1)
}

func TestUpdateConfig_BroadcastsSession(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	rec := true

	_, err := h.o.UpdateConfig(ctx, s.ID, "alice", domain.ConfigPatch{Recording: &rec})
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	_, err = h.o.UpdateConfig(ctx, s.ID, "owner", domain.ConfigPatch{Recording: &rec})
	require.NoError(t, err)
	assert.True(t, last[core.SessionUpdatedPayload](t, alice, core.TypeSessionUpdated).Session.Config.Recording)
}

func TestAuthorizeModerator(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)

	_, err := h.o.AuthorizeModerator(ctx, s.ID, "owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, last[core.SessionUpdatedPayload](t, alice, core.TypeSessionUpdated).Session.Moderators, domain.ParticipantID("alice"))
}

func TestCustomCommandEchoes(t *testing.T) {
	h := newHarness(t, nil)
	sig := h.attach("alice")
	h.o.CustomCommand(connID("alice"), core.CustomCommandPayload{Command: "reboot", Payload: []byte{1, 2}})
	resp := last[core.CustomResponsePayload](t, sig, core.TypeCustomResponse)
	assert.Equal(t, "reboot", resp.Command)
	assert.Equal(t, []byte{1, 2}, resp.Payload)
}

func TestRequestUpgrade(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	h.connect(t, s.ID, "alice", domain.JoinDirect)

	target, err := h.o.RequestUpgrade(ctx, domain.UpgradeRequest{Device: "dev-alice", Type: domain.UpgradeSoftware})
	require.NoError(t, err)
	assert.EqualValues(t, "alice", target.Participant)
	assert.Contains(t, h.sink.types(), app.EventDeviceUpgrade)
}

type failingSink struct{}

func (failingSink) Publish(context.Context, app.Event) error { return errors.New("down") }

func TestEventFailureDoesNotUndoState(t *testing.T) {
	conf := app.NewConference(app.NewSessionRegistry(nil))
	relay := app.NewRelay(app.NewRegistry(), app.NewRoomManager(), nil)
	o := New(conf, relay, failingSink{}, nil, nil)

	s, err := o.CreateSession(ctx, "owner", domain.DefaultSessionConfig())
	require.NoError(t, err)
	_, err = conf.Session(s.ID)
	assert.NoError(t, err)
}

func TestBan_RemovesFromSessionRoom(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	alice := h.connect(t, s.ID, "alice", domain.JoinDirect)
	bob := h.connect(t, s.ID, "bob", domain.JoinDirect)
	room := domain.RoomID(s.ID)
	require.NoError(t, h.o.JoinRoom(connID("alice"), "", core.JoinPayload{Room: room}))
	require.NoError(t, h.o.JoinRoom(connID("bob"), "", core.JoinPayload{Room: room}))
	alice.reset()

	_, err := h.o.BanParticipant(ctx, s.ID, "owner", "bob")
	require.NoError(t, err)

	assert.Equal(t, []core.RoomInfo{{ID: room, MemberCount: 1}}, h.o.RoomList())
	assert.EqualValues(t, "bob", last[core.LeavePayload](t, alice, core.TypeLeave).Participant)
	_, inRoom := h.o.Registry.RoomOf(connID("bob"))
	assert.False(t, inRoom)

	require.NoError(t, h.o.Subtitle(connID("bob"), core.SubtitlePayload{Text: "still here?"}))
	require.NoError(t, h.o.Offer(connID("bob"), core.SDPPayload{Receiver: "alice", SDP: "v=0"}))
	assert.Empty(t, alice.ofType(t, core.TypeSubtitle))
	assert.Empty(t, alice.ofType(t, core.TypeOffer))
	assert.Len(t, bob.ofType(t, core.TypeParticipantLeft), 1)
}

func TestBanDevice_RemovesFromSessionRoom(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, nil)
	h.connect(t, s.ID, "alice", domain.JoinDirect)
	h.connect(t, s.ID, "bob", domain.JoinDirect)
	room := domain.RoomID(s.ID)
	require.NoError(t, h.o.JoinRoom(connID("alice"), "", core.JoinPayload{Room: room}))
	require.NoError(t, h.o.JoinRoom(connID("bob"), "", core.JoinPayload{Room: room}))

	_, err := h.o.BanDevice(ctx, s.ID, "owner", "dev-bob")
	require.NoError(t, err)
	assert.Equal(t, []core.RoomInfo{{ID: room, MemberCount: 1}}, h.o.RoomList())
}

func TestConnect_FailedAdmissionReleasesBinding(t *testing.T) {
	h := newHarness(t, nil)
	s := h.session(t, func(c *domain.SessionConfig) { c.MaxParticipants = 1 })
	h.connect(t, s.ID, "owner", domain.JoinDirect)
	sig := h.attach("guest")

	err := h.o.Connect(ctx, connID("guest"), "", core.ConnectPayload{SessionID: s.ID, ParticipantID: "first", Device: domain.DeviceInfo{ID: "dev-guest", Type: domain.DeviceMobile}})
	assert.Equal(t, domain.KindSessionFull, domain.KindOf(err))
	_, _, bound := h.o.Registry.Binding(connID("guest"))
	assert.False(t, bound)

	other := h.session(t, nil)
	require.NoError(t, h.o.Connect(ctx, connID("guest"), "", core.ConnectPayload{SessionID: other.ID, ParticipantID: "second", Device: domain.DeviceInfo{ID: "dev-guest", Type: domain.DeviceMobile}}))
	assert.EqualValues(t, "second", last[core.ConnectedPayload](t, sig, core.TypeConnected).Participant)
}

// deadlineSink records whether each publication carried a deadline.
type deadlineSink struct{ deadlines []bool }

func (s *deadlineSink) Publish(ctx context.Context, _ app.Event) error {
	_, ok := ctx.Deadline()
	s.deadlines = append(s.deadlines, ok)
	return nil
}

func TestPublish_IsBounded(t *testing.T) {
	sink := &deadlineSink{}
	conf := app.NewConference(app.NewSessionRegistry(nil))
	relay := app.NewRelay(app.NewRegistry(), app.NewRoomManager(), nil)
	o := New(conf, relay, sink, nil, nil)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := o.CreateSession(cctx, "owner", domain.DefaultSessionConfig())
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, sink.deadlines)
}
