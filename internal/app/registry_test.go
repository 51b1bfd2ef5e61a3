package app

import (
	"testing"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Bind(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", newRecSignal(), nil)
	reg.Register("c2", newRecSignal(), nil)

	require.NoError(t, reg.Bind("c1", "alice", "Alice"))
	require.NoError(t, reg.Bind("c1", "alice", ""))

	pid, name, ok := reg.Binding("c1")
	require.True(t, ok)
	assert.EqualValues(t, "alice", pid)
	assert.Equal(t, "Alice", name)

	err := reg.Bind("c1", "bob", "")
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	err = reg.Bind("c2", "alice", "")
	assert.Equal(t, domain.KindUnauthorizedAction, domain.KindOf(err))

	err = reg.Bind("missing", "carol", "")
	assert.Equal(t, domain.KindNetworkError, domain.KindOf(err))
}

func TestRegistry_BeginCloseOnce(t *testing.T) {
	reg := NewRegistry()
	canceled := 0
	reg.Register("c1", newRecSignal(), func() { canceled++ })
	require.NoError(t, reg.Bind("c1", "alice", ""))
	reg.UpdateRoom("c1", "room1")

	snap, ok := reg.BeginClose("c1")
	require.True(t, ok)
	assert.EqualValues(t, "alice", snap.Participant)
	assert.EqualValues(t, "room1", snap.Room)

	_, ok = reg.BeginClose("c1")
	assert.False(t, ok)

	_, ok = reg.Signal("c1")
	assert.False(t, ok)
	_, ok = reg.MemberOf("alice")
	assert.False(t, ok)
	err := reg.Bind("c1", "alice", "")
	assert.Equal(t, domain.KindNetworkError, domain.KindOf(err))

	assert.True(t, reg.Cancel("c1"))
	assert.Equal(t, 1, canceled)

	reg.Unbind("c1")
	assert.Equal(t, 0, reg.Count())
	assert.False(t, reg.Cancel("c1"))
}

func TestRegistry_UnbindFreesParticipant(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", newRecSignal(), nil)
	require.NoError(t, reg.Bind("c1", "alice", ""))
	reg.Unbind("c1")

	reg.Register("c2", newRecSignal(), nil)
	require.NoError(t, reg.Bind("c2", "alice", ""))
	m, ok := reg.MemberOf("alice")
	require.True(t, ok)
	assert.EqualValues(t, "c2", m.Conn())
}

func TestRegistry_Rooms(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", newRecSignal(), nil)

	_, ok := reg.RoomOf("c1")
	assert.False(t, ok)
	assert.True(t, reg.UpdateRoom("c1", "r"))
	room, ok := reg.RoomOf("c1")
	assert.True(t, ok)
	assert.EqualValues(t, "r", room)
	reg.RemoveRoom("c1")
	_, ok = reg.RoomOf("c1")
	assert.False(t, ok)
	assert.False(t, reg.UpdateRoom("nope", "r"))
}

func TestRegistry_Release(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", newRecSignal(), nil)
	require.NoError(t, reg.Bind("c1", "alice", "Alice"))

	reg.Release("c1")
	_, _, ok := reg.Binding("c1")
	assert.False(t, ok)
	_, ok = reg.MemberOf("alice")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Count())

	require.NoError(t, reg.Bind("c1", "bob", ""))
	reg.Release("missing")
}
