package app

import (
	"fmt"
	"testing"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id string) core.Member {
	return core.NewMember(core.ConnID("conn-"+id), domain.ParticipantID(id), id, newRecSignal())
}

func TestRoomManager_JoinLeave(t *testing.T) {
	rm := NewRoomManager()
	a, b := member("a"), member("b")

	var seen []core.MemberDTO
	require.True(t, rm.Join("r", a, nil))
	require.True(t, rm.Join("r", b, func(_ core.RoomService, existing []core.MemberDTO) { seen = existing }))
	require.Len(t, seen, 1)
	assert.EqualValues(t, "a", seen[0].Participant)

	assert.False(t, rm.Join("r", a, func(core.RoomService, []core.MemberDTO) { t.Fatal("callback on duplicate join") }))
	assert.Equal(t, []core.RoomInfo{{ID: "r", MemberCount: 2}}, rm.List())

	var left core.Member
	assert.True(t, rm.Leave("r", a.Conn(), func(_ core.RoomService, m core.Member) { left = m }))
	assert.Equal(t, a.Conn(), left.Conn())
	assert.False(t, rm.Leave("r", a.Conn(), nil))

	assert.True(t, rm.Leave("r", b.Conn(), nil))
	_, ok := rm.Get("r")
	assert.False(t, ok)
	assert.False(t, rm.Leave("missing", b.Conn(), nil))
	assert.Equal(t, 0, rm.Count())
}

func TestRoomManager_ConcurrentJoinsSeeEachOtherOnce(t *testing.T) {
	rm := NewRoomManager()
	const n = 20
	var wg conc.WaitGroup
	counts := make([]int, n)
	for i := range n {
		wg.Go(func() {
			m := member(fmt.Sprintf("p%02d", i))
			rm.Join("r", m, func(_ core.RoomService, existing []core.MemberDTO) { counts[i] = len(existing) })
		})
	}
	wg.Wait()

	rs, ok := rm.Get("r")
	require.True(t, ok)
	assert.Equal(t, n, rs.MemberCount())

	// each newcomer saw a distinct number of predecessors
	seen := map[int]bool{}
	for _, c := range counts {
		assert.False(t, seen[c])
		seen[c] = true
	}
}

func TestRoomManager_ListSorted(t *testing.T) {
	rm := NewRoomManager()
	rm.Join("b", member("x"), nil)
	rm.Join("a", member("y"), nil)
	list := rm.List()
	require.Len(t, list, 2)
	assert.EqualValues(t, "a", list[0].ID)
	assert.EqualValues(t, "b", list[1].ID)
}
