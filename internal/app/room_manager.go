package app

import (
	"slices"
	"strings"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/puzpuzpuz/xsync/v3"
)

// RoomManager keeps signaling rooms keyed by id. Every membership change
// goes through MapOf.Compute, so creation, the last removal and deletion of
// an empty room are atomic per room.
type RoomManager struct {
	rooms *xsync.MapOf[domain.RoomID, core.RoomService]
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: xsync.NewMapOf[domain.RoomID, core.RoomService]()}
}

// Join adds m to room id, creating the room on first use. onJoin runs while
// the room is held, with the members present before m arrived; it must not
// block. Join reports false when m's connection is already a member.
func (rm *RoomManager) Join(id domain.RoomID, m core.Member, onJoin func(room core.RoomService, existing []core.MemberDTO)) bool {
	added := false
	rm.rooms.Compute(id, func(room core.RoomService, loaded bool) (core.RoomService, bool) {
		if !loaded {
			room = core.NewRoomService(id)
		}
		existing := room.MembersSnapshot()
		if !room.AddMember(m) {
			return room, false
		}
		added = true
		if onJoin != nil {
			onJoin(room, existing)
		}
		return room, false
	})
	return added
}

// Leave removes conn from room id. onLeave runs while the room is held,
// after the removal; the room is dropped once it is empty.
func (rm *RoomManager) Leave(id domain.RoomID, conn core.ConnID, onLeave func(room core.RoomService, left core.Member)) bool {
	removed := false
	rm.rooms.Compute(id, func(room core.RoomService, loaded bool) (core.RoomService, bool) {
		if !loaded {
			return nil, true
		}
		left, ok := room.RemoveMember(conn)
		if ok {
			removed = true
			if onLeave != nil {
				onLeave(room, left)
			}
		}
		return room, room.MemberCount() == 0
	})
	return removed
}

func (rm *RoomManager) Get(id domain.RoomID) (core.RoomService, bool) {
	return rm.rooms.Load(id)
}

func (rm *RoomManager) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, rm.rooms.Size())
	rm.rooms.Range(func(id domain.RoomID, r core.RoomService) bool {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount()})
		return true
	})
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

func (rm *RoomManager) Count() int { return rm.rooms.Size() }
