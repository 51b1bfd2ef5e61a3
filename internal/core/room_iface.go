package core

import (
	"github.com/dkeye/Conference/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []Member
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	Conn        ConnID               `json:"-"`
	Participant domain.ParticipantID `json:"participant"`
	DisplayName string               `json:"display_name"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []MemberDTO
	Lookup(pid domain.ParticipantID) (Member, bool)

	// AddMember reports false when the connection is already a member.
	AddMember(m Member) bool
	RemoveMember(conn ConnID) (Member, bool)
	Broadcast(from ConnID, data Frame) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}
