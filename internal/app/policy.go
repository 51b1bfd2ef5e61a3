package app

import (
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue is full.
// room is empty for session-wide deliveries.
type Policy interface {
	OnBackPressure(room domain.RoomID, member core.Member) BackpressureAction
}

// SimplePolicy kicks slow members; their connection closes and the normal
// disconnect cleanup runs.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.Member) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members and loses the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomID, core.Member) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) Policy {
	if name == "drop" {
		return DropPolicy{}
	}
	return SimplePolicy{}
}
