package app

import (
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a room member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, member core.MemberSession) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomName, core.MemberSession) BackpressureAction {
	return KickMember
}
