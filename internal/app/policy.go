package app

import (
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer stayed full
// during a room broadcast.
type Policy interface {
	OnBackpressure(room domain.RoomID, sid core.SessionID) BackpressureAction
}

// KickSlowPolicy removes members that cannot keep up. A participant that
// misses a state broadcast would otherwise render a stale room forever.
type KickSlowPolicy struct{}

func (KickSlowPolicy) OnBackpressure(domain.RoomID, core.SessionID) BackpressureAction {
	return KickMember
}
