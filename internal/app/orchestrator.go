package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// Orchestrator is the single entry point for room-mutating operations.
// It resolves rooms through the registry pair and applies the
// backpressure policy to broadcast results. Privileged operations fail
// closed and silent: a non-facilitator request is a no-op, never an
// error surfaced to the caller.
type Orchestrator struct {
	Registry *Registry
	Rooms    *Rooms
	Policy   Policy

	// LockAfterReveal rejects estimate changes while cards are face up.
	// Off by default: clients disable the control themselves.
	LockAfterReveal bool
}

// CreateRoom opens a fresh room with the caller as sole participant and
// facilitator. A caller already in a room leaves it first.
func (o *Orchestrator) CreateRoom(sid core.SessionID, name string) (*core.Room, bool) {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return nil, false
	}
	o.Leave(sid)

	room := o.Rooms.Create()
	res, _ := room.Join(sid, name, conn) // a fresh room is never closed
	o.Registry.SetRoom(sid, room.ID())
	o.applyBackpressure(room.ID(), res)
	return room, true
}

// Join adds the caller to an existing room. On an unknown room id the
// caller's current membership is left untouched. The room may close
// between the lookup and the join (last member leaving, reaper sweep);
// a closed room rejects the join, so the caller gets the same not-found
// answer instead of membership in a room nobody can reach.
func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID, name string) (*core.Room, bool) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return nil, false
	}
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return nil, false
	}
	o.Leave(sid)

	res, ok := room.Join(sid, name, conn)
	if !ok {
		return nil, false
	}
	o.Registry.SetRoom(sid, roomID)
	o.applyBackpressure(roomID, res)
	return room, true
}

// Leave removes the caller from their current room, transferring the
// facilitator role when needed. A room left empty is deleted on the
// spot; nobody remains to notify.
func (o *Orchestrator) Leave(sid core.SessionID) {
	roomID, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Registry.ClearRoom(sid)
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, empty := room.Leave(sid)
	if empty {
		o.Rooms.Delete(roomID)
		return
	}
	o.applyBackpressure(roomID, res)
}

// OnDisconnect is the transport's disconnect hook: leave, then forget
// the connection.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Registry.Unbind(sid)
}

// SubmitEstimate records the caller's card. Fire-and-forget: unknown
// rooms and non-members are dropped silently.
func (o *Orchestrator) SubmitEstimate(sid core.SessionID, roomID domain.RoomID, card domain.Card) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, ok := room.SubmitEstimate(sid, card, o.LockAfterReveal)
	if ok {
		o.applyBackpressure(roomID, res)
	}
}

// Reveal turns estimates face up. Facilitator-gated.
func (o *Orchestrator) Reveal(sid core.SessionID, roomID domain.RoomID) {
	o.setRevealed(sid, roomID, true)
}

// Hide turns estimates face down again. Facilitator-gated.
func (o *Orchestrator) Hide(sid core.SessionID, roomID domain.RoomID) {
	o.setRevealed(sid, roomID, false)
}

func (o *Orchestrator) setRevealed(sid core.SessionID, roomID domain.RoomID, revealed bool) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, ok := room.SetRevealed(sid, revealed)
	if ok {
		o.applyBackpressure(roomID, res)
	}
}

// Reset clears all estimates and hides cards. Facilitator-gated.
func (o *Orchestrator) Reset(sid core.SessionID, roomID domain.RoomID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, ok := room.Reset(sid)
	if ok {
		o.applyBackpressure(roomID, res)
	}
}

// ChangeFacilitator hands the role to target. Facilitator-gated; an
// unknown target is rejected the same silent way.
func (o *Orchestrator) ChangeFacilitator(sid core.SessionID, roomID domain.RoomID, target core.SessionID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	res, ok := room.TransferFacilitator(sid, target)
	if ok {
		o.applyBackpressure(roomID, res)
	}
}

// ReapIfIdle destroys the room when it has seen no activity for longer
// than threshold: members are notified, detached and the room deleted.
// Only the reaper destroys non-empty rooms this way.
func (o *Orchestrator) ReapIfIdle(room *core.Room, threshold time.Duration, now time.Time) bool {
	evicted, ok := room.ReapIfIdle(threshold, now)
	if !ok {
		return false
	}
	for _, sid := range evicted {
		o.Registry.ClearRoom(sid)
	}
	o.Rooms.Delete(room.ID())
	return true
}

func (o *Orchestrator) applyBackpressure(roomID domain.RoomID, res core.BroadcastResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(roomID, slow) {
		case KickMember:
			log.Warn().Str("module", "app.orchestrator").Str("room", string(roomID)).Str("sid", string(slow)).Msg("kicking slow member")
			o.Leave(slow)
			o.Registry.Cancel(slow)
		case DropFrame, NoAction:
		}
	}
}
