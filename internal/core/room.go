package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/domain"
)

// Room is a threadsafe in-memory estimation session. It owns the
// membership set, the facilitator role and the reveal flag, and fans
// events out to member connections while still holding its lock, so the
// broadcast order seen by members always matches the mutation order.
// It never closes adapter-owned connections.
type Room struct {
	id domain.RoomID

	mu           sync.RWMutex
	members      []*member // join order; members[0] is the oldest
	facilitator  SessionID
	revealed     bool
	lastActivity time.Time
	closed       bool // set when the last member leaves or the reaper fires
}

type member struct {
	sid  SessionID
	part *domain.Participant
	conn SignalConnection
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:           id,
		lastActivity: time.Now(),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// Join appends a participant with no estimate and announces the new
// membership list. The first participant to join becomes facilitator.
// A closed room rejects the join: a caller holding a stale pointer to a
// room already removed from the registry must not revive it.
func (r *Room) Join(sid SessionID, name string, conn SignalConnection) (BroadcastResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return BroadcastResult{}, false
	}
	part := &domain.Participant{ID: string(sid), Name: name}
	r.members = append(r.members, &member{sid: sid, part: part, conn: conn})
	if len(r.members) == 1 {
		r.facilitator = sid
	}
	r.lastActivity = time.Now()
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Msg("participant joined")
	return r.broadcast(participantsEvent{Type: EventUserJoined, Room: r.id, Participants: r.snapshotLocked()}), true
}

// Leave removes the participant. When the facilitator leaves and others
// remain, the role transfers to the oldest remaining participant and the
// role change is announced before the membership change. empty reports
// that the room has no participants left; the caller must delete it.
func (r *Room) Leave(sid SessionID) (res BroadcastResult, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(sid)
	if idx < 0 {
		return res, len(r.members) == 0
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.lastActivity = time.Now()

	if len(r.members) == 0 {
		r.closed = true
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Msg("last participant left")
		return res, true
	}
	if r.facilitator == sid {
		r.facilitator = r.members[0].sid
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("facilitator", string(r.facilitator)).Msg("facilitator handover")
		res.merge(r.broadcast(facilitatorEvent{Type: EventFacilitatorChanged, Room: r.id, Facilitator: string(r.facilitator)}))
	}
	res.merge(r.broadcast(participantsEvent{Type: EventUserLeft, Room: r.id, Participants: r.snapshotLocked()}))
	return res, false
}

// SubmitEstimate records a card for the participant. Re-submission
// overwrites the previous card. When lockAfterReveal is set, submissions
// while estimates are revealed are dropped.
func (r *Room) SubmitEstimate(sid SessionID, card domain.Card, lockAfterReveal bool) (BroadcastResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(sid)
	if idx < 0 {
		return BroadcastResult{}, false
	}
	if lockAfterReveal && r.revealed {
		return BroadcastResult{}, false
	}
	c := card
	r.members[idx].part.Estimate = &c
	r.lastActivity = time.Now()
	return r.broadcast(participantsEvent{Type: EventEstimateSubmitted, Room: r.id, Participants: r.snapshotLocked()}), true
}

// SetRevealed flips the reveal flag. Facilitator-gated: anyone else is
// silently ignored.
func (r *Room) SetRevealed(requester SessionID, revealed bool) (BroadcastResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.facilitator {
		return BroadcastResult{}, false
	}
	r.revealed = revealed
	r.lastActivity = time.Now()
	return r.broadcast(revealedEvent{Type: EventEstimatesRevealed, Room: r.id, Revealed: revealed}), true
}

// Reset clears every estimate and hides cards again. Facilitator-gated.
// Broadcasts the cleared list first, then the reveal flag, matching the
// order clients expect.
func (r *Room) Reset(requester SessionID) (res BroadcastResult, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.facilitator {
		return res, false
	}
	for _, m := range r.members {
		m.part.Estimate = nil
	}
	r.revealed = false
	r.lastActivity = time.Now()
	res.merge(r.broadcast(participantsEvent{Type: EventEstimateSubmitted, Room: r.id, Participants: r.snapshotLocked()}))
	res.merge(r.broadcast(revealedEvent{Type: EventEstimatesRevealed, Room: r.id, Revealed: false}))
	return res, true
}

// TransferFacilitator hands the role to target. Only the current
// facilitator may do this, and target must be a current member; an
// unknown target would leave a dangling role reference.
func (r *Room) TransferFacilitator(requester, target SessionID) (BroadcastResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.facilitator || r.indexOf(target) < 0 {
		return BroadcastResult{}, false
	}
	r.facilitator = target
	r.lastActivity = time.Now()
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("facilitator", string(target)).Msg("facilitator changed")
	return r.broadcast(facilitatorEvent{Type: EventFacilitatorChanged, Room: r.id, Facilitator: string(target)}), true
}

// Touch refreshes the activity timestamp.
func (r *Room) Touch() {
	r.mu.Lock()
	r.lastActivity = time.Now()
	r.mu.Unlock()
}

// ReapIfIdle destroys the room when it has been inactive longer than
// threshold: members get a room-destroyed notice and the membership set
// is cleared. The idle check and the destroy are one critical section,
// so a Touch ordered before the check always saves the room.
// Returns the evicted session ids.
func (r *Room) ReapIfIdle(threshold time.Duration, now time.Time) ([]SessionID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastActivity) <= threshold {
		return nil, false
	}
	r.broadcast(destroyedEvent{Type: EventRoomDestroyed, Room: r.id})
	evicted := make([]SessionID, 0, len(r.members))
	for _, m := range r.members {
		evicted = append(evicted, m.sid)
	}
	r.members = nil
	r.closed = true
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Int("evicted", len(evicted)).Msg("room reaped")
	return evicted, true
}

// Facilitator returns the current facilitator's session id.
func (r *Room) Facilitator() SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.facilitator
}

// Closed reports whether the room has been torn down and rejects joins.
func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Revealed reports whether estimates are currently visible.
func (r *Room) Revealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revealed
}

// ParticipantCount returns the number of members.
func (r *Room) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// LastActivity returns the last-activity timestamp.
func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

// Snapshot returns a read-only copy of the participant list in join order.
func (r *Room) Snapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.members))
	for _, m := range r.members {
		p := *m.part
		if m.part.Estimate != nil {
			c := *m.part.Estimate
			p.Estimate = &c
		}
		out = append(out, p)
	}
	return out
}

func (r *Room) indexOf(sid SessionID) int {
	for i, m := range r.members {
		if m.sid == sid {
			return i
		}
	}
	return -1
}

// broadcast fans an event out to every member. Non-blocking: members
// whose send buffers are full are reported in the result instead of
// stalling the room.
func (r *Room) broadcast(event any) BroadcastResult {
	res := BroadcastResult{}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.id)).Msg("event marshal")
		return res
	}
	for _, m := range r.members {
		if err := m.conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m.sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
