package core

import (
	"github.com/dkeye/Poker/internal/domain"
)

// Server→room event names. These and the payload shapes below are part of
// the room core's wire contract; the adapter only frames client→server
// messages. Broadcasts carry state, acks only confirm: a joining member
// receives the user-joined broadcast before their join ack, since the
// broadcast happens inside the join itself.
const (
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventEstimateSubmitted  = "estimate-submitted"
	EventEstimatesRevealed  = "estimates-revealed"
	EventFacilitatorChanged = "facilitator-changed"
	EventRoomDestroyed      = "room-destroyed"
)

// participantsEvent carries the full participant list; sent on every
// membership or estimate change.
type participantsEvent struct {
	Type         string               `json:"type"`
	Room         domain.RoomID        `json:"room"`
	Participants []domain.Participant `json:"participants"`
}

type revealedEvent struct {
	Type     string        `json:"type"`
	Room     domain.RoomID `json:"room"`
	Revealed bool          `json:"revealed"`
}

type facilitatorEvent struct {
	Type        string        `json:"type"`
	Room        domain.RoomID `json:"room"`
	Facilitator string        `json:"facilitator"`
}

type destroyedEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}
