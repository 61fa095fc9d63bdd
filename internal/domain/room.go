// Package domain contains entities without logic, just meta-data.
package domain

import "github.com/google/uuid"

type RoomID string

// NewRoomID allocates a fresh unguessable room identifier.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}
