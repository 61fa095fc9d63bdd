package signal

import (
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

func (ctl *Controller) handlePing(conn *Conn) {
	ctl.sendJSON(conn, map[string]any{"type": "pong"})
}

func (ctl *Controller) handleWhoAmI(sid core.SessionID, conn *Conn) {
	resp := struct {
		Type string        `json:"type"`
		ID   string        `json:"id"`
		Room domain.RoomID `json:"room,omitempty"`
	}{
		Type: "whoami",
		ID:   string(sid),
	}
	if roomID, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = roomID
	}
	ctl.sendJSON(conn, resp)
}
