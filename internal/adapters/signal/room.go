package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

func (ctl *Controller) handleCreateRoom(
	sid core.SessionID,
	conn *Conn,
	data []byte,
) {
	type payload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}
	if !domain.ValidName(p.Name) {
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "invalid_name"})
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("create rate limited")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "rate_limited"})
		return
	}

	room, ok := ctl.Orch.CreateRoom(sid, p.Name)
	if !ok {
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "not_connected"})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room.ID())).Msg("room created")

	resp := struct {
		Type         string               `json:"type"`
		Room         domain.RoomID        `json:"room"`
		Participants []domain.Participant `json:"participants"`
	}{
		Type:         "room-created",
		Room:         room.ID(),
		Participants: room.Snapshot(),
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) handleJoinRoom(
	sid core.SessionID,
	conn *Conn,
	data []byte,
) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}
	if !domain.ValidName(p.Name) {
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "invalid_name"})
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendJSON(conn, map[string]any{"type": "error", "error": "rate_limited"})
		return
	}

	room, ok := ctl.Orch.Join(sid, domain.RoomID(p.Room), p.Name)
	if !ok {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join failed, no such room")
		ctl.sendJSON(conn, map[string]any{"type": "join-result", "ok": false})
		return
	}

	resp := struct {
		Type         string               `json:"type"`
		OK           bool                 `json:"ok"`
		Room         domain.RoomID        `json:"room"`
		Participants []domain.Participant `json:"participants"`
	}{
		Type:         "join-result",
		OK:           true,
		Room:         room.ID(),
		Participants: room.Snapshot(),
	}
	ctl.sendJSON(conn, resp)
}

// handleLeave leaves the current room without dropping the socket.
func (ctl *Controller) handleLeave(sid core.SessionID, conn *Conn) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
	ctl.sendJSON(conn, map[string]any{"type": "left"})
}
