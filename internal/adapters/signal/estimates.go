package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// Estimation messages are fire-and-forget: unknown rooms, non-members and
// non-facilitators are dropped without an error response.

func (ctl *Controller) handleSubmitEstimate(sid core.SessionID, data []byte) {
	type payload struct {
		Type  string `json:"type"`
		Room  string `json:"room"`
		Value string `json:"value"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad estimate payload")
		return
	}
	card := domain.Card(p.Value)
	if !card.Valid() {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("value", p.Value).Msg("card not in vocabulary")
		return
	}
	ctl.Orch.SubmitEstimate(sid, domain.RoomID(p.Room), card)
}

func (ctl *Controller) handleReveal(sid core.SessionID, data []byte) {
	if room, ok := roomRef(data); ok {
		ctl.Orch.Reveal(sid, room)
	}
}

func (ctl *Controller) handleHide(sid core.SessionID, data []byte) {
	if room, ok := roomRef(data); ok {
		ctl.Orch.Hide(sid, room)
	}
}

func (ctl *Controller) handleReset(sid core.SessionID, data []byte) {
	if room, ok := roomRef(data); ok {
		ctl.Orch.Reset(sid, room)
	}
}

func (ctl *Controller) handleChangeFacilitator(sid core.SessionID, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		Room   string `json:"room"`
		Target string `json:"target"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad facilitator payload")
		return
	}
	ctl.Orch.ChangeFacilitator(sid, domain.RoomID(p.Room), core.SessionID(p.Target))
}

func roomRef(data []byte) (domain.RoomID, bool) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Str("module", "signal").Msg("missing room reference")
		return "", false
	}
	return domain.RoomID(p.Room), true
}
