package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards the signal payload as-is. Failures are never
// reported to the sender.
func (ctl *SignalWSController) handleRelay(sid domain.ConnID, data []byte) {
	var p struct {
		Room   string          `json:"room"`
		Signal json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		return
	}

	frame, err := encode(struct {
		Type   string          `json:"type"`
		Signal json.RawMessage `json:"signal"`
	}{Type: "signal", Signal: p.Signal})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode signal")
		return
	}

	if _, err := ctl.Orch.Relay(sid, domain.RoomName(p.Room), frame); err != nil && !errors.Is(err, domain.ErrNotMember) {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("relay")
	}
}
