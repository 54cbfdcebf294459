package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

type joinedResp struct {
	Type      string          `json:"type"`
	RoomName  domain.RoomName `json:"roomName"`
	IsNewRoom bool            `json:"isNewRoom"`
}

type authErrorResp struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	sid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type     string `json:"type"`
		RoomName string `json:"roomName"`
		Password string `json:"password"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, authErrorResp{Type: "auth-error", Message: domain.ErrMissingFields.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.opts.JoinTimeout)
	defer cancel()

	room := domain.RoomName(p.RoomName)
	res, err := ctl.Orch.Join(ctx, sid, room, p.Password)
	if err != nil {
		ctl.sendJSON(conn, authErrorResp{Type: "auth-error", Message: domain.ClientMessage(err)})
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Int("members", res.MemberCount).Msg("join done")
}

// Joined queues the joined reply for sid. The controller is the
// orchestrator's Notifier.
func (ctl *SignalWSController) Joined(sid domain.ConnID, res orch.JoinResult) {
	ctl.sendTo(sid, joinedResp{Type: "joined", RoomName: res.Room, IsNewRoom: res.IsNewRoom})
}

func (ctl *SignalWSController) Ready(sid domain.ConnID, room domain.RoomName) {
	ctl.sendTo(sid, map[string]string{"type": "ready"})
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("ready sent")
}

func (ctl *SignalWSController) sendTo(sid domain.ConnID, v any) {
	f, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendTo marshal")
		return
	}
	if err := ctl.Orch.Send(sid, f); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("not delivered")
	}
}

// handleLeave: выход из комнаты, соединение при этом не рвётся.
func (ctl *SignalWSController) handleLeave(
	sid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("leave")
	if !ctl.Orch.Leave(sid, domain.RoomName(p.Room)) {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "not in room",
		})
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
		"room": p.Room,
	})
}
