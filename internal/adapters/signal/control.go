package signal

import (
	"github.com/dkeye/Rendezvous/internal/domain"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(
	sid domain.ConnID,
	conn *WsSignalConn,
) {
	resp := struct {
		Type  string            `json:"type"`
		ID    domain.ConnID     `json:"id"`
		Rooms []domain.RoomName `json:"rooms"`
	}{
		Type:  "whoami",
		ID:    sid,
		Rooms: ctl.Orch.Registry.RoomsOf(sid),
	}
	if resp.Rooms == nil {
		resp.Rooms = []domain.RoomName{}
	}
	ctl.sendJSON(conn, resp)
}
