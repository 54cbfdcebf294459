package orch

import (
	"context"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// OnConnect registers a new connection. cancel is invoked when the
// connection is kicked by policy.
func (o *Orchestrator) OnConnect(sess core.MemberSession, cancel context.CancelFunc) {
	sid := sess.Peer().ID
	o.Registry.Bind(sid, sess, cancel)
	log.Info().Str("module", "orch.lifecycle").Str("sid", string(sid)).Str("addr", sess.Peer().Addr).Msg("connected")
	o.audit(domain.EventConnect, sid, "")
}

// OnDisconnecting runs while sid is still a member of its rooms. It ends
// calls and forgets room secrets before the membership is dropped.
func (o *Orchestrator) OnDisconnecting(sid domain.ConnID) {
	for _, room := range o.Registry.RoomsOf(sid) {
		o.leaveRoom(sid, room)
	}
}

// OnDisconnect runs once the connection is fully gone.
func (o *Orchestrator) OnDisconnect(sid domain.ConnID) {
	log.Info().Str("module", "orch.lifecycle").Str("sid", string(sid)).Msg("disconnected")
	o.audit(domain.EventDisconnect, sid, "")
	o.Registry.Unbind(sid)
}

// Leave takes sid out of room without closing the connection.
func (o *Orchestrator) Leave(sid domain.ConnID, room domain.RoomName) bool {
	if !o.Registry.InRoom(sid, room) {
		return false
	}
	o.leaveRoom(sid, room)
	return true
}

// Kick closes the transport of a member; the normal disconnect path
// then cleans up its rooms.
func (o *Orchestrator) Kick(sess core.MemberSession) {
	sid := sess.Peer().ID
	log.Warn().Str("module", "orch.lifecycle").Str("sid", string(sid)).Msg("kicking member")
	sess.Signal().Close()
	o.Registry.Cancel(sid)
}

func (o *Orchestrator) leaveRoom(sid domain.ConnID, room domain.RoomName) {
	before := o.Rooms.Leave(room, sid)
	o.Registry.RemoveRoom(sid, room)
	logger := log.With().Str("module", "orch.lifecycle").Str("sid", string(sid)).Str("room", string(room)).Int("members", before).Logger()

	switch before {
	case domain.MaxMembers:
		o.audit(domain.EventCallEnd, sid, room)
		logger.Info().Msg("call ended")
	case 1:
		logger.Info().Msg("room secret forgotten")
	}
	logger.Info().Msg("left room")
}
