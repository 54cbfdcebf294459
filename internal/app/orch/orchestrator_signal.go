package orch

import (
	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay forwards an already framed signal from sid to the other members of
// room. The frame is never inspected. A sender that is not in room gets
// ErrNotMember and nothing is delivered; callers must not report it back.
func (o *Orchestrator) Relay(sid domain.ConnID, room domain.RoomName, data core.Frame) (core.PublishResult, error) {
	if !o.Registry.InRoom(sid, room) {
		log.Warn().
			Str("module", "audit").
			Str("sid", string(sid)).
			Str("addr", o.Registry.Addr(sid)).
			Str("room", string(room)).
			Msg("signal from non-member dropped")
		return core.PublishResult{}, domain.ErrNotMember
	}

	res := core.PublishResult{}
	for _, mate := range o.RoomMates(sid, room) {
		if err := mate.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, mate)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "orch.signal").Str("from", string(sid)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("relay result")

	if o.Policy == nil {
		return res, nil
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			o.Kick(slow)
		case app.DropFrame, app.NoAction:
		}
	}
	return res, nil
}

// Send delivers a frame to a single connection, e.g. a ready notice.
func (o *Orchestrator) Send(sid domain.ConnID, data core.Frame) error {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return domain.ErrNoSession
	}
	return sess.Signal().TrySend(data)
}
