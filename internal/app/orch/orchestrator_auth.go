package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// joinRetries bounds lookup restarts when a room appears or vanishes
// under a join in flight.
const joinRetries = 3

type JoinResult struct {
	Room        domain.RoomName
	IsNewRoom   bool
	MemberCount int
	// Ready lists the members told that the call can start. It is set
	// only on the join that fills the room.
	Ready []domain.ConnID
}

// Join runs the join handshake for sid: rate check, validation, then either
// room creation or password verification. Successful joins are reported
// through Notify before the member is bound to the room.
func (o *Orchestrator) Join(ctx context.Context, sid domain.ConnID, room domain.RoomName, password string) (JoinResult, error) {
	addr := o.Registry.Addr(sid)
	logger := log.With().Str("module", "orch.auth").Str("sid", string(sid)).Str("addr", addr).Str("room", string(room)).Logger()

	if o.Limiter != nil {
		// The slot counts toward the limit until this attempt is decided.
		if !o.Limiter.Acquire(addr) {
			logger.Warn().Msg("join blocked by rate limit")
			o.audit(domain.EventRateLimitBlock, sid, room)
			return JoinResult{}, domain.ErrRateLimited
		}
		defer o.Limiter.Release(addr)
	}
	if room == "" || password == "" {
		return JoinResult{}, domain.ErrMissingFields
	}
	if o.Registry.InRoom(sid, room) {
		info, _ := o.Rooms.Lookup(room)
		res := JoinResult{Room: room, MemberCount: info.MemberCount}
		o.notifyJoined(sid, res)
		return res, nil
	}

	for range joinRetries {
		info, ok := o.Rooms.Lookup(room)
		if !ok || info.MemberCount == 0 {
			res := JoinResult{Room: room, IsNewRoom: true, MemberCount: 1}
			created, err := o.Rooms.CreateWithFirstMember(ctx, room, password, sid, func() bool {
				o.notifyJoined(sid, res)
				return o.Registry.AddRoom(sid, room)
			})
			if err != nil {
				o.Registry.RemoveRoom(sid, room)
				logger.Error().Err(err).Msg("create room")
				return JoinResult{}, err
			}
			if !created {
				logger.Debug().Msg("lost creation race, verifying instead")
				continue
			}
			logger.Info().Msg("joined new room")
			o.audit(domain.EventJoin, sid, room)
			return res, nil
		}

		if info.Full() {
			logger.Warn().Msg("room full")
			return JoinResult{}, domain.ErrRoomFull
		}

		n, err := o.Rooms.VerifyAndAddMember(ctx, room, password, sid)
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			continue
		case errors.Is(err, domain.ErrWrongPassword):
			failures := 0
			if o.Limiter != nil {
				failures = o.Limiter.RecordFailure(addr)
			}
			logger.Warn().Int("failures", failures).Msg("wrong password")
			o.audit(domain.EventPasswordFail, sid, room)
			return JoinResult{}, err
		case err != nil:
			logger.Warn().Err(err).Msg("verify failed")
			return JoinResult{}, err
		}

		res := JoinResult{Room: room, MemberCount: n}
		o.notifyJoined(sid, res)
		if !o.bindRoom(sid, room) {
			return JoinResult{}, domain.ErrRoomBusy
		}
		logger.Info().Int("members", n).Msg("joined existing room")
		o.audit(domain.EventJoin, sid, room)

		if n == domain.MaxMembers {
			for _, m := range o.Rooms.Members(room) {
				if m != sid && o.Registry.InRoom(m, room) {
					res.Ready = append(res.Ready, m)
				}
			}
			o.audit(domain.EventCallStart, sid, room)
			for _, m := range res.Ready {
				o.notifyReady(m, room)
			}
		}
		return res, nil
	}
	logger.Warn().Msg("join gave up after retries")
	return JoinResult{}, domain.ErrRoomBusy
}

// bindRoom records the membership on the connection side. If the connection
// is already gone the directory insert is undone.
func (o *Orchestrator) bindRoom(sid domain.ConnID, room domain.RoomName) bool {
	if o.Registry.AddRoom(sid, room) {
		return true
	}
	o.Rooms.RemoveMember(room, sid)
	return false
}
