package orch

import (
	"time"

	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
)

// Orchestrator drives the room lifecycle: joins, signal relay and
// disconnect cleanup. It holds no transport resources of its own.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomDirectory
	Limiter  *app.AttemptLimiter
	Policy   app.Policy
	Audit    core.AuditSink
	Notify   Notifier
	Now      func() time.Time
}

// Notifier delivers join outcomes to clients. Joined is called before the
// member becomes visible to its room mates.
type Notifier interface {
	Joined(sid domain.ConnID, res JoinResult)
	Ready(sid domain.ConnID, room domain.RoomName)
}

func (o *Orchestrator) notifyJoined(sid domain.ConnID, res JoinResult) {
	if o.Notify != nil {
		o.Notify.Joined(sid, res)
	}
}

func (o *Orchestrator) notifyReady(sid domain.ConnID, room domain.RoomName) {
	if o.Notify != nil {
		o.Notify.Ready(sid, room)
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) audit(kind domain.EventKind, sid domain.ConnID, room domain.RoomName) {
	if o.Audit == nil {
		return
	}
	o.Audit.Emit(domain.AuditRecord{
		Time:   o.now(),
		Kind:   kind,
		ConnID: sid,
		Addr:   o.Registry.Addr(sid),
		Room:   room,
	})
}

// RoomMates returns the sessions sharing room with sid, sid excluded. A
// member counts only once its join has been bound to the connection.
func (o *Orchestrator) RoomMates(sid domain.ConnID, room domain.RoomName) []core.MemberSession {
	members := o.Rooms.Members(room)
	out := make([]core.MemberSession, 0, len(members))
	for _, m := range members {
		if m == sid || !o.Registry.InRoom(m, room) {
			continue
		}
		if sess, ok := o.Registry.GetSession(m); ok {
			out = append(out, sess)
		}
	}
	return out
}
