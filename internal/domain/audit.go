package domain

import (
	"time"
)

type EventKind string

const (
	EventConnect        EventKind = "CONNECT"
	EventJoin           EventKind = "JOIN"
	EventPasswordFail   EventKind = "PASSWORD_FAIL"
	EventRateLimitBlock EventKind = "RATE_LIMIT_BLOCK"
	EventCallStart      EventKind = "CALL_START"
	EventCallEnd        EventKind = "CALL_END"
	EventDisconnect     EventKind = "DISCONNECT"
)

// AuditRecord is one line of the audit trail.
type AuditRecord struct {
	Time   time.Time
	Kind   EventKind
	ConnID ConnID
	Addr   string
	Room   RoomName
}

// Row renders the record in column order:
// timestamp, eventKind, connectionId, address, roomName.
func (r AuditRecord) Row() []string {
	return []string{
		r.Time.UTC().Format(time.RFC3339Nano),
		string(r.Kind),
		string(r.ConnID),
		r.Addr,
		string(r.Room),
	}
}
