package core

import "github.com/dkeye/Rendezvous/internal/domain"

// AuditSink accepts audit records. It is write-only from the core's side
// and must not block the caller for long.
type AuditSink interface {
	Emit(domain.AuditRecord)
}

// AuditFunc adapts a plain function to AuditSink.
type AuditFunc func(domain.AuditRecord)

func (f AuditFunc) Emit(r domain.AuditRecord) { f(r) }
