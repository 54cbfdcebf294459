package audit

import (
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog"
)

// LogSink writes records as structured zerolog events.
type LogSink struct {
	logger zerolog.Logger
}

var _ core.AuditSink = LogSink{}

func NewLogSink(logger zerolog.Logger) LogSink {
	return LogSink{logger: logger.With().Str("module", "audit").Logger()}
}

func (s LogSink) Emit(r domain.AuditRecord) {
	s.logger.Info().
		Time("ts", r.Time).
		Str("event", string(r.Kind)).
		Str("sid", string(r.ConnID)).
		Str("addr", r.Addr).
		Str("room", string(r.Room)).
		Msg("audit")
}

// Multi fans a record out to every sink.
type Multi []core.AuditSink

func (m Multi) Emit(r domain.AuditRecord) {
	for _, s := range m {
		s.Emit(r)
	}
}
