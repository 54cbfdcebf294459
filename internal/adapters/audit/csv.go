// Package audit provides core.AuditSink implementations.
package audit

import (
	"encoding/csv"
	"io"
	"os"
	"sync"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// CSVSink appends one CSV row per record to w.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

var _ core.AuditSink = (*CSVSink)(nil)

func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenCSVFile opens path in append mode.
func OpenCSVFile(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}
	return NewCSVSink(f), nil
}

func (s *CSVSink) Emit(r domain.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Write(r.Row()); err != nil {
		log.Error().Err(err).Str("module", "audit").Msg("write record")
		return
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		log.Error().Err(err).Str("module", "audit").Msg("flush record")
	}
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
