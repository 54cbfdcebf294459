package orch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
)

type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, plaintext string) (core.Digest, error) {
	return core.Digest("h:" + plaintext), nil
}

func (plainHasher) Verify(_ context.Context, plaintext string, digest core.Digest) (bool, error) {
	return core.Digest("h:"+plaintext) == digest, nil
}

var errFull = errors.New("send buffer full")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full || c.closed {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type recordingAudit struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (a *recordingAudit) Emit(r domain.AuditRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
}

func (a *recordingAudit) Kinds() []domain.EventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.EventKind, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.Kind)
	}
	return out
}

func (a *recordingAudit) Count(kind domain.EventKind) int {
	n := 0
	for _, k := range a.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// recordingNotifier keeps joined and ready notices in delivery order.
// hold, when set, runs inside Joined before the notice is recorded.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	hold   func(sid domain.ConnID)
}

func (n *recordingNotifier) Joined(sid domain.ConnID, res JoinResult) {
	if n.hold != nil {
		n.hold(sid)
	}
	n.add("joined " + string(sid))
}

func (n *recordingNotifier) Ready(sid domain.ConnID, _ domain.RoomName) {
	n.add("ready " + string(sid))
}

func (n *recordingNotifier) add(e string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type harness struct {
	orch    *Orchestrator
	limiter *app.AttemptLimiter
	audit   *recordingAudit
	notes   *recordingNotifier
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, plainHasher{})
}

func newHarnessWith(t *testing.T, hasher core.Hasher) *harness {
	t.Helper()
	h := &harness{
		audit: &recordingAudit{},
		notes: &recordingNotifier{},
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	h.limiter = app.NewAttemptLimiter(5, time.Minute).WithClock(func() time.Time { return h.now })
	h.orch = &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomDirectory(hasher),
		Limiter:  h.limiter,
		Policy:   app.SimplePolicy{},
		Audit:    h.audit,
		Notify:   h.notes,
		Now:      func() time.Time { return h.now },
	}
	return h
}

func (h *harness) connect(addr string) (domain.ConnID, *fakeConn) {
	peer := domain.NewPeer(addr)
	conn := &fakeConn{}
	h.orch.OnConnect(core.NewMemberSession(peer, conn), func() {})
	return peer.ID, conn
}

func (h *harness) disconnect(sid domain.ConnID) {
	h.orch.OnDisconnecting(sid)
	h.orch.OnDisconnect(sid)
}
