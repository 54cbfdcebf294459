package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_ConcurrentCreatorsOneWins(t *testing.T) {
	ctx := context.Background()

	for round := range 20 {
		h := newHarness(t)
		room := domain.RoomName(fmt.Sprintf("race-%d", round))

		const n = 4
		sids := make([]domain.ConnID, n)
		for i := range sids {
			sids[i], _ = h.connect(fmt.Sprintf("10.0.1.%d", i))
		}

		var wg sync.WaitGroup
		results := make([]JoinResult, n)
		errs := make([]error, n)
		start := make(chan struct{})
		for i, sid := range sids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				results[i], errs[i] = h.orch.Join(ctx, sid, room, "same")
			}()
		}
		close(start)
		wg.Wait()

		created, joined, full := 0, 0, 0
		for i := range sids {
			switch {
			case errs[i] == nil && results[i].IsNewRoom:
				created++
			case errs[i] == nil:
				joined++
			default:
				require.ErrorIs(t, errs[i], domain.ErrRoomFull)
				full++
			}
		}
		assert.Equal(t, 1, created, "round %d", round)
		assert.Equal(t, 1, joined, "round %d", round)
		assert.Equal(t, n-2, full, "round %d", round)
		assert.Len(t, h.orch.Rooms.Members(room), domain.MaxMembers)
	}
}

// gatedVerifier holds every Verify until gate is closed.
type gatedVerifier struct {
	plainHasher
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedVerifier) Verify(ctx context.Context, plaintext string, digest core.Digest) (bool, error) {
	g.calls.Add(1)
	select {
	case <-g.gate:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return g.plainHasher.Verify(ctx, plaintext, digest)
}

func TestJoin_ParallelGuessesCappedPerAddress(t *testing.T) {
	ctx := context.Background()
	hasher := &gatedVerifier{gate: make(chan struct{})}
	h := newHarnessWith(t, hasher)

	host, _ := h.connect("10.0.0.1")
	_, err := h.orch.Join(ctx, host, "victim", "correct")
	require.NoError(t, err)

	const attempts = 30
	var limited atomic.Int32
	var wg sync.WaitGroup
	for i := range attempts {
		sid, _ := h.connect("10.0.0.66")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orch.Join(ctx, sid, "victim", fmt.Sprintf("guess-%d", i))
			if errors.Is(err, domain.ErrRateLimited) {
				limited.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return hasher.calls.Load() == 5 && limited.Load() == attempts-5
	}, 2*time.Second, time.Millisecond)

	close(hasher.gate)
	wg.Wait()

	assert.EqualValues(t, 5, hasher.calls.Load(), "password checks for one address in one window")
	assert.Equal(t, 5, h.limiter.Failures("10.0.0.66"))

	late, _ := h.connect("10.0.0.66")
	_, err = h.orch.Join(ctx, late, "victim", "correct")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestJoin_SecondMemberWaitsForCreatorNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, _ := h.connect("10.0.0.1")
	b, _ := h.connect("10.0.0.2")

	inNotice := make(chan struct{})
	release := make(chan struct{})
	h.notes.hold = func(sid domain.ConnID) {
		if sid == a {
			close(inNotice)
			<-release
		}
	}

	createDone := make(chan error, 1)
	go func() {
		_, err := h.orch.Join(ctx, a, "r1", "pw1")
		createDone <- err
	}()
	<-inNotice

	var joined atomic.Bool
	joinDone := make(chan JoinResult, 1)
	go func() {
		res, _ := h.orch.Join(ctx, b, "r1", "pw1")
		joined.Store(true)
		joinDone <- res
	}()

	assert.Never(t, joined.Load, 50*time.Millisecond, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-createDone)
	res := <-joinDone
	assert.Equal(t, []domain.ConnID{a}, res.Ready)
	assert.Equal(t, []string{"joined " + string(a), "joined " + string(b), "ready " + string(a)}, h.notes.Events())
}

func TestDisconnect_SimultaneousLeaveEndsCallOnce(t *testing.T) {
	ctx := context.Background()
	for round := range 30 {
		h := newHarness(t)
		a, _ := h.connect("10.0.0.1")
		b, _ := h.connect("10.0.0.2")
		_, _ = h.orch.Join(ctx, a, "r1", "pw1")
		_, _ = h.orch.Join(ctx, b, "r1", "pw1")

		var wg sync.WaitGroup
		for _, sid := range []domain.ConnID{a, b} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.disconnect(sid)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, h.audit.Count(domain.EventCallEnd), "round %d", round)
		_, ok := h.orch.Rooms.Lookup("r1")
		assert.False(t, ok)
	}
}
