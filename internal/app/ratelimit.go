package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
)

type attemptEntry struct {
	failures int
	inflight int
	resetAt  time.Time
}

// AttemptLimiter counts failed password attempts per source address.
// Only failures are recorded; a blocked check or a successful join
// never moves the counter. Attempts still being verified hold a slot
// and count toward the limit until released.
type AttemptLimiter struct {
	mu          sync.Mutex
	entries     map[string]*attemptEntry
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewAttemptLimiter(maxAttempts int, window time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &AttemptLimiter{
		entries:     make(map[string]*attemptEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (rl *AttemptLimiter) WithClock(now func() time.Time) *AttemptLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
	return rl
}

// current returns the entry for addr with an elapsed window reset.
func (rl *AttemptLimiter) current(addr string, create bool) *attemptEntry {
	now := rl.now()
	e, ok := rl.entries[addr]
	switch {
	case !ok && !create:
		return nil
	case !ok:
		e = &attemptEntry{resetAt: now.Add(rl.window)}
		rl.entries[addr] = e
	case now.After(e.resetAt):
		e.failures = 0
		e.resetAt = now.Add(rl.window)
	}
	return e
}

// IsBlocked reports whether addr has used up its attempts in the current
// window. An elapsed window is reset as a side effect.
func (rl *AttemptLimiter) IsBlocked(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e := rl.current(addr, false)
	return e != nil && e.failures >= rl.maxAttempts
}

// Acquire takes an attempt slot for addr. It fails when recorded failures
// plus attempts in flight already reach the limit. Every successful
// Acquire must be paired with Release.
func (rl *AttemptLimiter) Acquire(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e := rl.current(addr, true)
	if e.failures+e.inflight >= rl.maxAttempts {
		return false
	}
	e.inflight++
	return true
}

// Release gives back a slot taken by Acquire.
func (rl *AttemptLimiter) Release(addr string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if e, ok := rl.entries[addr]; ok && e.inflight > 0 {
		e.inflight--
	}
}

// RecordFailure counts one wrong password for addr and returns the
// failure count within the current window.
func (rl *AttemptLimiter) RecordFailure(addr string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e := rl.current(addr, true)
	e.failures++
	return e.failures
}

func (rl *AttemptLimiter) Failures(addr string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if e, ok := rl.entries[addr]; ok && !rl.now().After(e.resetAt) {
		return e.failures
	}
	return 0
}

// Sweep drops entries whose window has elapsed and returns how many went.
func (rl *AttemptLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for addr, e := range rl.entries {
		if e.inflight == 0 && now.After(e.resetAt) {
			delete(rl.entries, addr)
			removed++
		}
	}
	return removed
}

func (rl *AttemptLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// Run sweeps stale entries every interval until ctx is done.
func (rl *AttemptLimiter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = rl.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.ratelimit").Msg("sweeper stopped")
			return nil
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				log.Debug().Str("module", "app.ratelimit").Int("evicted", n).Msg("sweep")
			}
		}
	}
}
