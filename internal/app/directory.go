package app

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// verifyRetries bounds how often a verifier restarts when the room it
// verified against was replaced before it could join.
const verifyRetries = 3

// roomState is one entry of the directory. While pending, the creator is
// already counted as a member and ready is open; ready is closed once the
// creator has committed or the reservation is rolled back.
type roomState struct {
	digest  core.Digest
	members map[domain.ConnID]struct{}
	pending bool
	failed  bool
	ready   chan struct{}
}

type RoomDirectoryImpl struct {
	mu     sync.Mutex
	hasher core.Hasher
	rooms  map[domain.RoomName]*roomState
}

func NewRoomDirectory(hasher core.Hasher) core.RoomDirectory {
	return &RoomDirectoryImpl{
		hasher: hasher,
		rooms:  make(map[domain.RoomName]*roomState),
	}
}

func (d *RoomDirectoryImpl) Lookup(name domain.RoomName) (domain.RoomInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[name]
	if !ok {
		return domain.RoomInfo{}, false
	}
	return info(name, st), true
}

// release opens a pending room to waiters. failed tells them the room is gone.
func (st *roomState) release(failed bool) {
	if !st.pending {
		return
	}
	st.pending = false
	st.failed = failed
	close(st.ready)
}

func (d *RoomDirectoryImpl) CreateWithFirstMember(
	ctx context.Context,
	name domain.RoomName,
	password string,
	sid domain.ConnID,
	commit func() bool,
) (bool, error) {
	// Reserve the name before hashing so concurrent creators fall through
	// to verification against this room.
	d.mu.Lock()
	if _, ok := d.rooms[name]; ok {
		d.mu.Unlock()
		return false, nil
	}
	st := &roomState{
		members: map[domain.ConnID]struct{}{sid: {}},
		pending: true,
		ready:   make(chan struct{}),
	}
	d.rooms[name] = st
	d.mu.Unlock()

	digest, err := d.hasher.Hash(ctx, password)
	if err != nil {
		d.abandon(name, st)
		return false, fmt.Errorf("hash room password: %w", err)
	}

	d.mu.Lock()
	if d.rooms[name] != st {
		st.release(true)
		d.mu.Unlock()
		return false, domain.ErrRoomBusy
	}
	st.digest = digest
	d.mu.Unlock()

	// Waiters stay parked until commit returns.
	if commit != nil && !commit() {
		d.abandon(name, st)
		return false, domain.ErrRoomBusy
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[name] != st {
		st.release(true)
		return false, domain.ErrRoomBusy
	}
	st.release(false)
	log.Info().Str("module", "app.directory").Str("room", string(name)).Str("sid", string(sid)).Msg("room created")
	return true, nil
}

func (d *RoomDirectoryImpl) abandon(name domain.RoomName, st *roomState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[name] == st {
		delete(d.rooms, name)
	}
	st.release(true)
}

func (d *RoomDirectoryImpl) VerifyAndAddMember(
	ctx context.Context,
	name domain.RoomName,
	password string,
	sid domain.ConnID,
) (int, error) {
	for range verifyRetries {
		d.mu.Lock()
		st, ok := d.rooms[name]
		if !ok {
			d.mu.Unlock()
			return 0, domain.ErrRoomNotFound
		}
		if len(st.members) >= domain.MaxMembers {
			d.mu.Unlock()
			return 0, domain.ErrRoomFull
		}
		ready := st.ready
		d.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}

		d.mu.Lock()
		if st.failed || d.rooms[name] != st {
			d.mu.Unlock()
			return 0, domain.ErrRoomNotFound
		}
		digest := st.digest
		d.mu.Unlock()

		match, err := d.hasher.Verify(ctx, password, digest)
		if err != nil {
			return 0, fmt.Errorf("verify room password: %w", err)
		}
		if !match {
			return 0, domain.ErrWrongPassword
		}

		d.mu.Lock()
		if d.rooms[name] != st {
			d.mu.Unlock()
			log.Debug().Str("module", "app.directory").Str("room", string(name)).Msg("room replaced during verify, retrying")
			continue
		}
		if len(st.members) >= domain.MaxMembers {
			d.mu.Unlock()
			return 0, domain.ErrRoomFull
		}
		st.members[sid] = struct{}{}
		n := len(st.members)
		d.mu.Unlock()
		log.Info().Str("module", "app.directory").Str("room", string(name)).Str("sid", string(sid)).Int("members", n).Msg("member added")
		return n, nil
	}
	return 0, domain.ErrRoomBusy
}

func (d *RoomDirectoryImpl) RemoveMember(name domain.RoomName, sid domain.ConnID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[name]
	if !ok {
		return 0
	}
	delete(st.members, sid)
	n := len(st.members)
	if n == 0 {
		d.dropLocked(name, st)
		log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room dropped")
	}
	return n
}

// Leave removes sid and returns the member count it saw before removing,
// or 0 if sid was not a member. The last member out takes the room and its
// digest with it in the same step.
func (d *RoomDirectoryImpl) Leave(name domain.RoomName, sid domain.ConnID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[name]
	if !ok {
		return 0
	}
	if _, in := st.members[sid]; !in {
		return 0
	}
	before := len(st.members)
	delete(st.members, sid)
	if before == 1 {
		d.dropLocked(name, st)
		log.Info().Str("module", "app.directory").Str("room", string(name)).Str("sid", string(sid)).Msg("room forgotten")
	}
	return before
}

func (d *RoomDirectoryImpl) dropLocked(name domain.RoomName, st *roomState) {
	delete(d.rooms, name)
	st.digest = ""
	st.release(true)
}

func (d *RoomDirectoryImpl) Members(name domain.RoomName) []domain.ConnID {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[name]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(st.members))
}

func (d *RoomDirectoryImpl) List() []domain.RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.RoomInfo, 0, len(d.rooms))
	for _, name := range slices.Sorted(maps.Keys(d.rooms)) {
		out = append(out, info(name, d.rooms[name]))
	}
	return out
}

func info(name domain.RoomName, st *roomState) domain.RoomInfo {
	return domain.RoomInfo{Name: name, MemberCount: len(st.members), Pending: st.pending}
}
