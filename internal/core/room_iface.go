package core

import (
	"context"

	"github.com/dkeye/Rendezvous/internal/domain"
)

// RoomDirectory owns every room, its password digest and its member set.
// A room exists only while it has at least one member.
type RoomDirectory interface {
	Lookup(name domain.RoomName) (domain.RoomInfo, bool)

	// CreateWithFirstMember installs a new room with sid as its only member.
	// created is false (and err nil) when another caller already owns the name;
	// the caller must then verify instead. commit, if set, runs once the digest
	// is in place and before any other joiner can verify; returning false
	// rolls the room back.
	CreateWithFirstMember(ctx context.Context, name domain.RoomName, password string, sid domain.ConnID, commit func() bool) (created bool, err error)

	// VerifyAndAddMember checks password against the stored digest and adds sid.
	// It returns the member count after insertion.
	VerifyAndAddMember(ctx context.Context, name domain.RoomName, password string, sid domain.ConnID) (int, error)

	// RemoveMember returns the remaining member count. The room and its digest
	// are dropped when it reaches zero.
	RemoveMember(name domain.RoomName, sid domain.ConnID) int

	// Leave removes sid and returns the member count before removal, 0 if
	// sid was not a member. Count and removal are one step. When sid was the
	// last member the digest is forgotten with the room.
	Leave(name domain.RoomName, sid domain.ConnID) (before int)

	Members(name domain.RoomName) []domain.ConnID
	List() []domain.RoomInfo
}
