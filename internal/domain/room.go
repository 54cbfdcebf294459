package domain

// MaxMembers is the capacity of a room: one caller and one callee.
const MaxMembers = 2

type RoomName string

// RoomInfo is a read-only view of a room. The digest never leaves the directory.
type RoomInfo struct {
	Name        RoomName `json:"name"`
	MemberCount int      `json:"member_count"`
	Pending     bool     `json:"pending,omitempty"`
}

func (r RoomInfo) Full() bool { return r.MemberCount >= MaxMembers }
