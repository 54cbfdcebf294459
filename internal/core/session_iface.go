package core

import "github.com/dkeye/Rendezvous/internal/domain"

// MemberSession binds domain.Peer and its transport endpoint.
// This is what the registry stores and the relay fans out to.
type MemberSession interface {
	Peer() *domain.Peer
	Signal() SignalConnection
}
