// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

// ConnID identifies one transport connection for its whole lifetime.
type ConnID string

// Peer is what the core knows about a connection: who and from where.
type Peer struct {
	ID   ConnID `json:"id"`
	Addr string `json:"addr"`
}

// NewPeer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewPeer(addr string) *Peer {
	return &Peer{ID: NewConnID(), Addr: addr}
}

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
