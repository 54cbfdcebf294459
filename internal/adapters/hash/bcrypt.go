// Package hash implements core.Hasher on top of bcrypt.
package hash

import (
	"context"
	"errors"

	"github.com/dkeye/Rendezvous/internal/core"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = bcrypt.DefaultCost

// BcryptHasher runs bcrypt off the caller's goroutine so a cancelled
// context releases the caller without waiting for the hash.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

var _ core.Hasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (core.Digest, error) {
	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
		done <- result{b, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return core.Digest(r.b), nil
	}
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext string, digest core.Digest) (bool, error) {
	done := make(chan error, 1)
	go func() {
		done <- bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-done:
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
}
