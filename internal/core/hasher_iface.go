package core

import "context"

// Digest is the salted one-way hash of a room password.
type Digest string

// Hasher is the password hashing primitive. Both calls may be slow;
// callers must not hold locks across them.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (Digest, error)
	Verify(ctx context.Context, plaintext string, digest Digest) (bool, error)
}
