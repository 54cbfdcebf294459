package app

import (
	"context"
	"errors"

	"github.com/dkeye/Rendezvous/internal/core"
)

// plainHasher stores "h:"+password. Hash blocks on gate when one is set.
type plainHasher struct {
	gate    chan struct{}
	hashErr error
}

func (h *plainHasher) Hash(ctx context.Context, plaintext string) (core.Digest, error) {
	if h.gate != nil {
		select {
		case <-h.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return core.Digest("h:" + plaintext), nil
}

func (h *plainHasher) Verify(_ context.Context, plaintext string, digest core.Digest) (bool, error) {
	if digest == "" {
		return false, errors.New("empty digest")
	}
	return core.Digest("h:"+plaintext) == digest, nil
}
