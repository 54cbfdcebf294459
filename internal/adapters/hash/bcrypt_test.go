package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	ctx := context.Background()
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash(ctx, "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", string(digest))

	ok, err := h.Verify(ctx, "correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong horse", digest)
	require.NoError(t, err, "a mismatch is not an error")
	assert.False(t, ok)
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	ctx := context.Background()
	h := NewBcryptHasher(bcrypt.MinCost)

	d1, err := h.Hash(ctx, "same")
	require.NoError(t, err)
	d2, err := h.Hash(ctx, "same")
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	ok, err := h.Verify(context.Background(), "pw", "not-a-bcrypt-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_CancelledContext(t *testing.T) {
	h := NewBcryptHasher(14)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)
}
