package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/shared"
)

func TestHasherRoundTrip(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), "hash should embed algorithm and cost: %s", hash)
	assert.True(t, h.Verify("pw123", hash))
	assert.False(t, h.Verify("pw124", hash))
}

func TestHasherSaltsEveryHash(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestHasherVerifyMalformedHash(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("pw", ""))
	assert.False(t, h.Verify("pw", "not-a-bcrypt-hash"))
}

func flipAt(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestHasherVerifyAlteredHash(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	require.Len(t, hash, 60)

	// $2a$04$ + 22 salt chars + 31 digest chars.
	digest := flipAt(hash, len(hash)-10)
	salt := flipAt(hash, 10)
	for name, altered := range map[string]string{"digest": digest, "salt": salt} {
		require.NotEqual(t, hash, altered, name)
		assert.False(t, h.Verify("pw", altered), name)
	}
	assert.True(t, h.Verify("pw", hash))
}

func TestHasherRejectsOverlongPassword(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = h.Hash(strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestNewHasherFallsBackToDefaultCost(t *testing.T) {
	h := auth.NewHasher(0)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
