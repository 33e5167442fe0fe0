package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "admin", NormalizeName("  admin\t"))
	assert.Equal(t, NormalizeName("josé"), NormalizeName("josé"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(nil))
	blank := "  "
	assert.Nil(t, OptionalString(&blank))
	v := " ops team "
	got := OptionalString(&v)
	require.NotNil(t, got)
	assert.Equal(t, "ops team", *got)
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Anonymous, IdentityFromContext(ctx))
	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithIdentity(ctx, Anonymous)
	_, ok = UserIDFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithIdentity(ctx, Authenticated(42))
	id, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestTokenErrorsAreUnauthenticated(t *testing.T) {
	for _, err := range []error{ErrTokenMissing, ErrTokenExpired, ErrTokenInvalid, ErrSubjectGone} {
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
	assert.False(t, errors.Is(ErrForbidden, ErrUnauthenticated))
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, StoreError("op", nil))
	cause := errors.New("conn reset")
	err := StoreError("users: get", cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "users: get")
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 20, 100)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 500, 20, 100)
	assert.Equal(t, Pagination{Page: 3, PerPage: 100}, p)
	assert.Equal(t, 200, p.Offset())
}
