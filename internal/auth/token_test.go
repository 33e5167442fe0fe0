package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

var testSecret = []byte("unit-test-secret")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTokens(t *testing.T, clock *fakeClock) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(testSecret, time.Hour, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestTokenIssueVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTokens(t, clock)

	token, exp, err := svc.Issue(users.User{ID: 7, Username: "bob"})
	require.NoError(t, err)
	assert.True(t, exp.Equal(clock.now.Add(time.Hour)), "expiry %s", exp)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))
}

func TestTokenExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTokens(t, clock)
	token, _, err := svc.Issue(users.User{ID: 7})
	require.NoError(t, err)

	start := clock.now
	clock.now = start.Add(time.Hour - time.Second)
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	clock.now = start.Add(time.Hour + time.Second)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, shared.ErrTokenExpired)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestTokenRejectsForeignSignature(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	other, err := auth.NewTokenService([]byte("another-secret"), time.Hour, auth.WithClock(clock.Now))
	require.NoError(t, err)
	token, _, err := other.Issue(users.User{ID: 1})
	require.NoError(t, err)

	_, err = newTokens(t, clock).Verify(token)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestTokenRejectsTampering(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTokens(t, clock)
	token, _, err := svc.Issue(users.User{ID: 1})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	_, err = svc.Verify("garbage")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTokens(t, clock)
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(hs512)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestTokenRequiresNumericSubjectAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTokens(t, clock)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(badSubject)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(noExpiry)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenService(nil, time.Hour)
	assert.Error(t, err)

	svc, err := auth.NewTokenService(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultTokenTTL, svc.TTL())
}
