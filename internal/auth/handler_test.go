package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/memstore"
	"github.com/rpac/rpac/internal/platform/httpx"
)

func newAuthRouter(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	svc := auth.NewService(memstore.New(), auth.NewHasher(bcrypt.MinCost), tokens, &recordingSink{}, discardLogger)
	r := chi.NewRouter()
	r.Route("/users", auth.NewHandler(discardLogger, svc, testResponder(), rateLimit).MountRoutes)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Type
}

func TestRegisterHandler(t *testing.T) {
	h := newAuthRouter(t, 0)

	rr := post(t, h, "/users/register", `{"username":"bob","password":"pw123","email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var user map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "bob", user["username"])
	assert.Equal(t, float64(1), user["id"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, rr.Body.String(), "pw123")

	rr = post(t, h, "/users/register", `{"username":"bob","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "DuplicateUsername", errorType(t, rr))
}

func TestRegisterHandlerValidation(t *testing.T) {
	h := newAuthRouter(t, 0)

	cases := map[string]string{
		"missing password": `{"username":"bob"}`,
		"bad email":        `{"username":"bob","password":"pw","email":"nope"}`,
		"unknown field":    `{"username":"bob","password":"pw","admin":true}`,
		"malformed":        `{"username":`,
		"long username":    `{"username":"` + strings.Repeat("a", 51) + `","password":"pw"}`,
	}
	for name, body := range cases {
		rr := post(t, h, "/users/register", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, name)
		assert.Equal(t, "ValidationError", errorType(t, rr), name)
	}
}

func TestLoginHandler(t *testing.T) {
	h := newAuthRouter(t, 0)
	require.Equal(t, http.StatusCreated, post(t, h, "/users/register", `{"username":"bob","password":"pw123"}`).Code)

	rr := post(t, h, "/users/login", `{"username":"bob","password":"pw123"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var token auth.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	rr = post(t, h, "/users/login", `{"username":"bob","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "InvalidCredentials", errorType(t, rr))

	rr = post(t, h, "/users/login", `{"username":"ghost","password":"pw123"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "InvalidCredentials", errorType(t, rr))
}

func TestLoginHandlerRejectsOverlongUsername(t *testing.T) {
	h := newAuthRouter(t, 0)

	rr := post(t, h, "/users/login", `{"username":"`+strings.Repeat("a", 80)+`","password":"pw"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "ValidationError", errorType(t, rr))

	rr = post(t, h, "/users/login", `{"username":"`+strings.Repeat("a", 50)+`","password":"pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginRateLimit(t *testing.T) {
	h := newAuthRouter(t, 2)

	for i := 0; i < 2; i++ {
		rr := post(t, h, "/users/login", `{"username":"ghost","password":"pw"}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := post(t, h, "/users/login", `{"username":"ghost","password":"pw"}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RateLimitExceeded", errorType(t, rr))
}
