package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestCORSPreflight(t *testing.T) {
	h := cors([]string{"https://app.example"})(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/roles/create", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func corsRequest(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", origin)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCORSEmptyListDeniesEveryOrigin(t *testing.T) {
	rr := corsRequest(cors(nil)(http.HandlerFunc(ok)), "https://evil.example")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardSendsNoCredentials(t *testing.T) {
	rr := corsRequest(cors([]string{"*"})(http.HandlerFunc(ok)), "https://any.example")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSSubdomainPattern(t *testing.T) {
	h := cors([]string{"*.example.com"})(http.HandlerFunc(ok))

	rr := corsRequest(h, "https://app.example.com")
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	rr = corsRequest(h, "https://example.com:8443")
	assert.Equal(t, "https://example.com:8443", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = corsRequest(h, "https://evilexample.com")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDefaultsFollowEnvironment(t *testing.T) {
	prod := &Config{AppEnv: "production"}
	h := cors(prod.CORSOrigins())(http.HandlerFunc(ok))
	assert.Empty(t, corsRequest(h, "https://evil.example").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, corsRequest(h, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))

	dev := &Config{AppEnv: "development"}
	h = cors(dev.CORSOrigins())(http.HandlerFunc(ok))
	assert.Equal(t, "http://localhost:3000", corsRequest(h, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, corsRequest(h, "https://evil.example").Header().Get("Access-Control-Allow-Origin"))

	configured := &Config{AppEnv: "production", CORSAllowedOrigins: []string{"https://app.example"}}
	assert.Equal(t, []string{"https://app.example"}, configured.CORSOrigins())
}

func TestRequestLoggerStampsTimingAndIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	setIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), shared.Authenticated(9))))
		})
	}
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}), requestLogger(logger), setIdentity, captureIdentity)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("X-Process-Time"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, float64(403), line["status"])
	assert.Equal(t, float64(9), line["user_id"])
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestSafeHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("Cookie", "a=b")
	h.Set("X-Api-Key", "k")
	h.Set("User-Agent", "curl")
	assert.Equal(t, map[string]string{"User-Agent": "curl"}, safeHeaders(h))
}

func TestRecovererReturnsUniformError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := recoverer(logger, &httpx.Responder{Logger: logger})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "InternalServerError", body.Error.Type)
	assert.Equal(t, "/boom", body.Error.Path)
	assert.NotEmpty(t, body.Error.ErrorID)
	assert.Contains(t, buf.String(), "kaboom")
}
