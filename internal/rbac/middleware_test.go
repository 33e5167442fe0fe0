package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

type stubResolver struct {
	perms []string
	err   error
	calls int
}

func (s *stubResolver) EffectivePermissions(context.Context, int64) ([]string, error) {
	s.calls++
	return s.perms, s.err
}

func newMiddleware(res PermissionResolver) Middleware {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Middleware{Resolver: res, Logger: logger, Responder: &httpx.Responder{Logger: logger}}
}

func run(guard func(http.Handler) http.Handler, identity *shared.Identity) int {
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/roles/create", nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *identity))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAny(t *testing.T) {
	user := shared.Authenticated(7)
	res := &stubResolver{perms: []string{"reports.read", "rbac.manage"}}
	mw := newMiddleware(res)

	assert.Equal(t, http.StatusNoContent, run(mw.RequireAny("RBAC.manage", "other"), &user))
	assert.Equal(t, http.StatusForbidden, run(mw.RequireAny("users.delete"), &user))
}

func TestRequireAll(t *testing.T) {
	user := shared.Authenticated(7)
	mw := newMiddleware(&stubResolver{perms: []string{"a", "b"}})

	assert.Equal(t, http.StatusNoContent, run(mw.RequireAll("a", "b", "a"), &user))
	assert.Equal(t, http.StatusForbidden, run(mw.RequireAll("a", "c"), &user))
}

func TestRequireWithoutIdentity(t *testing.T) {
	res := &stubResolver{perms: []string{"a"}}
	mw := newMiddleware(res)

	assert.Equal(t, http.StatusUnauthorized, run(mw.RequireAny("a"), nil))
	anon := shared.Anonymous
	assert.Equal(t, http.StatusUnauthorized, run(mw.RequireAny("a"), &anon))
	assert.Zero(t, res.calls)
}

func TestRequireNothingPassesThrough(t *testing.T) {
	res := &stubResolver{}
	mw := newMiddleware(res)
	assert.Equal(t, http.StatusNoContent, run(mw.RequireAny(" ", ""), nil))
	assert.Zero(t, res.calls)
}

func TestRequireResolverFailure(t *testing.T) {
	user := shared.Authenticated(7)
	mw := newMiddleware(&stubResolver{err: shared.StoreError("rbac", errors.New("down"))})
	assert.Equal(t, http.StatusInternalServerError, run(mw.RequireAny("a"), &user))
}
