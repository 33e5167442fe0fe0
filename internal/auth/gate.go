package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpac/rpac/internal/platform/httpx"
	"github.com/rpac/rpac/internal/shared"
)

// Gate decisions reported to a DecisionRecorder.
const (
	OutcomePublic        = "public"
	OutcomeAuthenticated = "authenticated"
	OutcomeMissing       = "missing"
	OutcomeExpired       = "expired"
	OutcomeInvalid       = "invalid"
	OutcomeSubjectGone   = "subject_gone"
	OutcomeError         = "error"
)

// PublicPaths lists the request paths that bypass authentication.
type PublicPaths struct {
	Exact    []string
	Prefixes []string
}

// IsPublic reports whether path is an exact public path or starts with a
// public prefix.
func (p PublicPaths) IsPublic(path string) bool {
	for _, exact := range p.Exact {
		if path == exact {
			return true
		}
	}
	for _, prefix := range p.Prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// SubjectVerifier confirms a token subject still exists.
type SubjectVerifier interface {
	Active(ctx context.Context, userID int64) (bool, error)
}

// DecisionRecorder observes gate outcomes.
type DecisionRecorder interface {
	ObserveAuth(outcome string)
}

// Gate authenticates every non-public request.
type Gate struct {
	public    PublicPaths
	tokens    TokenVerifier
	responder *httpx.Responder
	subjects  SubjectVerifier
	recorder  DecisionRecorder
	logger    *slog.Logger
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithSubjectVerifier enables the subject liveness check.
func WithSubjectVerifier(v SubjectVerifier) GateOption {
	return func(g *Gate) { g.subjects = v }
}

// WithDecisionRecorder reports every gate outcome to r.
func WithDecisionRecorder(r DecisionRecorder) GateOption {
	return func(g *Gate) { g.recorder = r }
}

// WithGateLogger sets the gate logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// NewGate builds the authentication middleware.
func NewGate(public PublicPaths, tokens TokenVerifier, responder *httpx.Responder, opts ...GateOption) *Gate {
	g := &Gate{public: public, tokens: tokens, responder: responder, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware attaches the request identity or rejects the request with 401.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.public.IsPublic(r.URL.Path) {
			g.observe(OutcomePublic)
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), shared.Anonymous)))
			return
		}

		token := ExtractToken(r)
		if token == "" {
			g.reject(w, r, OutcomeMissing, shared.ErrTokenMissing)
			return
		}
		claims, err := g.tokens.Verify(token)
		if err != nil {
			outcome := OutcomeInvalid
			if errors.Is(err, shared.ErrTokenExpired) {
				outcome = OutcomeExpired
			}
			g.reject(w, r, outcome, err)
			return
		}

		if g.subjects != nil {
			active, err := g.subjects.Active(r.Context(), claims.Subject)
			if err != nil {
				g.reject(w, r, OutcomeError, err)
				return
			}
			if !active {
				g.reject(w, r, OutcomeSubjectGone, shared.ErrSubjectGone)
				return
			}
		}

		g.observe(OutcomeAuthenticated)
		ctx := shared.ContextWithIdentity(r.Context(), shared.Authenticated(claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, outcome string, err error) {
	g.observe(outcome)
	g.logger.Debug("auth gate rejected request",
		slog.String("outcome", outcome),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	g.responder.RespondError(w, r, err)
}

func (g *Gate) observe(outcome string) {
	if g.recorder != nil {
		g.recorder.ObserveAuth(outcome)
	}
}

// ExtractToken reads the bearer token from the Authorization header, falling
// back to the token query parameter.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	return r.URL.Query().Get("token")
}
