package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Kind classifies an authentication event.
type Kind string

const (
	// KindRegistered is recorded after a successful registration.
	KindRegistered Kind = "registered"
	// KindLoginSucceeded is recorded when a token is issued.
	KindLoginSucceeded Kind = "login_succeeded"
	// KindLoginFailed is recorded when credentials are rejected.
	KindLoginFailed Kind = "login_failed"
)

// Source describes where a request came from.
type Source struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Event is a single authentication audit record.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Username   string    `json:"username"`
	UserID     *int64    `json:"user_id,omitempty"`
	Source     Source    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink receives authentication events. Implementations must not block the
// caller for longer than the context allows.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Column widths of auth_events.
const (
	maxUsername   = 50
	maxRemoteAddr = 64
	maxUserAgent  = 255
	maxRequestID  = 128
)

// clip cuts s to at most n bytes without splitting a rune and drops invalid
// UTF-8, which PostgreSQL would reject.
func clip(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToValidUTF8(s, "")
}

// SourceFromRequest captures the request origin for auditing. Values are
// clipped to the widths of the auth_events columns.
func SourceFromRequest(r *http.Request) Source {
	return Source{
		RemoteAddr: clip(r.RemoteAddr, maxRemoteAddr),
		UserAgent:  clip(r.UserAgent(), maxUserAgent),
		RequestID:  clip(middleware.GetReqID(r.Context()), maxRequestID),
	}
}
