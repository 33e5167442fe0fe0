package shared

import "context"

type identityContextKey struct{}

// Identity is the per-request result of authentication.
type Identity struct {
	UserID        *int64
	Authenticated bool
}

// Anonymous is the identity attached to public requests.
var Anonymous = Identity{}

// Authenticated builds the identity for a verified subject.
func Authenticated(userID int64) Identity {
	return Identity{UserID: &userID, Authenticated: true}
}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. Requests that never
// passed the auth gate report Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id := IdentityFromContext(ctx)
	if !id.Authenticated || id.UserID == nil {
		return 0, false
	}
	return *id.UserID, true
}
