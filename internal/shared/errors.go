package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates the request carries no usable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTokenMissing occurs when a protected request has no bearer token.
	ErrTokenMissing = fmt.Errorf("%w: authentication token not provided", ErrUnauthenticated)
	// ErrTokenExpired occurs when the token expiry has passed.
	ErrTokenExpired = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	// ErrTokenInvalid occurs when the token is malformed or its signature does not verify.
	ErrTokenInvalid = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	// ErrSubjectGone occurs when the token subject no longer exists.
	ErrSubjectGone = fmt.Errorf("%w: token subject no longer exists", ErrUnauthenticated)

	// ErrForbidden indicates the identity lacks a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrDuplicateUsername occurs when registering a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateName occurs when creating a role or permission with a taken name.
	ErrDuplicateName = errors.New("name already exists")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed request payload.
	ErrValidation = errors.New("validation failed")
	// ErrMethodNotAllowed indicates the route exists for other methods only.
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrRateLimited indicates the caller exceeded a request budget.
	ErrRateLimited = errors.New("too many requests")
	// ErrStoreUnavailable wraps failures of the credential store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError marks err as a credential store failure while keeping it inspectable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
