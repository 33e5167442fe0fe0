package users

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser carries the fields required to persist a user.
type NewUser struct {
	Username     string
	PasswordHash string
	Email        *string
}

// UserRoles lists the role names held by a user.
type UserRoles struct {
	Username string
	Roles    []string
}

// Profile is the authenticated user's own view.
type Profile struct {
	User        User
	Roles       []string
	Permissions []string
}
