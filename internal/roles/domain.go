package roles

import "time"

// Role represents a named permission group.
type Role struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RolePermissions lists the permission names attached to a role.
type RolePermissions struct {
	Role        string
	Permissions []string
}
