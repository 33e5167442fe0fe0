package rbac

import "time"

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionManage guards the administrative RBAC endpoints when enforcement is on.
const PermissionManage = "rbac.manage"
