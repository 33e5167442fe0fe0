package roles

import "time"

// CreateRoleRequest is the body of POST /roles/create.
type CreateRoleRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// AssignPermissionRequest is the body of POST /roles/{role_id}/permissions.
type AssignPermissionRequest struct {
	RoleID       *int64 `json:"role_id" validate:"omitempty,gt=0"`
	PermissionID int64  `json:"permission_id" validate:"required,gt=0"`
}

// RoleResponse is the JSON view of a role.
type RoleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePermissionsResponse lists the permissions of a role.
type RolePermissionsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ToRoleResponse maps the domain role to its JSON view.
func ToRoleResponse(r Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
