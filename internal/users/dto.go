package users

import "time"

// AssignRoleRequest is the body of POST /users/{user_id}/roles.
type AssignRoleRequest struct {
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
	RoleID int64  `json:"role_id" validate:"required,gt=0"`
}

// UserResponse is the public JSON view of a user; the password hash is never exposed.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRolesResponse lists the roles of a user.
type UserRolesResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// ProfileResponse is the body of GET /users/me.
type ProfileResponse struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Email       *string  `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ToUserResponse maps the domain user to its JSON view.
func ToUserResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
